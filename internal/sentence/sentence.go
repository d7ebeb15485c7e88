// Package sentence segments extracted page text into ordered sentences.
package sentence

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sentence is one segment of the normalized text. Index is the zero-based
// position in the original text and is used to break score ties.
type Sentence struct {
	Text  string
	Index int
}

// A terminal mark followed by at least one space ends a sentence. Input is
// whitespace-collapsed before matching, so a single space is what we see.
var boundaryRe = regexp.MustCompile(`[.!?。] +`)

// Split normalizes whitespace and segments text on terminal punctuation
// (., !, ?, 。) followed by whitespace. When no such boundary exists, hard
// newlines of the original text are used instead. Text without any boundary
// yields one sentence; empty or whitespace-only text yields none.
func Split(text string) []Sentence {
	normalized := collapse(text)
	if normalized == "" {
		return nil
	}

	locs := boundaryRe.FindAllStringIndex(normalized, -1)
	if len(locs) == 0 {
		if lines := splitLines(text); len(lines) > 1 {
			return lines
		}
		return []Sentence{{Text: normalized, Index: 0}}
	}

	out := make([]Sentence, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		// keep the terminal mark, drop the spaces after it
		_, size := utf8.DecodeRuneInString(normalized[loc[0]:])
		end := loc[0] + size
		if s := strings.TrimSpace(normalized[start:end]); s != "" {
			out = append(out, Sentence{Text: s, Index: len(out)})
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(normalized[start:]); s != "" {
		out = append(out, Sentence{Text: s, Index: len(out)})
	}
	return out
}

// splitLines segments on newline boundaries, collapsing whitespace per line
// and skipping blank lines.
func splitLines(text string) []Sentence {
	raw := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	out := make([]Sentence, 0, len(raw))
	for _, line := range raw {
		if s := collapse(line); s != "" {
			out = append(out, Sentence{Text: s, Index: len(out)})
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Texts returns the sentence texts in order.
func Texts(sentences []Sentence) []string {
	out := make([]string, len(sentences))
	for i, s := range sentences {
		out[i] = s.Text
	}
	return out
}
