// Package titler generates short bookmark titles from summaries.
package titler

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// ErrNoTitle indicates no usable title could be produced.
var ErrNoTitle = errors.New("no title generated")

// Generator produces a title in the language of the summary.
type Generator interface {
	Generate(ctx context.Context, summary string) (string, error)
}

// maxTitleRunes bounds cleaned titles; the prompt asks for at most ten words.
const maxTitleRunes = 120

const wrappers = "\"'`“”‘’「」『』*#"

func isTrailingPunct(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(".。!?:;,", r)
}

// CleanTitle reduces model output to one line without labels, wrapping
// quotes or trailing punctuation.
func CleanTitle(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	for _, prefix := range []string{"Title:", "title:", "TITLE:", "제목:"} {
		s = strings.TrimPrefix(s, prefix)
	}
	for {
		prev := s
		s = strings.TrimSpace(s)
		s = strings.Trim(s, wrappers)
		s = strings.TrimRightFunc(s, isTrailingPunct)
		if s == prev {
			break
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxTitleRunes {
		s = strings.TrimSpace(string(r[:maxTitleRunes]))
	}
	return s
}
