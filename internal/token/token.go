// Package token turns sentences and titles into comparable word tokens.
package token

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tokenize applies NFKC normalization and Unicode case folding, splits on
// anything that is not a letter, digit or combining mark, and drops tokens
// of one rune or less. Works for Latin, Hangul, CJK and kana alike.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	// cases.Caser is stateful; a fresh one per call keeps Tokenize safe for
	// concurrent use.
	folded := cases.Fold().String(norm.NFKC.String(s))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// Bag is the term-frequency view of one token list. Terms keeps unique terms
// in first-occurrence order so callers can sum deterministically.
type Bag struct {
	Terms  []string
	Counts map[string]int
}

// NewBag counts tokens.
func NewBag(tokens []string) Bag {
	b := Bag{Counts: make(map[string]int, len(tokens))}
	for _, t := range tokens {
		if b.Counts[t] == 0 {
			b.Terms = append(b.Terms, t)
		}
		b.Counts[t]++
	}
	return b
}

// Set returns the unique tokens as a membership set.
func Set(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}
