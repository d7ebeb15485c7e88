// Package score assigns relevance scores to filtered sentences.
//
// Two strategies share the Scorer interface: TFIDF rewards distinctive terms
// and overlap with the page title, Graph ranks sentences by centrality in a
// cosine-similarity graph (TextRank). Both are deterministic: sums iterate
// ordered slices, never maps.
package score

import (
	"github.com/hyperifyio/marksum/internal/sentence"
	"github.com/hyperifyio/marksum/internal/token"
)

// Scored pairs a sentence with its score. Sentence.Index keeps the original
// position for tie-breaking.
type Scored struct {
	sentence.Sentence
	Score float64
}

// Scorer scores sentences against an optional title. The result has one
// entry per input sentence, in input order.
type Scorer interface {
	Score(sentences []sentence.Sentence, title string) []Scored
}

func bags(sentences []sentence.Sentence) []token.Bag {
	out := make([]token.Bag, len(sentences))
	for i, s := range sentences {
		out[i] = token.NewBag(token.Tokenize(s.Text))
	}
	return out
}
