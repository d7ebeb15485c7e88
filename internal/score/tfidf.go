package score

import (
	"math"

	"github.com/hyperifyio/marksum/internal/sentence"
	"github.com/hyperifyio/marksum/internal/token"
)

// DefaultTitleWeight multiplies the title overlap bonus.
const DefaultTitleWeight = 2.0

// TFIDF scores a sentence as the sum of tf*idf over its terms plus
// TitleWeight times the number of its unique terms that appear in the title.
// idf is ln(N/df) with N the number of scored sentences, so a term present in
// every sentence contributes nothing.
type TFIDF struct {
	// TitleWeight defaults to DefaultTitleWeight when zero.
	TitleWeight float64
}

// Score implements Scorer.
func (t TFIDF) Score(sentences []sentence.Sentence, title string) []Scored {
	if len(sentences) == 0 {
		return nil
	}
	weight := t.TitleWeight
	if weight == 0 {
		weight = DefaultTitleWeight
	}

	docs := bags(sentences)
	df := make(map[string]int)
	for _, d := range docs {
		for _, term := range d.Terms {
			df[term]++
		}
	}
	n := float64(len(docs))
	titleSet := token.Set(token.Tokenize(title))

	out := make([]Scored, len(sentences))
	for i, d := range docs {
		var tfidf float64
		var bonus int
		for _, term := range d.Terms {
			tfidf += float64(d.Counts[term]) * math.Log(n/float64(df[term]))
			if _, ok := titleSet[term]; ok {
				bonus++
			}
		}
		out[i] = Scored{Sentence: sentences[i], Score: tfidf + weight*float64(bonus)}
	}
	return out
}
