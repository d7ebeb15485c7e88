package score

import (
	"math"

	"github.com/hyperifyio/marksum/internal/sentence"
	"github.com/hyperifyio/marksum/internal/token"
)

const (
	DefaultDamping       = 0.85
	DefaultMaxIterations = 20
	DefaultTolerance     = 1e-4
)

// Graph is TextRank over a cosine-similarity graph of term-frequency
// vectors. Scores start at 1.0 and are refined with the damped PageRank
// update until every score moves less than Tolerance or MaxIterations is
// reached. Sentences with no similarity to any other sentence distribute
// nothing. The title is ignored.
type Graph struct {
	Damping       float64
	MaxIterations int
	Tolerance     float64
}

func (g Graph) params() (d float64, iters int, tol float64) {
	d, iters, tol = g.Damping, g.MaxIterations, g.Tolerance
	if d == 0 {
		d = DefaultDamping
	}
	if iters <= 0 {
		iters = DefaultMaxIterations
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return d, iters, tol
}

// Score implements Scorer.
func (g Graph) Score(sentences []sentence.Sentence, _ string) []Scored {
	n := len(sentences)
	if n == 0 {
		return nil
	}
	d, iters, tol := g.params()

	docs := bags(sentences)
	sim := Similarity(docs)
	rowSum := make([]float64, n)
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			rowSum[j] += sim[j][k]
		}
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0
	}
	next := make([]float64, n)
	for it := 0; it < iters; it++ {
		converged := true
		for i := 0; i < n; i++ {
			var acc float64
			for j := 0; j < n; j++ {
				if j == i || rowSum[j] == 0 {
					continue
				}
				acc += sim[j][i] / rowSum[j] * scores[j]
			}
			next[i] = (1 - d) + d*acc
			if math.Abs(next[i]-scores[i]) >= tol {
				converged = false
			}
		}
		scores, next = next, scores
		if converged {
			break
		}
	}

	out := make([]Scored, n)
	for i, s := range sentences {
		out[i] = Scored{Sentence: s, Score: scores[i]}
	}
	return out
}

// Similarity returns the pairwise cosine similarity matrix. The diagonal is
// zero.
func Similarity(docs []token.Bag) [][]float64 {
	n := len(docs)
	norms := make([]float64, n)
	for i, d := range docs {
		var sq float64
		for _, term := range d.Terms {
			c := float64(d.Counts[term])
			sq += c * c
		}
		norms[i] = math.Sqrt(sq)
	}
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := cosine(docs[i], docs[j], norms[i], norms[j])
			sim[i][j] = v
			sim[j][i] = v
		}
	}
	return sim
}

// cosine over the union vocabulary; terms missing from one side contribute
// zero to the dot product, so iterating one side is enough.
func cosine(a, b token.Bag, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for _, term := range a.Terms {
		if c, ok := b.Counts[term]; ok {
			dot += float64(a.Counts[term]) * float64(c)
		}
	}
	return dot / (na * nb)
}
