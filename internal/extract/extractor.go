package extract

import "fmt"

// Extractor converts raw HTML into a Document. Implementations are
// deterministic and free of side effects.
type Extractor interface {
	Extract(input []byte) Document
}

// HeuristicExtractor prefers <main>/<article> and strips page chrome.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte) Document {
	return FromHTML(input)
}

// ByName returns the extractor registered under name: "heuristic" or
// "readability" (the default).
func ByName(name string) (Extractor, error) {
	switch name {
	case "", "readability":
		return ReadabilityExtractor{}, nil
	case "heuristic":
		return HeuristicExtractor{}, nil
	}
	return nil, fmt.Errorf("unknown extractor %q", name)
}
