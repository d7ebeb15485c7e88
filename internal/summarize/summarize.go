// Package summarize composes the extractive pipeline: split, filter, score,
// select. A run is a pure function of its inputs and options.
package summarize

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/marksum/internal/filter"
	"github.com/hyperifyio/marksum/internal/score"
	selecter "github.com/hyperifyio/marksum/internal/select"
	"github.com/hyperifyio/marksum/internal/sentence"
)

// NoContent is the summary returned together with ErrNoContent.
const NoContent = ""

// DefaultMaxLength is the budget used by callers that do not pick one.
const DefaultMaxLength = 300

var (
	// ErrNoContent indicates the page had no text or every sentence was
	// filtered out. Callers decide whether it is fatal.
	ErrNoContent = errors.New("no summarizable content")
	// ErrInvalidArgument indicates a programmer error such as a
	// non-positive budget or invalid UTF-8 input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Strategy names a scoring strategy.
type Strategy string

const (
	StrategyTFIDF Strategy = "tfidf"
	StrategyGraph Strategy = "graph"
)

// ParseStrategy maps a name to a Strategy; empty means tfidf.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyTFIDF:
		return StrategyTFIDF, nil
	case StrategyGraph, "textrank":
		return StrategyGraph, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidArgument, name)
}

// Options configures a Summarizer. Zero values select defaults.
type Options struct {
	Strategy Strategy
	// Profile is the relevance filter; nil selects filter.Default().
	Profile *filter.Profile
	// TitleWeight overrides the TF-IDF title bonus weight.
	TitleWeight float64
	// Damping overrides the TextRank damping factor.
	Damping float64
	// SkipOverflow continues past sentences that do not fit.
	SkipOverflow bool
}

// Summarizer runs the pipeline with fixed options. Safe for concurrent use.
type Summarizer struct {
	strategy     Strategy
	scorer       score.Scorer
	profile      filter.Profile
	skipOverflow bool
}

// New validates options and builds a Summarizer.
func New(opt Options) (*Summarizer, error) {
	strategy, err := ParseStrategy(string(opt.Strategy))
	if err != nil {
		return nil, err
	}
	if opt.TitleWeight < 0 {
		return nil, fmt.Errorf("%w: negative title weight", ErrInvalidArgument)
	}
	if opt.Damping < 0 || opt.Damping >= 1 {
		return nil, fmt.Errorf("%w: damping must be in [0,1)", ErrInvalidArgument)
	}
	s := &Summarizer{strategy: strategy, profile: filter.Default(), skipOverflow: opt.SkipOverflow}
	if opt.Profile != nil {
		s.profile = *opt.Profile
	}
	switch strategy {
	case StrategyGraph:
		s.scorer = score.Graph{Damping: opt.Damping}
	default:
		s.scorer = score.TFIDF{TitleWeight: opt.TitleWeight}
	}
	return s, nil
}

// Strategy returns the configured strategy.
func (s *Summarizer) Strategy() Strategy { return s.strategy }

// Result carries the summary and pipeline counts.
type Result struct {
	Summary  string
	Strategy Strategy
	// Total is the number of sentences after splitting.
	Total int
	// Kept is the number that passed the filter.
	Kept int
	// Selected is the number in the summary.
	Selected int
}

// Run executes the pipeline and reports counts alongside the summary.
func (s *Summarizer) Run(pageText, title string, maxLength int) (Result, error) {
	res := Result{Strategy: s.strategy}
	if maxLength <= 0 {
		return res, fmt.Errorf("%w: maxLength must be positive, got %d", ErrInvalidArgument, maxLength)
	}
	if !utf8.ValidString(pageText) || !utf8.ValidString(title) {
		return res, fmt.Errorf("%w: input is not valid UTF-8", ErrInvalidArgument)
	}

	sentences := sentence.Split(pageText)
	res.Total = len(sentences)
	if len(sentences) == 0 {
		return res, ErrNoContent
	}
	kept := filter.Filter(sentences, s.profile)
	res.Kept = len(kept)
	if len(kept) == 0 {
		return res, fmt.Errorf("%w: all %d sentences filtered", ErrNoContent, len(sentences))
	}

	scored := s.scorer.Score(kept, title)
	picked := selecter.Pick(scored, selecter.Options{MaxLength: maxLength, SkipOverflow: s.skipOverflow})
	res.Selected = len(picked)
	res.Summary = selecter.Join(picked)
	return res, nil
}

// Summarize returns the summary only.
func (s *Summarizer) Summarize(pageText, title string, maxLength int) (string, error) {
	res, err := s.Run(pageText, title, maxLength)
	if err != nil {
		return NoContent, err
	}
	return res.Summary, nil
}

var defaultSummarizer = func() *Summarizer {
	s, err := New(Options{})
	if err != nil {
		panic(err)
	}
	return s
}()

// Summarize runs the default pipeline (TF-IDF with the default profile).
func Summarize(pageText, title string, maxLength int) (string, error) {
	return defaultSummarizer.Summarize(pageText, title, maxLength)
}
