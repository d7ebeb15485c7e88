package summarize

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperifyio/marksum/internal/filter"
)

const scenario = "This is an ad. Buy now! The quick brown fox jumps over the lazy dog. The dog barks loudly at night."

const article = "Go modules record dependency versions in a go.mod file. " +
	"The go command resolves module versions using minimal version selection. " +
	"Minimal version selection picks the oldest version that satisfies every requirement. " +
	"Subscribe to our newsletter for more Go tips. " +
	"Vendoring copies module sources into the repository for hermetic builds. " +
	"The checksum database protects module downloads from tampering."

func TestSummarize_Scenario(t *testing.T) {
	got, err := Summarize(scenario, "fox dog", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The quick brown fox jumps over the lazy dog." {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestSummarize_ScenarioLargerBudgetTakesBoth(t *testing.T) {
	got, err := Summarize(scenario, "fox dog", 300)
	if err != nil {
		t.Fatal(err)
	}
	want := "The quick brown fox jumps over the lazy dog. The dog barks loudly at night."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSummarize_Deterministic(t *testing.T) {
	for _, strategy := range []Strategy{StrategyTFIDF, StrategyGraph} {
		s, err := New(Options{Strategy: strategy})
		if err != nil {
			t.Fatal(err)
		}
		first, err := s.Summarize(article, "Go module versions", 200)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 50; i++ {
			again, _ := s.Summarize(article, "Go module versions", 200)
			if again != first {
				t.Fatalf("%s: run %d differs: %q vs %q", strategy, i, again, first)
			}
		}
	}
}

func TestSummarize_BudgetRespected(t *testing.T) {
	for _, budget := range []int{1, 20, 60, 100, 150, 300, 500, 1000} {
		for _, strategy := range []Strategy{StrategyTFIDF, StrategyGraph} {
			s, _ := New(Options{Strategy: strategy})
			got, err := s.Summarize(article, "modules", budget)
			if err != nil {
				t.Fatalf("budget %d: %v", budget, err)
			}
			if n := utf8.RuneCountInString(got); n > budget {
				t.Fatalf("%s budget %d exceeded: %d", strategy, budget, n)
			}
		}
	}
}

func TestSummarize_FilteredSentencesNeverAppear(t *testing.T) {
	got, err := Summarize(article, "newsletter tips", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "Subscribe") {
		t.Fatalf("denylisted sentence leaked into summary: %q", got)
	}
}

func TestSummarize_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t  "} {
		got, err := Summarize(in, "Title", 300)
		if !errors.Is(err, ErrNoContent) {
			t.Fatalf("expected ErrNoContent, got %v", err)
		}
		if got != NoContent {
			t.Fatalf("expected NoContent sentinel, got %q", got)
		}
	}
}

func TestSummarize_EverythingFiltered(t *testing.T) {
	_, err := Summarize("Buy now! Click here to subscribe. Share this.", "", 300)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestSummarize_SingleSentence(t *testing.T) {
	in := "Static site generators render markdown into html pages"
	got, err := Summarize(in, "", 300)
	if err != nil {
		t.Fatal(err)
	}
	if got != in {
		t.Fatalf("single sentence should be returned whole, got %q", got)
	}
	got, err = Summarize(in, "", 10)
	if err != nil || got != "" {
		t.Fatalf("too-long single sentence should yield empty summary, got %q, %v", got, err)
	}
}

func TestSummarize_InvalidArguments(t *testing.T) {
	if _, err := Summarize(article, "", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("maxLength 0: %v", err)
	}
	if _, err := Summarize(article, "", -5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative maxLength: %v", err)
	}
	if _, err := Summarize("bad \xff bytes in text here.", "", 100); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("invalid UTF-8: %v", err)
	}
	if _, err := New(Options{Strategy: "lexrank"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown strategy: %v", err)
	}
	if _, err := New(Options{Damping: 1.5}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad damping: %v", err)
	}
}

func TestSummarize_TitleSteersTFIDF(t *testing.T) {
	text := "Solar panels convert sunlight into electricity efficiently. " +
		"Tomato plants need deep watering during hot summers. " +
		"Battery storage smooths the output of rooftop installations."
	got, err := Summarize(text, "tomato plants watering", 60)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Tomato plants need deep watering during hot summers." {
		t.Fatalf("title should steer selection, got %q", got)
	}
}

func TestSummarize_GraphPrefersCentralSentences(t *testing.T) {
	text := "The cat drinks fresh milk every morning. " +
		"The cat likes fresh milk after dinner. " +
		"Quarterly revenue grew strongly overall."
	s, _ := New(Options{Strategy: StrategyGraph})
	res, err := s.Run(text, "Quarterly revenue", 45)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary != "The cat drinks fresh milk every morning." {
		t.Fatalf("graph should ignore title and pick central sentence, got %q", res.Summary)
	}
	if res.Total != 3 || res.Kept != 3 || res.Selected != 1 || res.Strategy != StrategyGraph {
		t.Fatalf("unexpected counts: %+v", res)
	}
}

func TestSummarize_CustomProfile(t *testing.T) {
	p := filter.Default()
	p.MinChars = 0
	s, _ := New(Options{Profile: &p})
	got, err := s.Summarize("Short one. Tiny.", "", 100)
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Fatal("relaxed profile should keep short sentences")
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": StrategyTFIDF, "TFIDF": StrategyTFIDF, "graph": StrategyGraph, "textrank": StrategyGraph} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Fatalf("ParseStrategy(%q) = %q, %v", in, got, err)
		}
	}
}
