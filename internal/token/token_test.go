package token

import (
	"reflect"
	"testing"
)

func TestTokenize_LowercasesAndDropsShortWords(t *testing.T) {
	got := Tokenize("The Quick, brown FOX; a b jumps!")
	want := []string{"the", "quick", "brown", "fox", "jumps"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTokenize_NonLatinScripts(t *testing.T) {
	got := Tokenize("서울 지하철 노선, 東京 の 電車。")
	want := []string{"서울", "지하철", "노선", "東京", "電車"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTokenize_NormalizesFullWidth(t *testing.T) {
	// full-width Latin folds to ASCII under NFKC
	got := Tokenize("ＧＯＬＡＮＧ 2024")
	want := []string{"golang", "2024"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Fatalf("expected no tokens, got %q", got)
	}
	if got := Tokenize("!!! ... ?"); len(got) != 0 {
		t.Fatalf("expected no tokens, got %q", got)
	}
}

func TestNewBag_KeepsFirstOccurrenceOrder(t *testing.T) {
	b := NewBag([]string{"dog", "fox", "dog", "cat"})
	if !reflect.DeepEqual(b.Terms, []string{"dog", "fox", "cat"}) {
		t.Fatalf("terms order: %q", b.Terms)
	}
	if b.Counts["dog"] != 2 || b.Counts["fox"] != 1 {
		t.Fatalf("counts: %v", b.Counts)
	}
}
