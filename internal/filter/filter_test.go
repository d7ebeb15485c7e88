package filter

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperifyio/marksum/internal/sentence"
)

func TestFilter_DropsAdsAndShortSentences(t *testing.T) {
	in := sentence.Split("This is an ad. Buy now! The quick brown fox jumps over the lazy dog. The dog barks loudly at night.")
	got := Filter(in, Default())
	if len(got) != 2 {
		t.Fatalf("expected 2 survivors, got %q", sentence.Texts(got))
	}
	if got[0].Index != 2 || got[1].Index != 3 {
		t.Fatalf("original indices not preserved: %+v", got)
	}
}

func TestFilter_MinCharsIgnoresWhitespace(t *testing.T) {
	p := Profile{MinChars: 10}
	// 10 non-space characters: rejected (<= 10)
	if !Reject("abcde fghij", p) {
		t.Fatal("expected 10 non-space characters to be rejected")
	}
	if Reject("abcde fghijk", p) {
		t.Fatal("expected 11 non-space characters to pass")
	}
}

func TestFilter_Multilingual(t *testing.T) {
	cases := []string{
		"이 기사는 광고를 포함하고 있습니다.",
		"채널을 구독하고 알림 설정을 해주세요.",
		"この記事をシェアしてください、お願いします。",
		"Copyright 2024 Example Media Group.",
		"Read our Privacy Policy before continuing.",
		"Please FOLLOW US on every network today.",
		"関連記事はこちらから読むことができます。",
	}
	for _, c := range cases {
		if !Reject(c, Default()) {
			t.Errorf("expected %q to be rejected", c)
		}
	}
	if Reject("서울의 지하철 노선이 내년에 확장될 예정입니다.", Default()) {
		t.Error("plain Korean sentence should pass")
	}
}

func TestFilter_WordBoundaries(t *testing.T) {
	// "shared" and "loads" must not trip the share/ads patterns
	if Reject("The team shared results after the loads were balanced.", Default()) {
		t.Fatal("word-boundary patterns matched inside words")
	}
}

func TestStrict_RejectsRunOnBlocks(t *testing.T) {
	long := ""
	for len(long) < 250 {
		long += "lorem ipsum dolor "
	}
	if Reject(long, Default()) {
		t.Fatal("default profile has no upper bound")
	}
	if !Reject(long, Strict()) {
		t.Fatal("strict profile should reject sentences over 200 characters")
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	data := "profiles:\n" +
		"  Docs:\n" +
		"    include_defaults: true\n" +
		"    min_chars: 5\n" +
		"    max_chars: 120\n" +
		"    patterns: [\"edit this page\"]\n" +
		"  bare:\n" +
		"    patterns: [\"cookie\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	profiles, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	docs, err := Resolve("docs", profiles)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if docs.MinChars != 5 || docs.MaxChars != 120 {
		t.Fatalf("bounds not applied: %+v", docs)
	}
	if len(docs.Patterns) != len(DefaultPatterns)+1 {
		t.Fatalf("expected defaults plus one pattern, got %d", len(docs.Patterns))
	}
	if !Reject("Edit This Page on the repository host.", docs) {
		t.Fatal("custom pattern should match case-insensitively")
	}
	bare := profiles["bare"]
	if bare.MinChars != DefaultMinChars {
		t.Fatalf("omitted min_chars should default, got %d", bare.MinChars)
	}
	if Reject("This advertisement text is not in the bare profile.", bare) {
		t.Fatal("bare profile should not include defaults")
	}
}

func TestParseProfiles_BadPattern(t *testing.T) {
	if _, err := ParseProfiles([]byte("profiles:\n  x:\n    patterns: [\"(\"]\n")); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestResolve_Builtins(t *testing.T) {
	for _, name := range []string{"", "default", "STRICT"} {
		if _, err := Resolve(name, nil); err != nil {
			t.Fatalf("resolve %q: %v", name, err)
		}
	}
	if _, err := Resolve("nope", nil); err == nil {
		t.Fatal("expected unknown profile error")
	}
	got, _ := Resolve("strict", nil)
	if !reflect.DeepEqual(got.Patterns, Default().Patterns) {
		t.Fatal("strict should share the default denylist")
	}
}
