// Package filter drops boilerplate and low-signal sentences before scoring.
//
// Denylists are data: a Profile carries compiled patterns plus length
// thresholds, and profiles can be loaded from YAML so new locales do not
// require code changes.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/marksum/internal/sentence"
)

// DefaultMinChars is the minimum informative length. A sentence whose
// non-whitespace length is at or below it is dropped.
const DefaultMinChars = 10

// StrictMaxChars caps raw sentence length under the strict profile to drop
// mis-segmented run-on blocks.
const StrictMaxChars = 200

// Profile configures the relevance filter.
type Profile struct {
	Name     string
	Patterns []*regexp.Regexp
	// MinChars drops sentences whose length with whitespace removed is <= MinChars.
	MinChars int
	// MaxChars drops sentences whose raw length exceeds MaxChars. Zero disables.
	MaxChars int
}

// DefaultPatterns are the built-in boilerplate indicators in English, Korean
// and Japanese. They are matched case-insensitively against raw sentence text.
var DefaultPatterns = []string{
	// advertisement
	`\b(ads?|advert(isement)?s?|sponsored)\b`, `광고`, `広告`, `スポンサー`,
	// banner
	`\bbanners?\b`, `배너`, `バナー`,
	// related posts
	`\brelated\s+(posts?|articles?|stories|content)\b`, `관련\s*(글|기사|게시물)`, `関連記事`,
	// subscribe
	`\bsubscri(be|bers?|ption)\b`, `구독`, `購読`, `チャンネル登録`,
	// share
	`\bshare\b`, `공유`, `シェア`,
	// click here
	`\bclick\s+here\b`, `클릭`, `クリック`,
	// copyright
	`\bcopyright\b`, `©`, `\ball\s+rights\s+reserved\b`, `저작권`, `무단\s*전재`, `無断転載`, `著作権`,
	// terms of use
	`\bterms\s+(of\s+)?(use|service)\b`, `이용\s*약관`, `利用規約`,
	// privacy policy
	`\bprivacy\s+policy\b`, `개인정보\s*(처리|보호)\s*방침`, `プライバシーポリシー`,
	// follow us
	`\bfollow\s+us\b`, `팔로우`, `フォローして`,
}

// Compile turns raw denylist patterns into case-insensitive regexps.
func Compile(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

var defaultCompiled = mustCompile(DefaultPatterns)

func mustCompile(patterns []string) []*regexp.Regexp {
	res, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return res
}

// Default returns the default profile: built-in denylist, minimum length 10,
// no upper bound.
func Default() Profile {
	return Profile{Name: "default", Patterns: defaultCompiled, MinChars: DefaultMinChars}
}

// Strict returns the default profile with the 200 character upper bound.
func Strict() Profile {
	p := Default()
	p.Name = "strict"
	p.MaxChars = StrictMaxChars
	return p
}

// Builtin returns a built-in profile by name.
func Builtin(name string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default(), true
	case "strict":
		return Strict(), true
	}
	return Profile{}, false
}

// Filter returns the sentences that pass the profile, preserving relative
// order and original indices.
func Filter(sentences []sentence.Sentence, p Profile) []sentence.Sentence {
	out := make([]sentence.Sentence, 0, len(sentences))
	for _, s := range sentences {
		if Reject(s.Text, p) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Reject reports whether a single sentence should be dropped.
func Reject(text string, p Profile) bool {
	if nonSpaceLen(text) <= p.MinChars {
		return true
	}
	if p.MaxChars > 0 && utf8.RuneCountInString(text) > p.MaxChars {
		return true
	}
	for _, re := range p.Patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
