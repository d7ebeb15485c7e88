package selecter

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/marksum/internal/score"
)

// Separator joins selected sentences and counts toward the budget.
const Separator = " "

// Options configures selection constraints.
type Options struct {
	// MaxLength is the summary budget in characters (code points).
	MaxLength int
	// SkipOverflow keeps walking past a sentence that does not fit and tries
	// shorter, lower-scored ones. The default stops at the first overflow.
	SkipOverflow bool
}

// Rank returns a copy of scored ordered by score descending, ties broken by
// ascending original index.
func Rank(scored []score.Scored) []score.Scored {
	sorted := make([]score.Scored, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Index < sorted[j].Index
	})
	return sorted
}

// Pick walks the ranked sentences and accepts each one while the joined
// length stays within opt.MaxLength.
func Pick(scored []score.Scored, opt Options) []score.Scored {
	if opt.MaxLength <= 0 {
		return nil
	}
	out := make([]score.Scored, 0, len(scored))
	used := 0
	for _, s := range Rank(scored) {
		n := utf8.RuneCountInString(s.Text)
		if len(out) > 0 {
			n += utf8.RuneCountInString(Separator)
		}
		if used+n > opt.MaxLength {
			if opt.SkipOverflow {
				continue
			}
			break
		}
		out = append(out, s)
		used += n
	}
	return out
}

// Join concatenates picked sentences in pick order.
func Join(picked []score.Scored) string {
	parts := make([]string, len(picked))
	for i, s := range picked {
		parts[i] = s.Text
	}
	return strings.TrimRightFunc(strings.Join(parts, Separator), isSpace)
}

// Select builds the summary with the default stop-at-first-overflow policy.
func Select(scored []score.Scored, maxLength int) string {
	return Join(Pick(scored, Options{MaxLength: maxLength}))
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
