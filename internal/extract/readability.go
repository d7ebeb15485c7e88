package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noisySelector lists nodes removed before scoring candidates.
const noisySelector = "script, style, noscript, nav, header, footer, aside, form, button, iframe, svg, template"

// minReadableRunes is the paragraph text a candidate needs before it wins
// over the heuristic extractor.
const minReadableRunes = 140

// ReadabilityExtractor picks the block container holding the most paragraph
// text, in the spirit of Mozilla Readability. Pages where no container
// reaches a useful amount of text fall back to FromHTML.
type ReadabilityExtractor struct{}

// Extract implements Extractor.
func (ReadabilityExtractor) Extract(input []byte) Document {
	base := FromHTML(input)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return base
	}

	doc.Find(noisySelector).Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})
	doc.Find("[id], [class], [role]").Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) > 0 && isBoilerplateContainer(s.Nodes[0]) {
			s.Remove()
		}
	})

	// Score every paragraph parent by the text of its direct paragraphs.
	// Candidates keep document order so ties resolve to the earliest one.
	var order []*html.Node
	scores := map[*html.Node]int{}
	parents := map[*html.Node]*goquery.Selection{}
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		n := utf8.RuneCountInString(text)
		if n < 25 {
			return
		}
		parent := p.Parent()
		if parent.Length() == 0 {
			return
		}
		key := parent.Nodes[0]
		if _, ok := parents[key]; !ok {
			parents[key] = parent
			order = append(order, key)
		}
		scores[key] += n + strings.Count(text, ",")*10
	})

	var best *goquery.Selection
	bestScore := 0
	for _, key := range order {
		if scores[key] > bestScore {
			best, bestScore = parents[key], scores[key]
		}
	}
	if best == nil || bestScore < minReadableRunes {
		return base
	}

	var b strings.Builder
	best.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		// nested blocks are emitted by their innermost block only
		if s.Find("p, li, pre, blockquote").Length() > 0 {
			return
		}
		b.WriteString(strings.TrimSpace(s.Text()))
		b.WriteString("\n\n")
	})
	text := normalizeWhitespace(b.String())
	if text == "" {
		return base
	}
	out := base
	out.Text = text
	if out.Title == "" {
		out.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return out
}
