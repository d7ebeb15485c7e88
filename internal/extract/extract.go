package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Document is the readable content of a bookmarked page.
type Document struct {
	Title string
	// Description is the page's meta description, if any.
	Description string
	// Lang is the <html lang> attribute, lowercased.
	Lang string
	// Text is block-separated readable text. Blocks end with newlines so the
	// sentence splitter can fall back to them when punctuation is missing.
	Text string
}

// FromHTML extracts readable text from HTML, preferring <main> or <article>,
// falling back to <body>. It keeps headings, paragraphs, list items and
// pre/code blocks, and skips page chrome such as <nav>, <footer>, forms and
// containers that look like consent, share or newsletter widgets.
func FromHTML(input []byte) Document {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Document{}
	}

	doc := Document{
		Title:       strings.TrimSpace(findTitle(node)),
		Description: strings.TrimSpace(findMeta(node, "description")),
	}
	if root := findFirst(node, "html"); root != nil {
		doc.Lang = strings.ToLower(attr(root, "lang"))
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSpace(findMeta(node, "og:title"))
	}

	content := findFirst(node, "main")
	if content == nil {
		content = findFirst(node, "article")
	}
	if content == nil {
		content = findFirst(node, "body")
	}
	var b strings.Builder
	if content != nil {
		collectText(&b, content, false)
	}
	doc.Text = normalizeWhitespace(b.String())
	return doc
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

// findMeta returns the content of <meta name=key> or <meta property=key>.
func findMeta(n *html.Node, key string) string {
	var out string
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if out != "" {
			return
		}
		if cur.Type == html.ElementNode && cur.Data == "meta" {
			name := strings.ToLower(attr(cur, "name"))
			prop := strings.ToLower(attr(cur, "property"))
			if name == key || prop == key {
				out = attr(cur, "content")
				return
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		if isBoilerplateContainer(n) {
			return
		}
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "form", "button", "svg", "template":
			return
		case "pre", "code":
			inPre = true
		case "br", "hr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "blockquote", "figcaption", "tr":
			b.WriteString("\n")
		}
	}

	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.NewReplacer("\t", " ", "\r", " ").Replace(data)
		}
		b.WriteString(data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}

	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
			b.WriteString("\n\n")
		case "li", "tr", "figcaption":
			b.WriteString("\n")
		case "pre", "code":
			b.WriteString("\n")
		}
	}
}

// boilerplateMarkers are id/class/role fragments of widgets that never carry
// article text.
var boilerplateMarkers = []string{
	"cookie", "consent", "gdpr",
	"newsletter", "subscribe", "share", "social",
	"related", "advert", "sponsor", "promo", "banner",
	"comments", "breadcrumb", "sidebar",
}

// isBoilerplateContainer reports whether an element looks like a consent
// banner, share bar, ad slot or similar widget.
func isBoilerplateContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" && !strings.HasPrefix(key, "data-") {
			continue
		}
		if key == "role" && strings.EqualFold(a.Val, "banner") {
			return true
		}
		if containsAny(strings.ToLower(a.Val), boilerplateMarkers) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// normalizeWhitespace collapses runs of spaces inside lines and keeps at most
// one blank line between blocks.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		collapsed := strings.Join(strings.Fields(line), " ")
		if collapsed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, collapsed)
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
