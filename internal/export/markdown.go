// Package export renders arranged bookmarks as a Markdown digest or PDF.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hyperifyio/marksum/internal/bookmark"
)

// DefaultTitle heads a digest when none is given.
const DefaultTitle = "Bookmarks"

// Markdown writes the category tree as a Markdown digest: one second level
// heading per category, one list item per bookmark with its summary below.
func Markdown(w io.Writer, title string, tree []bookmark.Category) error {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", escape(title))
	for _, c := range tree {
		name := c.Name
		if name == "" {
			name = "Category " + c.ID
		}
		fmt.Fprintf(bw, "\n## %s (%d)\n\n", escape(name), len(c.Children))
		for _, b := range c.Children {
			fmt.Fprintf(bw, "- [%s](%s)\n", escape(b.DisplayTitle()), b.URL)
			if d := strings.TrimSpace(b.Description); d != "" {
				fmt.Fprintf(bw, "  %s\n", oneLine(d))
			}
		}
	}
	return bw.Flush()
}

// MarkdownString is Markdown into a string.
func MarkdownString(title string, tree []bookmark.Category) string {
	var sb strings.Builder
	_ = Markdown(&sb, title, tree)
	return sb.String()
}

var mdEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

func escape(s string) string { return mdEscaper.Replace(oneLine(s)) }

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
