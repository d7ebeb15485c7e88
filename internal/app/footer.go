package app

import (
	"strconv"
	"strings"
)

// appendDigestFooter records the settings that produced a digest so it can
// be reproduced.
func appendDigestFooter(markdown, strategy string, maxLength int, model string, bookmarks int, titleCache bool) string {
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n---\n")
	b.WriteString("Generated by marksum ")
	b.WriteString(BuildVersion)
	b.WriteString(": strategy=")
	b.WriteString(strings.TrimSpace(strategy))
	b.WriteString("; max_length=")
	b.WriteString(strconv.Itoa(maxLength))
	b.WriteString("; model=")
	b.WriteString(strings.TrimSpace(model))
	b.WriteString("; bookmarks=")
	b.WriteString(strconv.Itoa(bookmarks))
	b.WriteString("; title_cache=")
	b.WriteString(strconv.FormatBool(titleCache))
	b.WriteString("\n")
	return b.String()
}
