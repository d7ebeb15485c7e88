package export

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF rendering.
type PDFOptions struct {
	// FontPath is a UTF-8 TrueType font. Without it the core Helvetica font
	// is used and text outside cp1252 is replaced.
	FontPath string
}

var linkRe = regexp.MustCompile(`\[((?:\\.|[^\]])+)\]\(([^)]+)\)`)

// WritePDF renders a Markdown digest to outPath. Headings get a bold font and
// links stay clickable; other Markdown is written as plain text.
func WritePDF(markdown, outPath string, opt PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opt.FontPath != "" {
		family = "body"
		pdf.AddUTF8Font(family, "", opt.FontPath)
		pdf.AddUTF8Font(family, "B", opt.FontPath)
		tr = func(s string) string { return s }
	}
	pdf.SetFont(family, "", 11)
	pdf.AddPage()

	sc := bufio.NewScanner(strings.NewReader(markdown))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			pdf.Ln(4)
			continue
		}
		if strings.HasPrefix(s, "#") {
			level := 0
			for level < len(s) && s[level] == '#' {
				level++
			}
			text := unescape(strings.TrimSpace(s[level:]))
			if text == "" {
				continue
			}
			size := 16.0
			if level >= 2 {
				size = 13.0
			}
			pdf.SetFont(family, "B", size)
			pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
			pdf.SetFont(family, "", 11)
			continue
		}
		s = strings.TrimPrefix(s, "- ")
		parts := linkRe.FindAllStringSubmatchIndex(s, -1)
		if len(parts) == 0 {
			pdf.MultiCell(0, 5, tr(unescape(s)), "", "L", false)
			continue
		}
		pos := 0
		for _, m := range parts {
			if m[0] > pos {
				pdf.Write(5, tr(unescape(s[pos:m[0]])))
			}
			pdf.WriteLinkString(5, tr(unescape(s[m[2]:m[3]])), s[m[4]:m[5]])
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, tr(unescape(s[pos:])))
		}
		pdf.Ln(6)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}

var mdUnescaper = strings.NewReplacer(`\[`, "[", `\]`, "]")

func unescape(s string) string { return mdUnescaper.Replace(s) }
