package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/marksum/internal/bookmark"
)

func sampleTree() []bookmark.Category {
	return bookmark.BuildTree([]bookmark.Bookmark{
		{ID: 1, Title: "Go tour", GeneratedTitle: "Learn [Go]", URL: "https://go.dev/tour", Description: "Go is a language.\nIt compiles fast.", CategoryID: "0", Category: "Programming"},
		{ID: 2, Title: "Misc", URL: "https://example.com/", CategoryID: bookmark.Uncategorized},
	})
}

func TestMarkdown(t *testing.T) {
	got := MarkdownString("", sampleTree())
	want := "# Bookmarks\n" +
		"\n## Programming (1)\n\n" +
		"- [Learn \\[Go\\]](https://go.dev/tour)\n" +
		"  Go is a language. It compiles fast.\n" +
		"\n## Uncategorized (1)\n\n" +
		"- [Misc](https://example.com/)\n"
	if got != want {
		t.Fatalf("markdown mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestWritePDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "digest.pdf")
	if err := WritePDF(MarkdownString("My links", sampleTree()), out, PDFOptions{}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", data[:8])
	}
	if !strings.Contains(string(data), "https://go.dev/tour") {
		t.Fatal("expected link annotation in pdf")
	}
}

func TestWritePDF_MissingFont(t *testing.T) {
	out := filepath.Join(t.TempDir(), "digest.pdf")
	err := WritePDF("# x\n", out, PDFOptions{FontPath: filepath.Join(t.TempDir(), "missing.ttf")})
	if err == nil {
		t.Fatal("expected error for missing font")
	}
}
