package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hyperifyio/marksum/internal/bookmark"
)

// manifestEntry records how one batch page was processed.
type manifestEntry struct {
	Index        int    `json:"index"`
	URL          string `json:"url"`
	SHA256       string `json:"sha256,omitempty"`
	Chars        int    `json:"chars"`
	Success      bool   `json:"success"`
	Step         string `json:"step"`
	SummaryRunes int    `json:"summary_runes"`
	Error        string `json:"error,omitempty"`
}

// manifestMeta captures run settings.
type manifestMeta struct {
	Strategy    string    `json:"strategy"`
	MaxLength   int       `json:"max_length"`
	Model       string    `json:"model,omitempty"`
	Pages       int       `json:"pages"`
	Succeeded   int       `json:"succeeded"`
	GeneratedAt time.Time `json:"generated_at"`
}

func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// buildManifestEntries pairs each input page with its result. The digest
// covers the supplied content; fetched pages carry none.
func buildManifestEntries(pages []bookmark.Page, results []bookmark.Result) []manifestEntry {
	out := make([]manifestEntry, 0, len(pages))
	for i, p := range pages {
		content := strings.TrimSpace(p.Content)
		e := manifestEntry{Index: i + 1, URL: strings.TrimSpace(p.URL), Chars: utf8.RuneCountInString(content)}
		if content != "" {
			e.SHA256 = computeSHA256Hex(content)
		}
		if i < len(results) {
			r := results[i]
			e.Success, e.Step = r.Success, r.Step
			if r.Data != nil {
				e.SummaryRunes = utf8.RuneCountInString(r.Data.Description)
			}
			if r.Err != nil {
				e.Error = r.Err.Error()
			}
		}
		out = append(out, e)
	}
	return out
}

func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta  manifestMeta    `json:"meta"`
		Pages []manifestEntry `json:"pages"`
	}{Meta: meta, Pages: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
