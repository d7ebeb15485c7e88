// Package bookmark turns pages into bookmark records and arranges them into
// categories.
package bookmark

import (
	"net/url"
	"strconv"
	"time"
)

// Uncategorized is the CategoryID of bookmarks outside every cluster.
const Uncategorized = "-1"

// UncategorizedName labels the uncategorized group in trees and exports.
const UncategorizedName = "Uncategorized"

// UntitledName replaces empty titles on import.
const UntitledName = "Untitled"

// Bookmark is the record shared with the browser extension.
type Bookmark struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	GeneratedTitle string `json:"generatedTitle,omitempty"`
	URL            string `json:"url"`
	// Description holds the extractive summary; empty when none was made.
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	VisitCount  int    `json:"visitCount"`
	Favicon     string `json:"favicon,omitempty"`
	CategoryID  string `json:"categoryId,omitempty"`
	Category    string `json:"category,omitempty"`
}

// DisplayTitle prefers the generated title.
func (b Bookmark) DisplayTitle() string {
	if b.GeneratedTitle != "" {
		return b.GeneratedTitle
	}
	if b.Title != "" {
		return b.Title
	}
	return b.URL
}

// Key is the bookmark id as sent to the clustering service.
func (b Bookmark) Key() string { return strconv.FormatInt(b.ID, 10) }

// FaviconURL returns the favicon service URL for a page.
func FaviconURL(pageURL string) string {
	return "https://www.google.com/s2/favicons?sz=64&domain_url=" + url.QueryEscape(pageURL)
}

// Timestamp formats t the way the extension stores dates.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
