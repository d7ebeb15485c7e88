package bookmark

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TreeNode is a browser bookmark tree node as exported by the extension.
// Folders have Children and no URL. Dates are Unix milliseconds.
type TreeNode struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	URL               string     `json:"url,omitempty"`
	DateAdded         int64      `json:"dateAdded,omitempty"`
	DateGroupModified int64      `json:"dateGroupModified,omitempty"`
	Children          []TreeNode `json:"children,omitempty"`
}

// FromTree flattens a bookmark tree into uncategorized bookmarks with
// sequential ids starting at 0. Missing dates fall back to now.
func FromTree(nodes []TreeNode, now time.Time) []Bookmark {
	var out []Bookmark
	var walk func([]TreeNode)
	walk = func(list []TreeNode) {
		for _, n := range list {
			if n.URL != "" {
				title := strings.TrimSpace(n.Title)
				if title == "" {
					title = UntitledName
				}
				out = append(out, Bookmark{
					ID:         int64(len(out)),
					Title:      title,
					URL:        n.URL,
					CreatedAt:  Timestamp(msOr(n.DateAdded, now)),
					UpdatedAt:  Timestamp(msOr(n.DateGroupModified, now)),
					Favicon:    FaviconURL(n.URL),
					CategoryID: Uncategorized,
				})
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

func msOr(ms int64, fallback time.Time) time.Time {
	if ms <= 0 {
		return fallback
	}
	return time.UnixMilli(ms)
}

// DecodeList accepts either a JSON array of bookmarks or a JSON array of
// tree nodes, telling them apart by the presence of "children" or
// "dateAdded" keys.
func DecodeList(data []byte, now time.Time) ([]Bookmark, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	isTree := false
	for _, r := range raw {
		_, hasChildren := r["children"]
		_, hasDate := r["dateAdded"]
		if hasChildren || hasDate {
			isTree = true
			break
		}
	}
	if isTree {
		var nodes []TreeNode
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, fmt.Errorf("decode bookmark tree: %w", err)
		}
		return FromTree(nodes, now), nil
	}
	var list []Bookmark
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	return list, nil
}
