package bookmark

import (
	"sort"
	"time"
)

// CategoryCount is one entry of Stats.Distribution.
type CategoryCount struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Count        int    `json:"count"`
}

// Stats summarizes a bookmark collection.
type Stats struct {
	TotalBookmarks  int             `json:"totalBookmarks"`
	CategoriesCount int             `json:"categoriesCount"`
	Distribution    []CategoryCount `json:"categoryDistribution"`
	MostVisited     []Bookmark      `json:"mostVisited"`
	RecentlyAdded   []Bookmark      `json:"recentlyAdded"`
}

const statsTop = 5

// ComputeStats reports totals, the per-category distribution and the top
// five most visited and most recently added bookmarks.
func ComputeStats(bookmarks []Bookmark) Stats {
	tree := BuildTree(bookmarks)
	s := Stats{TotalBookmarks: len(bookmarks)}
	for _, c := range tree {
		if c.ID != Uncategorized {
			s.CategoriesCount++
		}
		s.Distribution = append(s.Distribution, CategoryCount{CategoryID: c.ID, CategoryName: c.Name, Count: len(c.Children)})
	}

	visited := append([]Bookmark(nil), bookmarks...)
	sort.SliceStable(visited, func(i, j int) bool { return visited[i].VisitCount > visited[j].VisitCount })
	s.MostVisited = top(visited)

	recent := append([]Bookmark(nil), bookmarks...)
	sort.SliceStable(recent, func(i, j int) bool { return created(recent[i]).After(created(recent[j])) })
	s.RecentlyAdded = top(recent)
	return s
}

func top(b []Bookmark) []Bookmark {
	if len(b) > statsTop {
		return b[:statsTop]
	}
	return b
}

func created(b Bookmark) time.Time {
	t, err := time.Parse(time.RFC3339, b.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
