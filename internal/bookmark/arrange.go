package bookmark

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/marksum/internal/cluster"
)

// Clusterer assigns bookmarks to clusters.
type Clusterer interface {
	Cluster(ctx context.Context, items []cluster.Item) (cluster.Result, error)
}

// Arrange clusters bookmarks and names the clusters. The namer is used only
// when the clustering response carries no category names. The input slice is
// not modified.
func Arrange(ctx context.Context, bookmarks []Bookmark, c Clusterer, namer cluster.Namer) ([]Bookmark, error) {
	if len(bookmarks) == 0 {
		return nil, nil
	}
	items := make([]cluster.Item, len(bookmarks))
	for i, b := range bookmarks {
		items[i] = cluster.Item{ID: cluster.ID(b.Key()), Title: b.DisplayTitle(), Summary: b.Description}
	}
	res, err := c.Cluster(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	if len(res.Categories) == 0 && namer != nil {
		names, err := namer.NameCategories(ctx, res.Assignments)
		if err != nil {
			return nil, fmt.Errorf("name categories: %w", err)
		}
		res.Categories = names
	}
	log.Debug().Int("bookmarks", len(bookmarks)).Int("categories", len(res.Categories)).Msg("arranged bookmarks")
	return Apply(bookmarks, res), nil
}

// Apply copies bookmarks and sets their category from res. Assignments pair
// with bookmarks by position; a response of another length, or one reordered
// over unique ids, is matched by id instead. Noise and unmatched bookmarks stay
// uncategorized. A cluster without a name is labelled by number.
func Apply(bookmarks []Bookmark, res cluster.Result) []Bookmark {
	positional := pairsByPosition(bookmarks, res.Assignments)
	var byID map[string]cluster.Assignment
	if !positional {
		byID = make(map[string]cluster.Assignment, len(res.Assignments))
		for _, a := range res.Assignments {
			byID[string(a.ID)] = a
		}
	}
	out := make([]Bookmark, len(bookmarks))
	for i, b := range bookmarks {
		b.CategoryID, b.Category = Uncategorized, ""
		var a cluster.Assignment
		ok := false
		if positional {
			a, ok = res.Assignments[i], true
		} else {
			a, ok = byID[b.Key()]
		}
		if ok && a.Cluster != cluster.Noise {
			key := cluster.Key(a.Cluster)
			name := res.Categories[key]
			if name == "" {
				name = "Cluster " + strconv.Itoa(a.Cluster+1)
			}
			b.CategoryID, b.Category = key, name
		}
		out[i] = b
	}
	return out
}

// pairsByPosition reports whether assignments line up with bookmarks index
// by index. Ids only decide when they are unique and the order differs.
func pairsByPosition(bookmarks []Bookmark, assignments []cluster.Assignment) bool {
	if len(assignments) != len(bookmarks) {
		return false
	}
	seen := make(map[string]struct{}, len(bookmarks))
	inOrder := true
	for i, b := range bookmarks {
		k := b.Key()
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		if id := string(assignments[i].ID); id != "" && id != k {
			inOrder = false
		}
	}
	return inOrder
}

// Category is one node of the bookmark tree.
type Category struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Children []Bookmark `json:"children"`
}

// BuildTree groups bookmarks by category. Categories are ordered by numeric
// id; uncategorized bookmarks come last.
func BuildTree(bookmarks []Bookmark) []Category {
	index := map[string]int{}
	var tree []Category
	var rest []Bookmark
	for _, b := range bookmarks {
		if b.CategoryID == "" || b.CategoryID == Uncategorized {
			rest = append(rest, b)
			continue
		}
		i, ok := index[b.CategoryID]
		if !ok {
			i = len(tree)
			index[b.CategoryID] = i
			tree = append(tree, Category{ID: b.CategoryID, Name: b.Category})
		}
		tree[i].Children = append(tree[i].Children, b)
	}
	sort.SliceStable(tree, func(i, j int) bool { return lessID(tree[i].ID, tree[j].ID) })
	if len(rest) > 0 {
		tree = append(tree, Category{ID: Uncategorized, Name: UncategorizedName, Children: rest})
	}
	return tree
}

func lessID(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
