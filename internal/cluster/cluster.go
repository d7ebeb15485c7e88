// Package cluster talks to the bookmark clustering service and names the
// resulting groups.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Noise is the cluster label for items that belong to no group.
const Noise = -1

// MaxNamingSamples is how many items per cluster are sent for naming.
const MaxNamingSamples = 5

// DefaultTimeout bounds one clustering round trip.
const DefaultTimeout = 30 * time.Second

// ErrEmptyResponse indicates the service answered without usable data.
var ErrEmptyResponse = errors.New("empty clustering response")

// ID is a bookmark identifier that decodes from a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cluster id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Item is one bookmark sent for clustering.
type Item struct {
	ID      ID     `json:"id,omitempty"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Assignment is an item with its cluster label.
type Assignment struct {
	ID      ID     `json:"id,omitempty"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Cluster int    `json:"cluster"`
}

// Result is the clustering outcome. Categories maps the decimal cluster id
// to a display name and may be empty until named.
type Result struct {
	Assignments []Assignment      `json:"clusters"`
	Categories  map[string]string `json:"categories,omitempty"`
}

// Namer names clusters.
type Namer interface {
	NameCategories(ctx context.Context, assignments []Assignment) (map[string]string, error)
}

// Client calls the remote clustering service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Cluster posts items to /cluster/. Responses that omit ids are matched to
// the request by position.
func (c *Client) Cluster(ctx context.Context, items []Item) (Result, error) {
	if len(items) == 0 {
		return Result{}, nil
	}
	var res Result
	if err := c.post(ctx, "/cluster/", map[string]any{"items": items}, &res); err != nil {
		return Result{}, err
	}
	if len(res.Assignments) == 0 {
		return Result{}, ErrEmptyResponse
	}
	if len(res.Assignments) != len(items) {
		return Result{}, fmt.Errorf("cluster: got %d assignments for %d items", len(res.Assignments), len(items))
	}
	for i := range res.Assignments {
		if res.Assignments[i].ID == "" {
			res.Assignments[i].ID = items[i].ID
		}
	}
	return res, nil
}

type namingItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Cluster int    `json:"cluster"`
}

// NameCategories posts to /generate_category_titles. Noise is excluded and
// each cluster contributes at most MaxNamingSamples items.
func (c *Client) NameCategories(ctx context.Context, assignments []Assignment) (map[string]string, error) {
	groups := Group(assignments)
	if len(groups) == 0 {
		return map[string]string{}, nil
	}
	var items []namingItem
	for _, g := range groups {
		for _, a := range Sample(g.Items) {
			items = append(items, namingItem{Title: a.Title, Summary: a.Summary, Cluster: a.Cluster})
		}
	}
	var out struct {
		Categories map[string]string `json:"categories"`
	}
	if err := c.post(ctx, "/generate_category_titles", map[string]any{"items": items}, &out); err != nil {
		return nil, err
	}
	if len(out.Categories) == 0 {
		return nil, ErrEmptyResponse
	}
	for k, v := range out.Categories {
		out.Categories[k] = strings.TrimSpace(v)
	}
	return out.Categories, nil
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// ClusterGroup is the members of one non-noise cluster in input order.
type ClusterGroup struct {
	Cluster int
	Items   []Assignment
}

// Group collects non-noise assignments by cluster, ordered by cluster id.
func Group(assignments []Assignment) []ClusterGroup {
	byID := map[int][]Assignment{}
	for _, a := range assignments {
		if a.Cluster == Noise {
			continue
		}
		byID[a.Cluster] = append(byID[a.Cluster], a)
	}
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]ClusterGroup, 0, len(ids))
	for _, id := range ids {
		out = append(out, ClusterGroup{Cluster: id, Items: byID[id]})
	}
	return out
}

// Sample returns at most MaxNamingSamples items.
func Sample(items []Assignment) []Assignment {
	if len(items) > MaxNamingSamples {
		return items[:MaxNamingSamples]
	}
	return items
}

// Key is the category map key for a cluster id.
func Key(cluster int) string { return strconv.Itoa(cluster) }
