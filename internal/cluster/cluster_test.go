package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/marksum/internal/cache"
)

func TestID_DecodesNumberOrString(t *testing.T) {
	var v struct{ A, B ID }
	if err := json.Unmarshal([]byte(`{"A": 7, "B": "x-1"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != "7" || v.B != "x-1" {
		t.Fatalf("got %+v", v)
	}
}

func TestClient_Cluster_MatchesByPositionWithoutIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cluster/" {
			http.NotFound(w, r)
			return
		}
		var in struct{ Items []Item }
		_ = json.NewDecoder(r.Body).Decode(&in)
		out := []map[string]any{}
		for i, it := range in.Items {
			out = append(out, map[string]any{"title": it.Title, "summary": it.Summary, "cluster": i % 2})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"clusters": out})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	res, err := c.Cluster(context.Background(), []Item{{ID: "10", Title: "a"}, {ID: "11", Title: "b"}, {ID: "12", Title: "c"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Assignments) != 3 || res.Assignments[1].ID != "11" || res.Assignments[1].Cluster != 1 {
		t.Fatalf("unexpected assignments: %+v", res.Assignments)
	}
}

func TestClient_Cluster_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"clusters": []}`))
	}))
	defer srv.Close()
	c := &Client{BaseURL: srv.URL}
	if _, err := c.Cluster(context.Background(), []Item{{Title: "a"}}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if res, err := c.Cluster(context.Background(), nil); err != nil || len(res.Assignments) != 0 {
		t.Fatal("empty input should not call out")
	}
}

func TestClient_NameCategories_SamplesAndSkipsNoise(t *testing.T) {
	sent := make(chan []namingItem, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate_category_titles" {
			http.NotFound(w, r)
			return
		}
		var in struct{ Items []namingItem }
		_ = json.NewDecoder(r.Body).Decode(&in)
		sent <- in.Items
		_ = json.NewEncoder(w).Encode(map[string]any{"categories": map[string]string{"0": " Programming ", "1": "Cooking"}})
	}))
	defer srv.Close()

	var as []Assignment
	for i := 0; i < 7; i++ {
		as = append(as, Assignment{Title: "go", Cluster: 0})
	}
	as = append(as, Assignment{Title: "pasta", Cluster: 1}, Assignment{Title: "lonely", Cluster: Noise})

	c := &Client{BaseURL: srv.URL}
	names, err := c.NameCategories(context.Background(), as)
	if err != nil {
		t.Fatal(err)
	}
	if names["0"] != "Programming" || names["1"] != "Cooking" {
		t.Fatalf("unexpected names %v", names)
	}
	got := <-sent
	if len(got) != MaxNamingSamples+1 {
		t.Fatalf("expected %d items sent, got %d", MaxNamingSamples+1, len(got))
	}
	for _, it := range got {
		if it.Cluster == Noise {
			t.Fatal("noise must not be sent for naming")
		}
	}
}

func TestGroup_OrderedAndNoiseFree(t *testing.T) {
	gs := Group([]Assignment{{Cluster: 2}, {Cluster: Noise}, {Cluster: 0}, {Cluster: 2}})
	if len(gs) != 2 || gs[0].Cluster != 0 || gs[1].Cluster != 2 || len(gs[1].Items) != 2 {
		t.Fatalf("unexpected groups %+v", gs)
	}
}

type namingClient struct {
	calls   int
	prompts []string
}

func (f *namingClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.prompts = append(f.prompts, req.Messages[1].Content)
	name := "Misc"
	if strings.Contains(req.Messages[1].Content, "pasta") {
		name = "\"Cooking\"\nbecause..."
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: name}}}}, nil
}

func TestLLMNamer(t *testing.T) {
	fc := &namingClient{}
	n := &LLMNamer{Client: fc, Model: "tiny", Cache: &cache.TitleCache{Dir: t.TempDir()}}
	as := []Assignment{
		{Title: "pasta", Summary: "boil water", Cluster: 3},
		{Title: "risotto", Summary: "stir often", Cluster: 3},
		{Title: "noise", Summary: "x", Cluster: Noise},
	}
	names, err := n.NameCategories(context.Background(), as)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names["3"] != "Cooking" {
		t.Fatalf("unexpected names %v", names)
	}
	if !strings.Contains(fc.prompts[0], "pasta: boil water") || strings.Contains(fc.prompts[0], "noise") {
		t.Fatalf("unexpected prompt %q", fc.prompts[0])
	}
	if _, err := n.NameCategories(context.Background(), as); err != nil {
		t.Fatal(err)
	}
	if fc.calls != 1 {
		t.Fatalf("second run should hit cache, got %d calls", fc.calls)
	}
}
