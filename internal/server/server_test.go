package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperifyio/marksum/internal/bookmark"
	"github.com/hyperifyio/marksum/internal/cluster"
	"github.com/hyperifyio/marksum/internal/metrics"
	"github.com/hyperifyio/marksum/internal/summarize"
	"github.com/hyperifyio/marksum/internal/titler"
)

const article = "The quick brown fox jumps over the lazy dog. " +
	"A fox is a small omnivorous mammal. " +
	"Click here to subscribe to our newsletter. " +
	"Dogs are loyal companions to humans."

const scenario = "This is an ad. Buy now! The quick brown fox jumps over the lazy dog. The dog barks loudly at night."

type fixedTitles struct {
	title string
	err   error
}

func (f fixedTitles) Generate(context.Context, string) (string, error) { return f.title, f.err }

type fixedClusterer struct {
	res cluster.Result
	err error
}

func (f fixedClusterer) Cluster(context.Context, []cluster.Item) (cluster.Result, error) {
	return f.res, f.err
}

func newTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	tfidf, err := summarize.New(summarize.Options{Strategy: summarize.StrategyTFIDF})
	if err != nil {
		t.Fatal(err)
	}
	graph, err := summarize.New(summarize.Options{Strategy: summarize.StrategyGraph})
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	titles := fixedTitles{title: "Foxes and Dogs"}
	return &Server{
		Summarizers:     map[summarize.Strategy]*summarize.Summarizer{summarize.StrategyTFIDF: tfidf, summarize.StrategyGraph: graph},
		DefaultStrategy: summarize.StrategyTFIDF,
		Processor: &bookmark.Processor{
			Summarizer: tfidf,
			Titles:     titles,
			Now:        func() time.Time { return time.Unix(1700000000, 0) },
		},
		Titles:   titles,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	}, reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSummarize(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/v1/summarize", `{"text":"`+scenario+`","title":"fox dog","maxLength":60}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var got summarizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Summary != "The quick brown fox jumps over the lazy dog." {
		t.Fatalf("summary = %q", got.Summary)
	}
	if got.Strategy != "tfidf" || got.Sentences != 4 || got.Kept != 2 || got.Selected != 1 {
		t.Fatalf("counts = %+v", got)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestSummarize_GraphStrategy(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/v1/summarize", `{"text":"`+article+`","strategy":"graph"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"strategy":"graph"`) {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestSummarize_ErrorMapping(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	cases := []struct {
		name, body string
		want       int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"negative length", `{"text":"` + article + `","maxLength":-1}`, http.StatusBadRequest},
		{"unknown strategy", `{"text":"x","strategy":"lsa"}`, http.StatusBadRequest},
		{"empty text", `{"text":""}`, http.StatusUnprocessableEntity},
		{"all filtered", `{"text":"Share this. Ads."}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/v1/summarize", tc.body); rec.Code != tc.want {
				t.Fatalf("status = %d want %d body=%s", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/v1/bookmarks/process", `{"url":"https://example.com/fox","title":"Fox facts","content":"`+article+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var got struct {
		Success bool              `json:"success"`
		Step    string            `json:"step"`
		Data    bookmark.Bookmark `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Data.GeneratedTitle != "Foxes and Dogs" || got.Data.CategoryID != bookmark.Uncategorized {
		t.Fatalf("got %+v", got)
	}
}

func TestProcess_Failures(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	if rec := do(t, h, http.MethodPost, "/v1/bookmarks/process", `{"content":"x"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url: status = %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/v1/bookmarks/process", `{"url":"https://e.com","content":"  "}`)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), `"step":"summarize"`) {
		t.Fatalf("no content: status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestArrange(t *testing.T) {
	s, _ := newTestServer(t)
	s.Clusterer = fixedClusterer{res: cluster.Result{
		Assignments: []cluster.Assignment{{ID: "1", Cluster: 0}, {ID: "2", Cluster: cluster.Noise}},
		Categories:  map[string]string{"0": "Animals"},
	}}
	rec := do(t, s.Handler(), http.MethodPost, "/v1/bookmarks/arrange", `{"bookmarks":[{"id":1,"title":"Fox"},{"id":2,"title":"Misc"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var got arrangeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Bookmarks[0].Category != "Animals" || len(got.Tree) != 2 || got.Tree[1].ID != bookmark.Uncategorized {
		t.Fatalf("got %+v", got)
	}
}

func TestArrange_UpstreamFailure(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	if rec := do(t, h, http.MethodPost, "/v1/bookmarks/arrange", `{"bookmarks":[{"id":1}]}`); rec.Code != http.StatusNotImplemented {
		t.Fatalf("unconfigured: status = %d", rec.Code)
	}
	s.Clusterer = fixedClusterer{err: errors.New("down")}
	h = s.Handler()
	if rec := do(t, h, http.MethodPost, "/v1/bookmarks/arrange", `{"bookmarks":[{"id":1}]}`); rec.Code != http.StatusBadGateway {
		t.Fatalf("upstream: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/bookmarks/arrange", `{"bookmarks":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty: status = %d", rec.Code)
	}
}

func TestGenerateTitle(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/generate_title", `{"summary":"foxes"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Foxes and Dogs") {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	s.Titles = fixedTitles{err: titler.ErrNoTitle}
	if rec := do(t, s.Handler(), http.MethodPost, "/generate_title", `{"summary":""}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRemoteTitlerAgainstServer(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	got, err := (&titler.Remote{BaseURL: srv.URL}).Generate(context.Background(), "foxes")
	if err != nil || got != "Foxes and Dogs" {
		t.Fatalf("Remote.Generate = %q, %v", got, err)
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/v1/bookmarks/stats", `{"bookmarks":[{"id":1,"categoryId":"0","category":"A"},{"id":2}]}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"totalBookmarks":2`) {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestHealthMetricsAndRequestID(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("status = %d id=%q", rec.Code, rec.Header().Get(RequestIDHeader))
	}
	do(t, h, http.MethodPost, "/v1/summarize", `{"text":"`+article+`"}`)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{"marksum_summaries_total", `route="GET /healthz"`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/summarize", nil)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "chrome-extension://abcdef" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s.Handler(), http.MethodGet, "/v1/summarize", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}
