// Package server exposes summarization and bookmark arrangement over HTTP.
//
// Routes:
//
//	POST /v1/summarize           summarize plain text
//	POST /v1/bookmarks/process   summarize a captured page into a bookmark
//	POST /v1/bookmarks/arrange   cluster and name a bookmark list
//	POST /v1/bookmarks/stats     collection statistics
//	POST /generate_title         title for a summary
//	GET  /healthz                liveness
//	GET  /metrics                Prometheus metrics
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/marksum/internal/bookmark"
	"github.com/hyperifyio/marksum/internal/cluster"
	"github.com/hyperifyio/marksum/internal/metrics"
	"github.com/hyperifyio/marksum/internal/summarize"
	"github.com/hyperifyio/marksum/internal/titler"
)

// MaxRequestBytes caps request bodies.
const MaxRequestBytes = 8 << 20

// Server holds the collaborators behind the HTTP API. Optional fields left
// nil disable the routes that need them with 501.
type Server struct {
	// Summarizers maps each supported strategy to a pipeline. The entry for
	// DefaultStrategy is required.
	Summarizers     map[summarize.Strategy]*summarize.Summarizer
	DefaultStrategy summarize.Strategy
	MaxLength       int

	Processor *bookmark.Processor
	Titles    titler.Generator
	Clusterer bookmark.Clusterer
	Namer     cluster.Namer

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	CORS     CORSConfig
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/summarize", s.handleSummarize)
	mux.HandleFunc("POST /v1/bookmarks/process", s.handleProcess)
	mux.HandleFunc("POST /v1/bookmarks/arrange", s.handleArrange)
	mux.HandleFunc("POST /v1/bookmarks/stats", s.handleStats)
	mux.HandleFunc("POST /generate_title", s.handleTitle)
	if s.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	cfg := s.CORS
	if len(cfg.AllowOrigins) == 0 {
		cfg = DefaultCORSConfig()
	}
	var h http.Handler = mux
	h = observe(s.Metrics)(h)
	h = cors(cfg)(h)
	h = requestID(h)
	return h
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type summarizeRequest struct {
	Text      string `json:"text"`
	Title     string `json:"title"`
	MaxLength int    `json:"maxLength"`
	Strategy  string `json:"strategy"`
}

type summarizeResponse struct {
	Summary   string `json:"summary"`
	Strategy  string `json:"strategy"`
	Sentences int    `json:"sentences"`
	Kept      int    `json:"kept"`
	Selected  int    `json:"selected"`
}

func (s *Server) summarizer(name string) (*summarize.Summarizer, error) {
	strategy := s.DefaultStrategy
	if name != "" {
		var err error
		if strategy, err = summarize.ParseStrategy(name); err != nil {
			return nil, err
		}
	}
	sum, ok := s.Summarizers[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: strategy %q is not enabled", summarize.ErrInvalidArgument, strategy)
	}
	return sum, nil
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decode(w, r, &req) {
		return
	}
	sum, err := s.summarizer(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxLength := req.MaxLength
	if maxLength == 0 {
		maxLength = s.maxLength()
	}

	start := time.Now()
	res, err := sum.Run(req.Text, req.Title, maxLength)
	strategy := string(sum.Strategy())
	switch {
	case errors.Is(err, summarize.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, summarize.ErrNoContent):
		s.Metrics.ObserveSummary(strategy, metrics.Empty, 0, time.Since(start))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.Metrics.ObserveSummary(strategy, metrics.Failed, 0, time.Since(start))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	outcome := metrics.OK
	if res.Summary == "" {
		outcome = metrics.Empty
	}
	s.Metrics.ObserveSummary(strategy, outcome, utf8.RuneCountInString(res.Summary), time.Since(start))
	zerolog.Ctx(r.Context()).Info().
		Str("strategy", strategy).
		Int("sentences", res.Total).
		Int("selected", res.Selected).
		Msg("summarized")
	writeJSON(w, http.StatusOK, summarizeResponse{
		Summary:   res.Summary,
		Strategy:  strategy,
		Sentences: res.Total,
		Kept:      res.Kept,
		Selected:  res.Selected,
	})
}

func (s *Server) maxLength() int {
	if s.MaxLength > 0 {
		return s.MaxLength
	}
	return summarize.DefaultMaxLength
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if s.Processor == nil {
		writeError(w, http.StatusNotImplemented, "bookmark processing is not configured")
		return
	}
	var page bookmark.Page
	if !decode(w, r, &page) {
		return
	}
	res := s.Processor.Process(r.Context(), page)
	logger := zerolog.Ctx(r.Context())
	switch {
	case res.Success && res.Err != nil:
		s.Metrics.ObserveTitle(metrics.Failed)
	case res.Success && res.Data.GeneratedTitle != "":
		s.Metrics.ObserveTitle(metrics.OK)
	case res.Success:
		s.Metrics.ObserveTitle(metrics.Skipped)
	}
	code := http.StatusOK
	if !res.Success {
		code = http.StatusUnprocessableEntity
		if res.Step == bookmark.StepInput {
			code = http.StatusBadRequest
		}
		logger.Info().Err(res.Err).Str("step", res.Step).Str("url", page.URL).Msg("bookmark not processed")
	}
	writeJSON(w, code, res)
}

type arrangeRequest struct {
	Bookmarks []bookmark.Bookmark `json:"bookmarks"`
}

type arrangeResponse struct {
	Bookmarks []bookmark.Bookmark `json:"bookmarks"`
	Tree      []bookmark.Category `json:"tree"`
}

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	if s.Clusterer == nil {
		writeError(w, http.StatusNotImplemented, "clustering is not configured")
		return
	}
	var req arrangeRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Bookmarks) == 0 {
		writeError(w, http.StatusBadRequest, "no bookmarks")
		return
	}
	out, err := bookmark.Arrange(r.Context(), req.Bookmarks, s.Clusterer, s.Namer)
	if err != nil {
		s.Metrics.ObserveCluster(metrics.Failed)
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("arrange failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.Metrics.ObserveCluster(metrics.OK)
	writeJSON(w, http.StatusOK, arrangeResponse{Bookmarks: out, Tree: bookmark.BuildTree(out)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var req arrangeRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, bookmark.ComputeStats(req.Bookmarks))
}

type titleRequest struct {
	Summary string `json:"summary"`
}

type titleResponse struct {
	Title string `json:"title"`
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	if s.Titles == nil {
		writeError(w, http.StatusNotImplemented, "title generation is not configured")
		return
	}
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	title, err := s.Titles.Generate(r.Context(), req.Summary)
	switch {
	case errors.Is(err, titler.ErrNoTitle):
		s.Metrics.ObserveTitle(metrics.Empty)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.Metrics.ObserveTitle(metrics.Failed)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.Metrics.ObserveTitle(metrics.OK)
	writeJSON(w, http.StatusOK, titleResponse{Title: title})
}
