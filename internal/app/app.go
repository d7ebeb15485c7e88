package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/marksum/internal/bookmark"
	"github.com/hyperifyio/marksum/internal/cache"
	"github.com/hyperifyio/marksum/internal/cluster"
	"github.com/hyperifyio/marksum/internal/export"
	"github.com/hyperifyio/marksum/internal/extract"
	"github.com/hyperifyio/marksum/internal/fetch"
	"github.com/hyperifyio/marksum/internal/filter"
	"github.com/hyperifyio/marksum/internal/llm"
	"github.com/hyperifyio/marksum/internal/metrics"
	"github.com/hyperifyio/marksum/internal/robots"
	"github.com/hyperifyio/marksum/internal/summarize"
	"github.com/hyperifyio/marksum/internal/titler"
)

// ErrNoClusterer is returned when arranging without a clustering service.
var ErrNoClusterer = errors.New("no clustering service configured")

// App wires the summarizer and its collaborators from a Config.
type App struct {
	cfg Config

	summarizers map[summarize.Strategy]*summarize.Summarizer
	summarizer  *summarize.Summarizer
	extractor   extract.Extractor
	fetcher     *fetch.Client
	ai          *llm.OpenAIProvider
	titles      titler.Generator
	clusterer   *cluster.Client
	namer       cluster.Namer
	processor   *bookmark.Processor

	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// New builds an App. The LLM preflight is best-effort and only logs.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = defaultMaxLength
	}
	a := &App{cfg: cfg, summarizers: map[summarize.Strategy]*summarize.Summarizer{}}

	profile, err := loadProfile(cfg)
	if err != nil {
		return nil, err
	}
	for _, st := range []summarize.Strategy{summarize.StrategyTFIDF, summarize.StrategyGraph} {
		s, err := summarize.New(summarize.Options{
			Strategy:     st,
			Profile:      &profile,
			TitleWeight:  cfg.TitleWeight,
			Damping:      cfg.Damping,
			SkipOverflow: cfg.SkipOverflow,
		})
		if err != nil {
			return nil, fmt.Errorf("summarizer %s: %w", st, err)
		}
		a.summarizers[st] = s
	}
	def, err := summarize.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	a.summarizer = a.summarizers[def]

	if a.extractor, err = extract.ByName(cfg.Extractor); err != nil {
		return nil, err
	}

	var pageCache *cache.PageCache
	var titleCache *cache.TitleCache
	if strings.TrimSpace(cfg.CacheDir) != "" {
		maintainCache(cfg)
		pageCache = &cache.PageCache{Dir: pagesDir(cfg), StrictPerms: cfg.CacheStrictPerms}
		titleCache = &cache.TitleCache{Dir: titlesDir(cfg), StrictPerms: cfg.CacheStrictPerms}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	a.fetcher = &fetch.Client{
		HTTPClient:        newHTTPClient(),
		UserAgent:         pickNonEmpty(cfg.UserAgent, defaultUserAgent),
		MaxAttempts:       2,
		PerRequestTimeout: 15 * time.Second,
		Cache:             pageCache,
		BypassCache:       cfg.CacheClear,
		RedirectMaxHops:   5,
		MaxConcurrent:     concurrency,
		Limiter:           fetch.NewLimiter(cfg.FetchRate),
	}
	if cfg.RespectRobots {
		a.fetcher.Robots = &robots.Checker{HTTPClient: newHTTPClient(), UserAgent: a.fetcher.UserAgent}
	}

	if strings.TrimSpace(cfg.LLMModel) != "" {
		a.ai = llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, newHTTPClient())
		preflight(ctx, a.ai, cfg.LLMModel)
	}

	if cfg.GenerateTitles {
		switch {
		case strings.TrimSpace(cfg.TitleServiceURL) != "":
			a.titles = &titler.Remote{BaseURL: cfg.TitleServiceURL, HTTPClient: newHTTPClient(), Timeout: cfg.TitleTimeout}
		case a.ai != nil:
			a.titles = &titler.LLM{Client: a.ai, Model: cfg.LLMModel, Cache: titleCache, CacheOnly: cfg.LLMCacheOnly}
		}
	}

	if strings.TrimSpace(cfg.ClusterServiceURL) != "" {
		a.clusterer = &cluster.Client{BaseURL: cfg.ClusterServiceURL, HTTPClient: newHTTPClient(), Timeout: cfg.ClusterTimeout}
	}
	switch {
	case a.ai != nil:
		a.namer = &cluster.LLMNamer{Client: a.ai, Model: cfg.LLMModel, Cache: titleCache}
	case a.clusterer != nil:
		a.namer = a.clusterer
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	a.processor = &bookmark.Processor{Summarizer: a.summarizer, Titles: a.titles, MaxLength: cfg.MaxLength}
	return a, nil
}

func loadProfile(cfg Config) (filter.Profile, error) {
	var loaded map[string]filter.Profile
	if strings.TrimSpace(cfg.ProfileFile) != "" {
		var err error
		if loaded, err = filter.LoadProfiles(cfg.ProfileFile); err != nil {
			return filter.Profile{}, fmt.Errorf("load filter profiles: %w", err)
		}
	}
	return filter.Resolve(cfg.ProfileName, loaded)
}

func pagesDir(cfg Config) string  { return filepath.Join(cfg.CacheDir, "pages") }
func titlesDir(cfg Config) string { return filepath.Join(cfg.CacheDir, "titles") }

// maintainCache applies clear, age and size controls. Failures are logged
// and never stop startup.
func maintainCache(cfg Config) {
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
		}
	}
	if cfg.CacheMaxAge > 0 {
		p, _ := cache.PurgePageCacheByAge(pagesDir(cfg), cfg.CacheMaxAge)
		t, _ := cache.PurgeTitleCacheByAge(titlesDir(cfg), cfg.CacheMaxAge)
		log.Debug().Int("pages", p).Int("titles", t).Msg("purged stale cache entries")
	}
	if cfg.CacheMaxBytes > 0 || cfg.CacheMaxCount > 0 {
		p, _ := cache.EnforcePageCacheLimits(pagesDir(cfg), cfg.CacheMaxBytes, cfg.CacheMaxCount)
		t, _ := cache.EnforceTitleCacheLimits(titlesDir(cfg), cfg.CacheMaxBytes, cfg.CacheMaxCount)
		log.Debug().Int("pages", p).Int("titles", t).Msg("evicted cache entries over limit")
	}
}

func preflight(ctx context.Context, c llm.Client, model string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := llm.HasModel(ctx, c, model)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
	case !ok:
		log.Warn().Str("model", model).Msg("LLM does not list the configured model")
	default:
		log.Info().Str("model", model).Msg("LLM model available")
	}
}

// Close releases resources held by the App.
func (a *App) Close() {}

// Registry exposes the metrics registry.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Summarize runs the configured pipeline on plain text.
func (a *App) Summarize(text, title string) (summarize.Result, error) {
	start := time.Now()
	res, err := a.summarizer.Run(text, title, a.cfg.MaxLength)
	outcome := metrics.OK
	switch {
	case errors.Is(err, summarize.ErrNoContent) || (err == nil && res.Summary == ""):
		outcome = metrics.Empty
	case err != nil:
		outcome = metrics.Failed
	}
	a.metrics.ObserveSummary(string(a.summarizer.Strategy()), outcome, utf8.RuneCountInString(res.Summary), time.Since(start))
	return res, err
}

// SummarizeFile summarizes a text or HTML file. HTML is detected by
// extension or content and run through the extractor first. Config.Title
// overrides the title found in the document.
func (a *App) SummarizeFile(path string) (summarize.Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return summarize.Result{}, fmt.Errorf("read input: %w", err)
	}
	text, title := string(b), ""
	if looksLikeHTML(path, b) {
		doc := a.extractor.Extract(b)
		text, title = doc.Text, doc.Title
	}
	return a.Summarize(text, pickNonEmpty(a.cfg.Title, title))
}

func looksLikeHTML(path string, b []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(b[:min(len(b), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// SummarizeURL fetches a page and turns it into a bookmark.
func (a *App) SummarizeURL(ctx context.Context, url string) bookmark.Result {
	page, res, ok := a.fetchPage(ctx, bookmark.Page{URL: url})
	if !ok {
		return res
	}
	return a.process(ctx, page)
}

func (a *App) fetchPage(ctx context.Context, page bookmark.Page) (bookmark.Page, bookmark.Result, bool) {
	body, _, err := a.fetcher.Get(ctx, page.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", page.URL).Msg("fetch failed")
		return page, bookmark.Result{Step: bookmark.StepFetch, Message: "fetch failed", Err: err}, false
	}
	doc := a.extractor.Extract(body)
	page.Content = doc.Text
	page.Title = pickNonEmpty(page.Title, doc.Title)
	return page, bookmark.Result{}, true
}

func (a *App) process(ctx context.Context, page bookmark.Page) bookmark.Result {
	start := time.Now()
	res := a.processor.Process(ctx, page)
	strategy := string(a.summarizer.Strategy())
	switch {
	case res.Success:
		a.metrics.ObserveSummary(strategy, metrics.OK, utf8.RuneCountInString(res.Data.Description), time.Since(start))
	case errors.Is(res.Err, summarize.ErrNoContent):
		a.metrics.ObserveSummary(strategy, metrics.Empty, 0, time.Since(start))
	}
	if a.titles != nil && res.Success {
		if res.Step == bookmark.StepTitle {
			a.metrics.ObserveTitle(metrics.Failed)
		} else {
			a.metrics.ObserveTitle(metrics.OK)
		}
	}
	return res
}

// ProcessBatch processes pages with bounded concurrency. Pages without
// content are fetched first. Results keep the input order; one failing page
// never stops the others.
func (a *App) ProcessBatch(ctx context.Context, pages []bookmark.Page) []bookmark.Result {
	results := make([]bookmark.Result, len(pages))
	limit := a.cfg.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, p := range pages {
		wg.Add(1)
		go func(i int, p bookmark.Page) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = bookmark.Result{Step: bookmark.StepInput, Message: "canceled", Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			if strings.TrimSpace(p.Content) == "" && strings.TrimSpace(p.URL) != "" {
				fetched, res, ok := a.fetchPage(ctx, p)
				if !ok {
					results[i] = res
					return
				}
				p = fetched
			}
			results[i] = a.process(ctx, p)
		}(i, p)
	}
	wg.Wait()

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	log.Info().Int("pages", len(pages)).Int("processed", ok).Msg("batch complete")
	return results
}

// Arrange clusters bookmarks into named categories.
func (a *App) Arrange(ctx context.Context, bookmarks []bookmark.Bookmark) ([]bookmark.Bookmark, error) {
	if a.clusterer == nil {
		return nil, ErrNoClusterer
	}
	out, err := bookmark.Arrange(ctx, bookmarks, a.clusterer, a.namer)
	if err != nil {
		a.metrics.ObserveCluster(metrics.Failed)
		return nil, err
	}
	a.metrics.ObserveCluster(metrics.OK)
	return out, nil
}

// Export writes the configured Markdown and PDF digests of bookmarks.
func (a *App) Export(bookmarks []bookmark.Bookmark) error {
	if a.cfg.ExportMarkdownPath == "" && a.cfg.ExportPDFPath == "" {
		return nil
	}
	md := a.digest(bookmarks)
	if p := a.cfg.ExportMarkdownPath; p != "" {
		if err := os.WriteFile(p, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write markdown export: %w", err)
		}
		log.Info().Str("out", p).Msg("wrote markdown digest")
	}
	if p := a.cfg.ExportPDFPath; p != "" {
		if err := export.WritePDF(md, p, export.PDFOptions{FontPath: a.cfg.PDFFontPath}); err != nil {
			return fmt.Errorf("write pdf export: %w", err)
		}
		log.Info().Str("out", p).Msg("wrote pdf digest")
	}
	return nil
}

// LoadPages reads a JSON array of pages.
func LoadPages(path string) ([]bookmark.Page, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	var pages []bookmark.Page
	if err := json.Unmarshal(b, &pages); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	return pages, nil
}

// LoadBookmarks reads a bookmark list or an exported bookmark tree.
func LoadBookmarks(path string) ([]bookmark.Bookmark, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}
	return bookmark.DecodeList(b, time.Now())
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
