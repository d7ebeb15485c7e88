package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/marksum/internal/bookmark"
	"github.com/hyperifyio/marksum/internal/export"
	"github.com/hyperifyio/marksum/internal/server"
	"github.com/hyperifyio/marksum/internal/summarize"
)

// ErrNothingToDo is returned by Run when no input mode is configured.
var ErrNothingToDo = errors.New("nothing to do: give an input file, -url, -batch, -bookmarks or -serve")

// Run executes the mode selected by the config. Results go to OutputPath,
// or to stdout when it is empty.
func (a *App) Run(ctx context.Context, stdout io.Writer) error {
	switch {
	case a.cfg.Serve:
		return a.Serve(ctx)
	case a.cfg.URL != "":
		return a.runURL(ctx, stdout)
	case a.cfg.BatchPath != "":
		return a.runBatch(ctx, stdout)
	case a.cfg.BookmarksPath != "":
		return a.runBookmarks(ctx, stdout)
	case a.cfg.InputPath != "":
		return a.runFile(stdout)
	}
	return ErrNothingToDo
}

func (a *App) withOutput(stdout io.Writer, write func(io.Writer) error) error {
	if a.cfg.OutputPath == "" {
		return write(stdout)
	}
	f, err := os.Create(a.cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")
	return nil
}

func (a *App) runFile(stdout io.Writer) error {
	res, err := a.SummarizeFile(a.cfg.InputPath)
	if err != nil {
		return err
	}
	log.Debug().
		Str("strategy", string(res.Strategy)).
		Int("sentences", res.Total).
		Int("kept", res.Kept).
		Int("selected", res.Selected).
		Msg("summarized")
	if res.Summary == "" {
		log.Warn().Int("max_length", a.cfg.MaxLength).Msg("top ranked sentence does not fit the summary length")
		return fmt.Errorf("%s: %w", a.cfg.InputPath, summarize.ErrNoContent)
	}
	return a.withOutput(stdout, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, res.Summary)
		return err
	})
}

func (a *App) runURL(ctx context.Context, stdout io.Writer) error {
	res := a.SummarizeURL(ctx, a.cfg.URL)
	if err := a.withOutput(stdout, func(w io.Writer) error { return writeJSONTo(w, res) }); err != nil {
		return err
	}
	if !res.Success {
		if res.Err != nil {
			return fmt.Errorf("%s: %w", res.Message, res.Err)
		}
		return errors.New(res.Message)
	}
	return nil
}

func (a *App) runBatch(ctx context.Context, stdout io.Writer) error {
	pages, err := LoadPages(a.cfg.BatchPath)
	if err != nil {
		return err
	}
	results := a.ProcessBatch(ctx, pages)
	bookmarks := make([]bookmark.Bookmark, 0, len(results))
	for i, r := range results {
		if r.Success {
			b := *r.Data
			b.ID = int64(i)
			bookmarks = append(bookmarks, b)
			continue
		}
		log.Warn().Err(r.Err).Str("url", pages[i].URL).Str("step", r.Step).Msg("page skipped")
	}

	if a.cfg.OutputPath != "" {
		meta := manifestMeta{
			Strategy:    string(a.summarizer.Strategy()),
			MaxLength:   a.cfg.MaxLength,
			Model:       a.cfg.LLMModel,
			Pages:       len(pages),
			Succeeded:   len(bookmarks),
			GeneratedAt: time.Now().UTC(),
		}
		a.writeManifest(meta, buildManifestEntries(pages, results))
	}
	if len(bookmarks) == 0 {
		return fmt.Errorf("no page produced a summary: %w", summarize.ErrNoContent)
	}
	return a.finish(ctx, bookmarks, stdout)
}

// writeManifest stores the batch manifest next to the output. Failures are
// logged and do not fail the run.
func (a *App) writeManifest(meta manifestMeta, entries []manifestEntry) {
	path := deriveManifestSidecarPath(a.cfg.OutputPath)
	data, err := marshalManifestJSON(meta, entries)
	if err != nil {
		log.Warn().Err(err).Msg("manifest encode failed")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("manifest write failed")
	}
}

func (a *App) runBookmarks(ctx context.Context, stdout io.Writer) error {
	bookmarks, err := LoadBookmarks(a.cfg.BookmarksPath)
	if err != nil {
		return err
	}
	s := bookmark.ComputeStats(bookmarks)
	log.Info().Int("bookmarks", s.TotalBookmarks).Int("categories", s.CategoriesCount).Msg("loaded bookmarks")
	return a.finish(ctx, bookmarks, stdout)
}

// finish arranges when asked, exports digests and writes the bookmark list.
// A failed arrangement keeps the bookmarks as they were.
func (a *App) finish(ctx context.Context, bookmarks []bookmark.Bookmark, stdout io.Writer) error {
	if a.cfg.Arrange {
		arranged, err := a.Arrange(ctx, bookmarks)
		if err != nil {
			log.Warn().Err(err).Msg("arrange failed; keeping bookmarks uncategorized")
		} else {
			bookmarks = arranged
		}
	}
	if err := a.Export(bookmarks); err != nil {
		return err
	}
	return a.withOutput(stdout, func(w io.Writer) error { return writeJSONTo(w, bookmarks) })
}

func (a *App) digest(bookmarks []bookmark.Bookmark) string {
	md := export.MarkdownString(export.DefaultTitle, bookmark.BuildTree(bookmarks))
	return appendDigestFooter(md, string(a.summarizer.Strategy()), a.cfg.MaxLength, a.cfg.LLMModel, len(bookmarks), a.cfg.CacheDir != "")
}

// Handler returns the HTTP API backed by this App.
func (a *App) Handler() http.Handler {
	srv := &server.Server{
		Summarizers:     a.summarizers,
		DefaultStrategy: a.summarizer.Strategy(),
		MaxLength:       a.cfg.MaxLength,
		Processor:       a.processor,
		Titles:          a.titles,
		Namer:           a.namer,
		Metrics:         a.metrics,
		Gatherer:        a.registry,
	}
	if a.clusterer != nil {
		srv.Clusterer = a.clusterer
	}
	return srv.Handler()
}

// Serve runs the HTTP API until ctx is canceled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              pickNonEmpty(a.cfg.Addr, defaultAddr),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Str("version", BuildVersion).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
