package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/marksum/internal/app"
	"github.com/hyperifyio/marksum/internal/summarize"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := app.LoadEnvFiles(".env", ".env.local"); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(app.VersionString())
		return
	}
	cfg, err := resolveConfig(opts)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if cfg.Serve {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

type options struct {
	cfg        app.Config
	configPath string
	version    bool
}

// parseFlags reads command line flags. Flag defaults come from the
// environment so an explicit flag always wins.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	def := app.DefaultConfig()
	var o options
	c := &o.cfg

	fs := flag.NewFlagSet("marksum", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: marksum [flags] [file]")
		fmt.Fprintln(fs.Output(), "  Summarizes a text or HTML file, a URL (-url), a JSON page batch (-batch)")
		fmt.Fprintln(fs.Output(), "  or a bookmark list (-bookmarks), or serves the HTTP API (-serve).")
		fs.PrintDefaults()
	}

	fs.StringVar(&c.InputPath, "in", "", "Text or HTML file to summarize (also the first positional argument)")
	fs.StringVar(&c.Title, "title", "", "Page title used to weight the summary")
	fs.StringVar(&c.URL, "url", "", "Fetch and summarize a URL into a bookmark")
	fs.StringVar(&c.BatchPath, "batch", "", "JSON array of pages {url,title,content} to process")
	fs.StringVar(&c.BookmarksPath, "bookmarks", "", "Bookmark list or exported bookmark tree (JSON) to arrange or export")
	fs.StringVar(&c.OutputPath, "out", "", "Write results here instead of stdout")

	fs.StringVar(&c.Strategy, "strategy", envOr("SUMMARY_STRATEGY", def.Strategy), "Scoring strategy: tfidf or graph")
	fs.IntVar(&c.MaxLength, "length", envInt("SUMMARY_LENGTH", def.MaxLength), "Maximum summary length in characters")
	fs.StringVar(&c.ProfileName, "profile", envOr("FILTER_PROFILE", def.ProfileName), "Sentence filter profile")
	fs.StringVar(&c.ProfileFile, "profile-file", os.Getenv("FILTER_PROFILE_FILE"), "YAML file with extra filter profiles")
	fs.BoolVar(&c.SkipOverflow, "skip-overflow", false, "Skip sentences that overflow the length instead of stopping")
	fs.Float64Var(&c.TitleWeight, "title-weight", 0, "TF-IDF bonus weight for title terms (0 uses the default)")
	fs.Float64Var(&c.Damping, "damping", 0, "TextRank damping factor (0 uses the default)")
	fs.StringVar(&c.Extractor, "extractor", os.Getenv("EXTRACTOR"), "HTML extractor: readability or heuristic")

	fs.StringVar(&c.LLMBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	fs.StringVar(&c.LLMModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name for titles and category names")
	fs.StringVar(&c.LLMAPIKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for the OpenAI-compatible server")
	fs.BoolVar(&c.GenerateTitles, "titles", false, "Generate a title for each summary")
	fs.StringVar(&c.TitleServiceURL, "title-service", os.Getenv("TITLE_SERVICE_URL"), "Remote title service base URL")
	fs.StringVar(&c.ClusterServiceURL, "cluster-service", os.Getenv("CLUSTER_SERVICE_URL"), "Remote clustering service base URL")
	fs.BoolVar(&c.Arrange, "arrange", false, "Cluster bookmarks into named categories")
	fs.IntVar(&c.Concurrency, "concurrency", def.Concurrency, "Pages processed in parallel in batch mode")

	fs.StringVar(&c.ExportMarkdownPath, "export.md", "", "Write a Markdown digest of the bookmarks")
	fs.StringVar(&c.ExportPDFPath, "export.pdf", "", "Write a PDF digest of the bookmarks")
	fs.StringVar(&c.PDFFontPath, "pdf.font", os.Getenv("PDF_FONT"), "UTF-8 TTF font for the PDF digest")

	fs.StringVar(&c.UserAgent, "fetch.ua", envOr("USER_AGENT", def.UserAgent), "User-Agent for page fetches")
	fs.Float64Var(&c.FetchRate, "fetch.rate", 0, "Page fetches per second (0 disables limiting)")
	fs.BoolVar(&c.RespectRobots, "fetch.robots", false, "Skip pages disallowed by robots.txt")

	fs.StringVar(&c.CacheDir, "cache.dir", envOr("CACHE_DIR", def.CacheDir), "Cache directory path (empty disables caching)")
	fs.DurationVar(&c.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&c.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&c.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.Int64Var(&c.CacheMaxBytes, "cache.maxBytes", 0, "Evict oldest cache entries above this many bytes; 0 disables")
	fs.IntVar(&c.CacheMaxCount, "cache.maxCount", 0, "Evict oldest cache entries above this many files; 0 disables")
	fs.BoolVar(&c.LLMCacheOnly, "llm.cacheOnly", false, "Only use cached titles and category names")

	fs.BoolVar(&c.Serve, "serve", false, "Run the HTTP API")
	fs.StringVar(&c.Addr, "addr", envOr("ADDR", def.Addr), "Listen address for -serve")
	fs.StringVar(&o.configPath, "config", os.Getenv("MARKSUM_CONFIG"), "YAML or JSON config file")
	fs.BoolVar(&c.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if c.InputPath == "" && fs.NArg() > 0 {
		c.InputPath = fs.Arg(0)
	}
	return o, nil
}

// resolveConfig layers the config file and environment under the flags and
// validates the result.
func resolveConfig(o options) (app.Config, error) {
	cfg := o.cfg
	if strings.TrimSpace(o.configPath) != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)
	if err := app.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg app.Config, stdout io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return a.Run(ctx, stdout)
}

// exitCode is 2 when nothing could be summarized and 1 for other failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, summarize.ErrNoContent):
		return 2
	default:
		return 1
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
		return n
	}
	return fallback
}
