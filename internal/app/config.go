package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs. One of InputPath, URL, BatchPath or BookmarksPath is used by
	// the CLI; Serve runs the HTTP service instead.
	InputPath     string
	Title         string
	URL           string
	BatchPath     string
	BookmarksPath string
	OutputPath    string

	// Summarization
	Strategy     string
	MaxLength    int
	ProfileName  string
	ProfileFile  string
	SkipOverflow bool
	TitleWeight  float64
	Damping      float64
	Extractor    string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Remote services
	TitleServiceURL   string
	ClusterServiceURL string
	TitleTimeout      time.Duration
	ClusterTimeout    time.Duration

	// Behavior
	GenerateTitles bool
	Arrange        bool
	Concurrency    int

	// Export
	ExportMarkdownPath string
	ExportPDFPath      string
	PDFFontPath        string

	// Fetch
	UserAgent     string
	FetchRate     float64
	RespectRobots bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxBytes    int64
	CacheMaxCount    int
	LLMCacheOnly     bool

	// Service
	Serve bool
	Addr  string

	Verbose bool
}

// Defaults used by flags and by file config overlay.
const (
	defaultMaxLength   = 300
	defaultStrategy    = "tfidf"
	defaultProfile     = "default"
	defaultCacheDir    = ".marksum-cache"
	defaultAddr        = ":8080"
	defaultUserAgent   = "marksum/1.0 (+https://github.com/hyperifyio/marksum)"
	defaultConcurrency = 4
)

// DefaultConfig returns a Config with the CLI defaults filled in.
func DefaultConfig() Config {
	return Config{
		Strategy:    defaultStrategy,
		MaxLength:   defaultMaxLength,
		ProfileName: defaultProfile,
		CacheDir:    defaultCacheDir,
		Addr:        defaultAddr,
		UserAgent:   defaultUserAgent,
		Concurrency: defaultConcurrency,
	}
}
