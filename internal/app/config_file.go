package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/marksum/internal/extract"
	"github.com/hyperifyio/marksum/internal/summarize"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Summary struct {
		Length       int     `yaml:"length" json:"length"`
		Strategy     string  `yaml:"strategy" json:"strategy"`
		Profile      string  `yaml:"profile" json:"profile"`
		ProfileFile  string  `yaml:"profileFile" json:"profileFile"`
		SkipOverflow bool    `yaml:"skipOverflow" json:"skipOverflow"`
		TitleWeight  float64 `yaml:"titleWeight" json:"titleWeight"`
		Damping      float64 `yaml:"damping" json:"damping"`
		Extractor    string  `yaml:"extractor" json:"extractor"`
	} `yaml:"summary" json:"summary"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Services struct {
		Title          string        `yaml:"title" json:"title"`
		Cluster        string        `yaml:"cluster" json:"cluster"`
		TitleTimeout   time.Duration `yaml:"titleTimeout" json:"titleTimeout"`
		ClusterTimeout time.Duration `yaml:"clusterTimeout" json:"clusterTimeout"`
	} `yaml:"services" json:"services"`

	Titles  bool `yaml:"titles" json:"titles"`
	Verbose bool `yaml:"verbose" json:"verbose"`

	Export struct {
		Markdown string `yaml:"markdown" json:"markdown"`
		PDF      string `yaml:"pdf" json:"pdf"`
		Font     string `yaml:"font" json:"font"`
	} `yaml:"export" json:"export"`

	Fetch struct {
		UserAgent string  `yaml:"userAgent" json:"userAgent"`
		Rate      float64 `yaml:"rate" json:"rate"`
		Robots    bool    `yaml:"robots" json:"robots"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		MaxCount    int           `yaml:"maxCount" json:"maxCount"`
	} `yaml:"cache" json:"cache"`

	Server struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that are unset
// or still at their flag default, so explicit flags keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	s := fc.Summary
	if (cfg.MaxLength == 0 || cfg.MaxLength == defaultMaxLength) && s.Length > 0 {
		cfg.MaxLength = s.Length
	}
	if (cfg.Strategy == "" || cfg.Strategy == defaultStrategy) && s.Strategy != "" {
		cfg.Strategy = s.Strategy
	}
	if (cfg.ProfileName == "" || cfg.ProfileName == defaultProfile) && s.Profile != "" {
		cfg.ProfileName = s.Profile
	}
	if cfg.ProfileFile == "" && s.ProfileFile != "" {
		cfg.ProfileFile = s.ProfileFile
	}
	if !cfg.SkipOverflow && s.SkipOverflow {
		cfg.SkipOverflow = true
	}
	if cfg.TitleWeight == 0 && s.TitleWeight > 0 {
		cfg.TitleWeight = s.TitleWeight
	}
	if cfg.Damping == 0 && s.Damping > 0 {
		cfg.Damping = s.Damping
	}
	if cfg.Extractor == "" && s.Extractor != "" {
		cfg.Extractor = s.Extractor
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.TitleServiceURL == "" && fc.Services.Title != "" {
		cfg.TitleServiceURL = fc.Services.Title
	}
	if cfg.ClusterServiceURL == "" && fc.Services.Cluster != "" {
		cfg.ClusterServiceURL = fc.Services.Cluster
	}
	if cfg.TitleTimeout == 0 && fc.Services.TitleTimeout > 0 {
		cfg.TitleTimeout = fc.Services.TitleTimeout
	}
	if cfg.ClusterTimeout == 0 && fc.Services.ClusterTimeout > 0 {
		cfg.ClusterTimeout = fc.Services.ClusterTimeout
	}
	if !cfg.GenerateTitles && fc.Titles {
		cfg.GenerateTitles = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if cfg.ExportMarkdownPath == "" && fc.Export.Markdown != "" {
		cfg.ExportMarkdownPath = fc.Export.Markdown
	}
	if cfg.ExportPDFPath == "" && fc.Export.PDF != "" {
		cfg.ExportPDFPath = fc.Export.PDF
	}
	if cfg.PDFFontPath == "" && fc.Export.Font != "" {
		cfg.PDFFontPath = fc.Export.Font
	}

	if (cfg.UserAgent == "" || cfg.UserAgent == defaultUserAgent) && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if cfg.FetchRate == 0 && fc.Fetch.Rate > 0 {
		cfg.FetchRate = fc.Fetch.Rate
	}
	if !cfg.RespectRobots && fc.Fetch.Robots {
		cfg.RespectRobots = true
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == defaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if cfg.CacheMaxCount == 0 && fc.Cache.MaxCount > 0 {
		cfg.CacheMaxCount = fc.Cache.MaxCount
	}

	if (cfg.Addr == "" || cfg.Addr == defaultAddr) && fc.Server.Addr != "" {
		cfg.Addr = fc.Server.Addr
	}
}

// ValidateConfig checks settings that would otherwise fail deep inside a run.
func ValidateConfig(cfg Config) error {
	if cfg.MaxLength <= 0 {
		return errors.New("config: summary length must be positive")
	}
	if _, err := summarize.ParseStrategy(cfg.Strategy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := extract.ByName(cfg.Extractor); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.TitleWeight < 0 || cfg.FetchRate < 0 || cfg.Concurrency < 0 {
		return errors.New("config: negative values are not allowed")
	}
	if cfg.Damping < 0 || cfg.Damping >= 1 {
		return errors.New("config: damping must be in [0, 1)")
	}
	if cfg.GenerateTitles && strings.TrimSpace(cfg.TitleServiceURL) == "" && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: title generation needs llm.model (or set LLM_MODEL) or a title service URL")
	}
	if !cfg.Serve && cfg.Arrange && strings.TrimSpace(cfg.ClusterServiceURL) == "" {
		return errors.New("config: arranging bookmarks needs a cluster service URL (or set CLUSTER_SERVICE_URL)")
	}
	return nil
}
