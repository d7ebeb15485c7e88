package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	setString(&cfg.TitleServiceURL, "TITLE_SERVICE_URL")
	setString(&cfg.ClusterServiceURL, "CLUSTER_SERVICE_URL")
	setString(&cfg.Strategy, "SUMMARY_STRATEGY")
	setString(&cfg.ProfileName, "FILTER_PROFILE")
	setString(&cfg.ProfileFile, "FILTER_PROFILE_FILE")
	setString(&cfg.Extractor, "EXTRACTOR")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.UserAgent, "USER_AGENT")
	setString(&cfg.Addr, "ADDR")

	if cfg.MaxLength == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SUMMARY_LENGTH"))); err == nil && n > 0 {
			cfg.MaxLength = n
		}
	}
	if cfg.FetchRate == 0 {
		if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("FETCH_RATE")), 64); err == nil && f > 0 {
			cfg.FetchRate = f
		}
	}

	setDuration := func(dst *time.Duration, key string) {
		if *dst != 0 {
			return
		}
		if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil && d > 0 {
			*dst = d
		}
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setDuration(&cfg.TitleTimeout, "TITLE_TIMEOUT")
	setDuration(&cfg.ClusterTimeout, "CLUSTER_TIMEOUT")

	setBool := func(dst *bool, key string) {
		if *dst {
			return
		}
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.GenerateTitles, "GENERATE_TITLES")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.LLMCacheOnly, "LLM_CACHE_ONLY")
	setBool(&cfg.RespectRobots, "RESPECT_ROBOTS")
}
