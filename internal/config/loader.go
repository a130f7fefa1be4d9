package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load builds a Config from Defaults(), loads a .env file if present, and
// applies environment variable overrides. The returned Config has NOT been
// validated; call Validate() after Load.
func Load() (*Config, error) {
	cfg := Defaults()

	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Upstream.BaseURL, "UPSTREAM_BASE_URL")
	setDuration(&cfg.Upstream.Timeout, "REQUEST_TIMEOUT")

	setInt(&cfg.RateLimit.Requests, "RATE_LIMIT_REQUESTS")
	setDuration(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW")

	setStr(&cfg.Storage.DatabasePath, "DATABASE_PATH")
	setStr(&cfg.Storage.CacheDir, "CACHE_DIR")

	setInt(&cfg.Server.Port, "PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CORS_ORIGINS")

	setDuration(&cfg.Analysis.Timeout, "ANALYSIS_TIMEOUT")
	setStr(&cfg.Analysis.DefaultStrategy, "DEFAULT_STRATEGY")
	setStr(&cfg.Analysis.DefaultMode, "DEFAULT_EXECUTION_MODE")
	setInt(&cfg.Analysis.PollIntervalSeconds, "ANALYSIS_POLL_INTERVAL_SECONDS")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
			return
		}
		// A bare integer in these variables is a count of seconds, not a
		// time.ParseDuration unit suffix.
		if secs, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(secs) * time.Second
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
