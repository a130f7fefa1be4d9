// Package config defines the analyzer's top-level configuration and
// provides validation helpers: a Defaults() baseline, environment-variable
// overrides, and a combined-error Validate().
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure, populated from Defaults() and
// then overridden by environment variables.
type Config struct {
	Upstream UpstreamConfig `json:"upstream"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Storage  StorageConfig  `json:"storage"`
	Server   ServerConfig   `json:"server"`
	Analysis AnalysisConfig `json:"analysis"`
}

// UpstreamConfig holds the marketplace API's base URL and per-request
// timeout.
type UpstreamConfig struct {
	BaseURL    string        `json:"base_url"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
}

// RateLimitConfig bounds the upstream client's sliding-window rate limiter.
type RateLimitConfig struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
}

// StorageConfig locates the analyzer's persisted state on disk.
type StorageConfig struct {
	DatabasePath string `json:"database_path"`
	CacheDir     string `json:"cache_dir"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins"`
}

// AnalysisConfig holds the orchestrator's defaults and bounds.
type AnalysisConfig struct {
	Timeout             time.Duration     `json:"timeout"`
	Workers             int               `json:"workers"`
	DefaultStrategy     string            `json:"default_strategy"`
	DefaultMode         string            `json:"default_mode"`
	PollIntervalSeconds int               `json:"poll_interval_seconds"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Upstream: UpstreamConfig{
			BaseURL:    "https://api.warframe.market/v1",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		RateLimit: RateLimitConfig{
			Requests: 3,
			Window:   time.Second,
		},
		Storage: StorageConfig{
			DatabasePath: "cache/market_runs.sqlite",
			CacheDir:     "cache",
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Analysis: AnalysisConfig{
			Timeout:             600 * time.Second,
			Workers:             8,
			DefaultStrategy:     "balanced",
			DefaultMode:         "instant",
			PollIntervalSeconds: 0,
		},
	}
}

var validStrategies = map[string]bool{"safe_steady": true, "balanced": true, "aggressive": true}
var validModes = map[string]bool{"instant": true, "patient": true}

// Validate checks Config for obviously invalid values and returns a combined
// error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		errs = append(errs, "upstream: base_url must not be empty")
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, "upstream: timeout must be > 0")
	}
	if c.Upstream.MaxRetries < 0 {
		errs = append(errs, "upstream: max_retries must be >= 0")
	}

	if c.RateLimit.Requests <= 0 {
		errs = append(errs, "rate_limit: requests must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, "rate_limit: window must be > 0")
	}

	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		errs = append(errs, "storage: database_path must not be empty")
	}
	if strings.TrimSpace(c.Storage.CacheDir) == "" {
		errs = append(errs, "storage: cache_dir must not be empty")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Analysis.Timeout <= 0 {
		errs = append(errs, "analysis: timeout must be > 0")
	}
	if c.Analysis.Workers <= 0 {
		errs = append(errs, "analysis: workers must be > 0")
	}
	if !validStrategies[c.Analysis.DefaultStrategy] {
		errs = append(errs, fmt.Sprintf("analysis: unknown default_strategy %q (valid: safe_steady, balanced, aggressive)", c.Analysis.DefaultStrategy))
	}
	if !validModes[c.Analysis.DefaultMode] {
		errs = append(errs, fmt.Sprintf("analysis: unknown default_mode %q (valid: instant, patient)", c.Analysis.DefaultMode))
	}
	if c.Analysis.PollIntervalSeconds < 0 {
		errs = append(errs, "analysis: poll_interval_seconds must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
