// Package config loads server settings from defaults, an optional TOML file
// and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all runtime settings.
type Config struct {
	Port        string   `toml:"port"`
	DBPath      string   `toml:"db_path"`
	CORSOrigins []string `toml:"cors_allowed_origins"`
	GinMode     string   `toml:"gin_mode"`
	LogSQL      bool     `toml:"log_sql"`

	// FrontendDist is the built web client; empty disables static serving.
	FrontendDist string `toml:"frontend_dist_path"`

	Cijene   CijeneConfig   `toml:"cijene"`
	Search   SearchConfig   `toml:"search"`
	Snapshot SnapshotConfig `toml:"snapshot"`
}

type CijeneConfig struct {
	BaseURL   string   `toml:"base_url"`
	Token     string   `toml:"token"`
	RateLimit float64  `toml:"rate_limit"`
	Burst     int      `toml:"burst"`
	Timeout   Duration `toml:"timeout"`
	CacheSize int      `toml:"cache_size"`
}

type SearchConfig struct {
	BatchSize   int `toml:"batch_size"`
	MaxSessions int `toml:"max_sessions"`
}

type SnapshotConfig struct {
	Enabled bool `toml:"enabled"`
	// Hour of day (local time) at which the daily snapshot runs.
	Hour int `toml:"hour"`
	// HistoryConcurrency bounds parallel upstream fetches per history request.
	HistoryConcurrency int `toml:"history_concurrency"`
}

// Duration is a time.Duration that reads from TOML strings like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:        "8080",
		DBPath:      "./disscount.db",
		CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		GinMode:     "release",
		Cijene: CijeneConfig{
			BaseURL:   "https://api.cijene.dev",
			RateLimit: 5,
			Burst:     5,
			Timeout:   Duration{10 * time.Second},
			CacheSize: 512,
		},
		Search: SearchConfig{
			BatchSize:   50,
			MaxSessions: 1024,
		},
		Snapshot: SnapshotConfig{
			Enabled:            true,
			Hour:               6,
			HistoryConcurrency: 4,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// DISSCOUNT_CONFIG is consulted; a missing file is not an error only when no
// path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("DISSCOUNT_CONFIG")
		explicit = path != ""
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				return cfg, nil
			}
			return cfg, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DB_PATH", &c.DBPath)
	str("GIN_MODE", &c.GinMode)
	str("FRONTEND_DIST_PATH", &c.FrontendDist)
	str("CIJENE_API_URL", &c.Cijene.BaseURL)
	str("CIJENE_API_TOKEN", &c.Cijene.Token)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("LOG_SQL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_SQL %q: %w", v, err)
		}
		c.LogSQL = b
	}
	if v, ok := lookup("CIJENE_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CIJENE_RATE_LIMIT %q: %w", v, err)
		}
		c.Cijene.RateLimit = f
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SEARCH_BATCH_SIZE", &c.Search.BatchSize},
		{"SNAPSHOT_HOUR", &c.Snapshot.Hour},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
		}
		*e.dst = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Cijene.BaseURL) == "":
		return errors.New("CIJENE_API_URL is required")
	case strings.TrimSpace(c.Cijene.Token) == "":
		return errors.New("CIJENE_API_TOKEN is required")
	case c.Search.BatchSize < 1:
		return fmt.Errorf("search batch size must be at least 1, got %d", c.Search.BatchSize)
	case c.Snapshot.Hour < 0 || c.Snapshot.Hour > 23:
		return fmt.Errorf("snapshot hour must be between 0 and 23, got %d", c.Snapshot.Hour)
	case c.Cijene.RateLimit < 0:
		return fmt.Errorf("rate limit cannot be negative, got %v", c.Cijene.RateLimit)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
