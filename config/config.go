// Package config loads service configuration from a YAML file with
// sane defaults, and wires the zerolog logger the rest of the service
// shares. Flags in cmd/server override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// DBPath is the SQLite database path; ":memory:" for ephemeral runs.
	DBPath string `yaml:"db_path"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogPretty switches to the human console writer (dev use).
	LogPretty bool `yaml:"log_pretty"`

	// RecalcCron is the cron spec for the background recalculation job.
	// Empty disables the job.
	RecalcCron string `yaml:"recalc_cron"`

	// RateLimitRPS caps requests per second across the API; 0 disables.
	RateLimitRPS float64 `yaml:"rate_limit_rps"`

	// RateLimitBurst is the bucket size for the limiter.
	RateLimitBurst int `yaml:"rate_limit_burst"`

	// AllowedOrigins is the CORS allowlist for the frontend.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:           8080,
		DBPath:         "plans.db",
		LogLevel:       "info",
		RecalcCron:     "0 3 * * *", // nightly
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
	}
}

// Load reads a YAML config file, layered over defaults. Unknown keys
// are rejected so typos fail loudly at startup.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.DBPath == "" {
		return cfg, errors.New("db_path must not be empty")
	}
	return cfg, nil
}

// NewLogger builds the shared zerolog logger.
func NewLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
