// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Salary cap bounds exposed to operators. The cap moves in whole steps.
const (
	DefaultSalaryCap = 50_000
	MinSalaryCap     = 40_000
	MaxSalaryCap     = 50_000
	SalaryCapStep    = 1_000
)

// Store backends accepted by StoreBackend.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendS3    = "s3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SalaryCap is the budget every submitted lineup must fit under.
	SalaryCap int `koanf:"salary_cap"`

	// AdminSecret guards the admin endpoints. Empty disables them.
	AdminSecret string `koanf:"admin_secret"`

	// StoreBackend selects the lineup store: file, redis or s3.
	StoreBackend string `koanf:"store_backend"`

	// LineupsDir is where the file store keeps one JSON document per user.
	LineupsDir string `koanf:"lineups_dir"`

	RedisAddr string `koanf:"redis_addr"`
	RedisKey  string `koanf:"redis_key"`

	S3Bucket string `koanf:"s3_bucket"`
	S3Prefix string `koanf:"s3_prefix"`

	// CatalogFile optionally replaces the built-in contestant catalog.
	CatalogFile string `koanf:"catalog_file"`

	// OutcomeSeed seeds simulated results. Zero picks a time based seed.
	OutcomeSeed int64 `koanf:"outcome_seed"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory scoring queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the scoring job deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SubmitRatePerSec and SubmitBurst throttle submissions per client IP.
	SubmitRatePerSec float64 `koanf:"submit_rate_per_sec"`
	SubmitBurst      int     `koanf:"submit_burst"`

	// MaxStandingsLimit caps GET /v1/standings?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit"`

	// SessionTTL is how long an untouched draft session is kept, e.g. "2h".
	SessionTTL time.Duration `koanf:"session_ttl"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		SalaryCap:         DefaultSalaryCap,
		StoreBackend:      BackendFile,
		LineupsDir:        "lineups",
		RedisAddr:         "localhost:6379",
		RedisKey:          "dawgbowl:lineups",
		S3Prefix:          "lineups/",
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         10_000,
		DedupeSize:        100_000,
		SubmitRatePerSec:  2,
		SubmitBurst:       5,
		MaxStandingsLimit: 100,
		SessionTTL:        2 * time.Hour,
		MetricsEnabled:    true,
	}
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.SalaryCap < MinSalaryCap || c.SalaryCap > MaxSalaryCap {
		return fmt.Errorf("%w: salary_cap %d outside [%d, %d]", ErrInvalidConfig, c.SalaryCap, MinSalaryCap, MaxSalaryCap)
	}
	if c.SalaryCap%SalaryCapStep != 0 {
		return fmt.Errorf("%w: salary_cap %d is not a multiple of %d", ErrInvalidConfig, c.SalaryCap, SalaryCapStep)
	}

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendFile:
		if c.LineupsDir == "" {
			return fmt.Errorf("%w: lineups_dir is required for the file store", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.RedisAddr == "" || c.RedisKey == "" {
			return fmt.Errorf("%w: redis_addr and redis_key are required for the redis store", ErrInvalidConfig)
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3_bucket is required for the s3 store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize < 1 {
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	}
	if c.SubmitRatePerSec <= 0 || c.SubmitBurst < 1 {
		return fmt.Errorf("%w: submit_rate_per_sec and submit_burst must be positive", ErrInvalidConfig)
	}
	if c.MaxStandingsLimit < 1 {
		return fmt.Errorf("%w: max_standings_limit must be positive", ErrInvalidConfig)
	}
	if c.SessionTTL < time.Minute {
		return fmt.Errorf("%w: session_ttl must be at least a minute", ErrInvalidConfig)
	}
	return nil
}
