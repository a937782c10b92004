// Package config reads the cache settings from REQCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/krisalay/request-cache/eviction"
	"github.com/krisalay/request-cache/expiration"
	"github.com/krisalay/request-cache/writepolicy"
)

// Storage drivers for the reference cache.
const (
	DriverBolt   = "bbolt"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverNone   = "none"
)

// Config holds everything a process needs to build both caches.
type Config struct {
	DefaultTTL   time.Duration `env:"REQCACHE_DEFAULT_TTL"   envDefault:"5m"`
	Shards       int           `env:"REQCACHE_SHARDS"        envDefault:"8"`
	Capacity     int           `env:"REQCACHE_CAPACITY"      envDefault:"0"`
	Eviction     string        `env:"REQCACHE_EVICTION"      envDefault:"LRU"`
	Freshness    string        `env:"REQCACHE_FRESHNESS"     envDefault:"fixed"`
	RefreshAhead float64       `env:"REQCACHE_REFRESH_AHEAD" envDefault:"0"`

	ReferenceTTL  time.Duration `env:"REQCACHE_REFERENCE_TTL"  envDefault:"168h"`
	StorageDriver string        `env:"REQCACHE_STORAGE_DRIVER" envDefault:"bbolt"`
	StoragePath   string        `env:"REQCACHE_STORAGE_PATH"`
	WriteMode     string        `env:"REQCACHE_WRITE_MODE"     envDefault:"through"`
	WriteBuffer   int           `env:"REQCACHE_WRITE_BUFFER"   envDefault:"64"`

	BackendURL  string     `env:"REQCACHE_BACKEND_URL" envDefault:"http://localhost:8080"`
	MetricsAddr string     `env:"REQCACHE_METRICS_ADDR"`
	LogLevel    slog.Level `env:"REQCACHE_LOG_LEVEL"   envDefault:"INFO"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Eviction = strings.ToUpper(strings.TrimSpace(cfg.Eviction))
	cfg.Freshness = strings.ToLower(strings.TrimSpace(cfg.Freshness))
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.WriteMode = strings.ToLower(strings.TrimSpace(cfg.WriteMode))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	if c.DefaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("REQCACHE_DEFAULT_TTL must be positive, got %s", c.DefaultTTL))
	}
	if c.ReferenceTTL <= 0 {
		errs = append(errs, fmt.Errorf("REQCACHE_REFERENCE_TTL must be positive, got %s", c.ReferenceTTL))
	}
	if c.Shards <= 0 {
		errs = append(errs, fmt.Errorf("REQCACHE_SHARDS must be positive, got %d", c.Shards))
	}
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("REQCACHE_CAPACITY must not be negative, got %d", c.Capacity))
	}
	if _, err := eviction.NewEvictionPolicy(c.EvictionPolicy()); err != nil {
		errs = append(errs, fmt.Errorf("REQCACHE_EVICTION: %w", err))
	}
	switch expiration.Kind(c.Freshness) {
	case expiration.KindFixed, expiration.KindSliding:
	default:
		errs = append(errs, fmt.Errorf("REQCACHE_FRESHNESS must be fixed or sliding, got %q", c.Freshness))
	}
	if c.RefreshAhead < 0 || c.RefreshAhead >= 1 {
		errs = append(errs, fmt.Errorf("REQCACHE_REFRESH_AHEAD must be in [0, 1), got %v", c.RefreshAhead))
	}
	switch c.StorageDriver {
	case DriverBolt, DriverSQLite, DriverFile:
	case DriverMemory, DriverNone:
	default:
		errs = append(errs, fmt.Errorf("REQCACHE_STORAGE_DRIVER: unknown driver %q", c.StorageDriver))
	}
	switch writepolicy.Mode(c.WriteMode) {
	case writepolicy.ModeThrough:
	case writepolicy.ModeBack:
		if c.WriteBuffer <= 0 {
			errs = append(errs, fmt.Errorf("REQCACHE_WRITE_BUFFER must be positive, got %d", c.WriteBuffer))
		}
	default:
		errs = append(errs, fmt.Errorf("REQCACHE_WRITE_MODE must be through or back, got %q", c.WriteMode))
	}
	if c.BackendURL == "" {
		errs = append(errs, errors.New("REQCACHE_BACKEND_URL is required"))
	}

	return errors.Join(errs...)
}

// EvictionPolicy returns the configured eviction policy type.
func (c Config) EvictionPolicy() eviction.PolicyType {
	return eviction.PolicyType(c.Eviction)
}

// FreshnessKind returns the configured freshness strategy.
func (c Config) FreshnessKind() expiration.Kind {
	return expiration.Kind(c.Freshness)
}

// Persistent reports whether the storage driver survives a restart.
func (c Config) Persistent() bool {
	switch c.StorageDriver {
	case DriverBolt, DriverSQLite, DriverFile:
		return true
	}
	return false
}
