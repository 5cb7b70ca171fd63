// Package config builds an intentd runtime configuration in three layers:
// compiled-in defaults, environment variable overrides, then functional
// options, applied in that order and validated once at the end.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daqi-oss/intentd/internal/concurrency"
)

// Config holds every tunable of the intent pipeline: concurrency,
// execution timeouts, caching, history retention, and telemetry.
type Config struct {
	// MaxConcurrency bounds how many intents one batch may dispatch at
	// once. Zero selects concurrency.Compute(runtime.NumCPU()).
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" env:"INTENTD_MAX_CONCURRENCY"`

	Executor  ExecutorConfig  `json:"executor" yaml:"executor"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// ExecutorConfig carries a per-intent dispatch timeout setting. The value
// is loaded and validated here, but the CLI and HTTP service do not pass
// it on: execute_plan takes its timeout from the request and falls back
// to the façade's own 2000ms default.
type ExecutorConfig struct {
	DefaultTimeout time.Duration `json:"default_timeout" yaml:"default_timeout" env:"INTENTD_EXECUTOR_TIMEOUT" default:"5s"`
}

// CacheConfig governs the plan cache's backend and retention window.
type CacheConfig struct {
	PlanTTL time.Duration `json:"plan_ttl" yaml:"plan_ttl" env:"INTENTD_PLAN_CACHE_TTL" default:"2m"`
	// Backend is "memory" or "redis".
	Backend   string `json:"backend" yaml:"backend" env:"INTENTD_PLAN_CACHE_BACKEND" default:"memory"`
	RedisAddr string `json:"redis_addr" yaml:"redis_addr" env:"INTENTD_PLAN_CACHE_REDIS_ADDR" default:""`
}

// HistoryConfig selects and sizes the history store.
type HistoryConfig struct {
	// Backend is "memory", "sqlite", or "redis".
	Backend       string `json:"backend" yaml:"backend" env:"INTENTD_HISTORY_BACKEND" default:"memory"`
	RetentionDays int    `json:"retention_days" yaml:"retention_days" env:"INTENTD_HISTORY_RETENTION_DAYS" default:"30"`
	// DSN is the SQLite file path, used only when Backend is "sqlite".
	DSN string `json:"dsn" yaml:"dsn" env:"INTENTD_HISTORY_DSN" default:"intentd-history.db"`
	// RedisAddr is the Redis address, used only when Backend is "redis".
	RedisAddr string `json:"redis_addr" yaml:"redis_addr" env:"INTENTD_HISTORY_REDIS_ADDR" default:""`
}

// LoggingConfig carries the structured logger's output format and
// verbosity knobs.
type LoggingConfig struct {
	Format string `json:"format" yaml:"format" env:"INTENTD_LOG_FORMAT" default:"json"`
	Debug  bool   `json:"debug" yaml:"debug" env:"INTENTD_LOG_DEBUG" default:"false"`
}

// TelemetryConfig toggles OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" env:"INTENTD_TELEMETRY_ENABLED" default:"false"`
	Endpoint string `json:"endpoint" yaml:"endpoint" env:"INTENTD_TELEMETRY_ENDPOINT" default:""`
}

// Option is a functional option applied after environment loading.
type Option func(*Config) error

// DefaultConfig returns the compiled-in defaults, with MaxConcurrency
// derived from the host's logical CPU count.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: concurrency.Compute(runtime.NumCPU()),
		Executor:       ExecutorConfig{DefaultTimeout: 5 * time.Second},
		Cache:          CacheConfig{PlanTTL: 2 * time.Minute, Backend: "memory"},
		History:        HistoryConfig{Backend: "memory", RetentionDays: 30, DSN: "intentd-history.db"},
		Logging:        LoggingConfig{Format: "json", Debug: false},
		Telemetry:      TelemetryConfig{Enabled: false},
	}
}

// LoadFromEnv applies INTENTD_* environment overrides on top of the
// current values.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("INTENTD_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid INTENTD_MAX_CONCURRENCY %q: %w", v, err)
		}
		c.MaxConcurrency = n
	}
	if v := os.Getenv("INTENTD_EXECUTOR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid INTENTD_EXECUTOR_TIMEOUT %q: %w", v, err)
		}
		c.Executor.DefaultTimeout = d
	}
	if v := os.Getenv("INTENTD_PLAN_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid INTENTD_PLAN_CACHE_TTL %q: %w", v, err)
		}
		c.Cache.PlanTTL = d
	}
	if v := os.Getenv("INTENTD_PLAN_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("INTENTD_PLAN_CACHE_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("INTENTD_HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("INTENTD_HISTORY_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid INTENTD_HISTORY_RETENTION_DAYS %q: %w", v, err)
		}
		c.History.RetentionDays = n
	}
	if v := os.Getenv("INTENTD_HISTORY_DSN"); v != "" {
		c.History.DSN = v
	}
	if v := os.Getenv("INTENTD_HISTORY_REDIS_ADDR"); v != "" {
		c.History.RedisAddr = v
	}
	if v := os.Getenv("INTENTD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("INTENTD_LOG_DEBUG"); v != "" {
		c.Logging.Debug = parseBool(v)
	}
	if v := os.Getenv("INTENTD_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("INTENTD_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
		c.Telemetry.Enabled = true
	}
	return nil
}

// LoadFromFile merges a JSON or YAML config file into c, selected by the
// file's extension (.json, or .yaml/.yml). Fields absent from the file
// leave the current value untouched.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config: parse %s as json: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config: parse %s as yaml: %w", path, err)
		}
	default:
		return fmt.Errorf("config: unsupported config file extension %q", ext)
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Validate rejects configurations that would make the pipeline
// unrunnable.
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("config: max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}
	if c.Executor.DefaultTimeout <= 0 {
		return fmt.Errorf("config: executor.default_timeout must be positive, got %s", c.Executor.DefaultTimeout)
	}
	if c.History.Backend != "memory" && c.History.Backend != "sqlite" && c.History.Backend != "redis" {
		return fmt.Errorf("config: history.backend must be \"memory\", \"sqlite\", or \"redis\", got %q", c.History.Backend)
	}
	if c.History.Backend == "redis" && c.History.RedisAddr == "" {
		return fmt.Errorf("config: history.redis_addr is required when history.backend is \"redis\"")
	}
	if c.History.RetentionDays <= 0 {
		return fmt.Errorf("config: history.retention_days must be positive, got %d", c.History.RetentionDays)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("config: cache.backend must be \"memory\" or \"redis\", got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("config: cache.redis_addr is required when cache.backend is \"redis\"")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("config: telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}

// New builds a Config from defaults, then environment, then opts, and
// validates the result.
func New(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: apply option: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithConfigFile merges a JSON or YAML config file on top of the current
// values. Applied in option order, so pass it before any With* overrides
// that should take precedence over the file.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// WithMaxConcurrency overrides the batch concurrency bound.
func WithMaxConcurrency(n int) Option {
	return func(c *Config) error {
		c.MaxConcurrency = n
		return nil
	}
}

// WithExecutorTimeout overrides Executor.DefaultTimeout (see
// ExecutorConfig: the façade does not read it).
func WithExecutorTimeout(d time.Duration) Option {
	return func(c *Config) error {
		c.Executor.DefaultTimeout = d
		return nil
	}
}

// WithPlanCacheTTL overrides the plan cache's retention window.
func WithPlanCacheTTL(d time.Duration) Option {
	return func(c *Config) error {
		c.Cache.PlanTTL = d
		return nil
	}
}

// WithPlanCacheRedis selects the Redis plan cache backend at addr.
func WithPlanCacheRedis(addr string) Option {
	return func(c *Config) error {
		c.Cache.Backend = "redis"
		c.Cache.RedisAddr = addr
		return nil
	}
}

// WithHistoryBackend selects the history store backend and, for
// "sqlite", its DSN.
func WithHistoryBackend(backend, dsn string) Option {
	return func(c *Config) error {
		c.History.Backend = backend
		if dsn != "" {
			c.History.DSN = dsn
		}
		return nil
	}
}

// WithHistoryDSN overrides the history store's DSN without changing the
// selected backend.
func WithHistoryDSN(dsn string) Option {
	return func(c *Config) error {
		c.History.DSN = dsn
		return nil
	}
}

// WithHistoryRedisAddr selects the Redis history store backend at addr.
func WithHistoryRedisAddr(addr string) Option {
	return func(c *Config) error {
		c.History.Backend = "redis"
		c.History.RedisAddr = addr
		return nil
	}
}

// WithHistoryRetentionDays overrides the history retention window.
func WithHistoryRetentionDays(days int) Option {
	return func(c *Config) error {
		c.History.RetentionDays = days
		return nil
	}
}

// WithTelemetry enables OTLP export to endpoint.
func WithTelemetry(endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

// WithLogFormat overrides the structured logger's output format ("json"
// or "text").
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithDebugLogging toggles debug-level log emission.
func WithDebugLogging(enabled bool) Option {
	return func(c *Config) error {
		c.Logging.Debug = enabled
		return nil
	}
}
