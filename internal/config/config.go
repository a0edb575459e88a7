// Package config provides configuration loading and management for the defer-list sync engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ritualhelper/defer-sync/internal/telemetry"
)

// EnvPrefix is the prefix for environment variable overrides (DEFER_SYNC_LEAGUE, ...)
const EnvPrefix = "DEFER_SYNC"

const (
	// DefaultBaseURL is the poe2scout API root
	DefaultBaseURL = "https://poe2scout.com/api"

	// DefaultLeagueName is used when neither the file nor the settings store names a league
	DefaultLeagueName = "Rise of the Abyssal"

	// DefaultPerPage is the page size requested from the listing endpoint
	DefaultPerPage = 250

	// DefaultRequestSpacing is the minimum spacing between outbound requests
	DefaultRequestSpacing = 500 * time.Millisecond

	// DefaultCacheTTL is how long a successful category fetch is served from memory
	DefaultCacheTTL = 5 * time.Minute

	// DefaultSyncInterval is the automatic refresh interval
	DefaultSyncInterval = 30 * time.Minute

	// DefaultFirstSyncGrace delays the first automatic refresh after a fresh install
	DefaultFirstSyncGrace = 5 * time.Minute

	// DefaultHTTPTimeout bounds a single page request
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxAttempts is the number of tries per page before the page counts as failed
	DefaultMaxAttempts = 2
)

// Store backend types
const (
	StoreTypeFile   = "file"
	StoreTypeSQLite = "sqlite"
	StoreTypeMemory = "memory"
)

// DefaultCategories are the two catalogs tracked by the plugin
var DefaultCategories = []string{"currency", "ritual"}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks before the traversal check; EvalSymlinks cleans the path.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}
		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	API       APIConfig         `yaml:"api"`
	RateLimit RateLimitConfig   `yaml:"rateLimit"`
	Cache     CacheConfig       `yaml:"cache"`
	Sync      SyncConfig        `yaml:"sync"`
	Store     StoreConfig       `yaml:"store"`
	Plan      PlanConfig        `yaml:"plan"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// APIConfig describes the remote pricing API
type APIConfig struct {
	// BaseURL is the API root; the fetcher appends /items/currency/{category}
	BaseURL string `yaml:"baseURL,omitempty"`

	// LeagueName is the default league. A league stored in the settings store wins.
	LeagueName string `yaml:"leagueName,omitempty"`

	// Timeout is the per-request timeout (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// PerPage is the page size sent to the listing endpoint
	PerPage int `yaml:"perPage,omitempty"`

	// MaxAttempts is the number of tries per page
	MaxAttempts int `yaml:"maxAttempts,omitempty"`
}

// RateLimitConfig configures request spacing
type RateLimitConfig struct {
	Spacing string `yaml:"spacing,omitempty"`
}

// CacheConfig configures the per-category price cache
type CacheConfig struct {
	TTL string `yaml:"ttl,omitempty"`
}

// SyncConfig holds the defaults for a synchronization run
type SyncConfig struct {
	// MinValueFloor is the minimum item value that produces a defer entry
	MinValueFloor *float64 `yaml:"minValueFloor,omitempty"`

	// Interval is the automatic refresh interval (e.g. "30m")
	Interval string `yaml:"interval,omitempty"`

	// ReplaceMode discards manual entries on every sync when true
	ReplaceMode bool `yaml:"replaceMode,omitempty"`

	// FirstSyncGrace is how long after first load the first automatic refresh becomes due
	FirstSyncGrace string `yaml:"firstSyncGrace,omitempty"`

	// Categories lists the remote catalogs to fetch
	Categories []string `yaml:"categories,omitempty"`
}

// StoreConfig selects the settings store backend
type StoreConfig struct {
	Type string `yaml:"type,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// PlanConfig configures click-plan generation
type PlanConfig struct {
	// DeferExisting also re-clicks candidates that are already deferred
	DeferExisting bool `yaml:"deferExisting,omitempty"`
}

// ConfigError reports a missing or invalid setting. A sync attempt that hits
// one aborts before any network call.
//
//nolint:revive // ConfigError reads better at call sites than config.Error
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError
func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{}
}

// LoadConfig loads and parses configuration from a YAML file, then applies
// DEFER_SYNC_* environment overrides. With no options only defaults and the
// environment are used.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	applyEnvOverrides(cfg, newEnv())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func applyEnvOverrides(cfg *Config, v *viper.Viper) {
	if s := v.GetString("BASE_URL"); s != "" {
		cfg.API.BaseURL = s
	}
	if s := v.GetString("LEAGUE"); s != "" {
		cfg.API.LeagueName = s
	}
	if s := v.GetString("MIN_VALUE_FLOOR"); s != "" {
		if f := v.GetFloat64("MIN_VALUE_FLOOR"); f >= 0 {
			cfg.Sync.MinValueFloor = &f
		}
	}
	if s := v.GetString("SYNC_INTERVAL"); s != "" {
		cfg.Sync.Interval = s
	}
	if s := v.GetString("STORE_TYPE"); s != "" {
		cfg.Store.Type = s
	}
	if s := v.GetString("STORE_PATH"); s != "" {
		cfg.Store.Path = s
	}
}

// Validate checks the configuration, returning every problem joined together
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	for field, value := range map[string]string{
		"api.timeout":         c.API.Timeout,
		"rateLimit.spacing":   c.RateLimit.Spacing,
		"cache.ttl":           c.Cache.TTL,
		"sync.interval":       c.Sync.Interval,
		"sync.firstSyncGrace": c.Sync.FirstSyncGrace,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, NewConfigError(field, fmt.Sprintf("must be a valid duration (e.g. '30m'): %v", err)))
			continue
		}
		if d < 0 {
			errs = append(errs, NewConfigError(field, "must not be negative"))
		}
	}

	if c.API.PerPage < 0 {
		errs = append(errs, NewConfigError("api.perPage", "must not be negative"))
	}
	if c.API.MaxAttempts < 0 {
		errs = append(errs, NewConfigError("api.maxAttempts", "must not be negative"))
	}
	if c.Sync.MinValueFloor != nil && *c.Sync.MinValueFloor < 0 {
		errs = append(errs, NewConfigError("sync.minValueFloor", "must not be negative"))
	}
	for i, category := range c.Sync.Categories {
		if strings.TrimSpace(category) == "" {
			errs = append(errs, NewConfigError(fmt.Sprintf("sync.categories[%d]", i), "must not be empty"))
		}
	}

	switch c.Store.Type {
	case "", StoreTypeFile, StoreTypeSQLite, StoreTypeMemory:
	default:
		errs = append(errs, NewConfigError("store.type",
			fmt.Sprintf("must be one of %s, %s, %s", StoreTypeFile, StoreTypeSQLite, StoreTypeMemory)))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

// GetBaseURL returns the API root without a trailing slash
func (c *Config) GetBaseURL() string {
	if c.API.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.API.BaseURL, "/")
}

// GetLeagueName returns the configured default league
func (c *Config) GetLeagueName() string {
	if c.API.LeagueName == "" {
		return DefaultLeagueName
	}
	return c.API.LeagueName
}

// GetPerPage returns the page size
func (c *Config) GetPerPage() int {
	if c.API.PerPage <= 0 {
		return DefaultPerPage
	}
	return c.API.PerPage
}

// GetMaxAttempts returns the number of tries per page
func (c *Config) GetMaxAttempts() int {
	if c.API.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return c.API.MaxAttempts
}

// GetHTTPTimeout returns the per-request timeout
func (c *Config) GetHTTPTimeout() time.Duration {
	return durationOr(c.API.Timeout, DefaultHTTPTimeout)
}

// GetRequestSpacing returns the minimum spacing between requests
func (c *Config) GetRequestSpacing() time.Duration {
	return durationOr(c.RateLimit.Spacing, DefaultRequestSpacing)
}

// GetCacheTTL returns the cache time-to-live
func (c *Config) GetCacheTTL() time.Duration {
	return durationOr(c.Cache.TTL, DefaultCacheTTL)
}

// GetSyncInterval returns the automatic refresh interval
func (c *Config) GetSyncInterval() time.Duration {
	return durationOr(c.Sync.Interval, DefaultSyncInterval)
}

// GetFirstSyncGrace returns the delay before the first automatic refresh
func (c *Config) GetFirstSyncGrace() time.Duration {
	return durationOr(c.Sync.FirstSyncGrace, DefaultFirstSyncGrace)
}

// GetMinValueFloor returns the configured floor and whether one was set
func (c *Config) GetMinValueFloor() (decimal.Decimal, bool) {
	if c.Sync.MinValueFloor == nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(*c.Sync.MinValueFloor), true
}

// GetCategories returns the tracked catalogs
func (c *Config) GetCategories() []string {
	if len(c.Sync.Categories) == 0 {
		return DefaultCategories
	}
	return c.Sync.Categories
}

// GetStoreType returns the settings store backend
func (c *Config) GetStoreType() string {
	if c.Store.Type == "" {
		return StoreTypeFile
	}
	return c.Store.Type
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
