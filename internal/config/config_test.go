package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritualhelper/defer-sync/internal/telemetry"
)

func floatPtr(f float64) *float64 {
	return &f
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		yamlContent string
		wantConfig  *Config
		wantErr     string
	}{
		{
			name: "full config",
			yamlContent: `api:
  baseURL: https://prices.example.com/api/
  leagueName: Standard
  timeout: 10s
  perPage: 100
  maxAttempts: 3
rateLimit:
  spacing: 750ms
cache:
  ttl: 2m
sync:
  minValueFloor: 1.5
  interval: 15m
  replaceMode: true
  firstSyncGrace: 30s
  categories: [currency, ritual, fragments]
store:
  type: sqlite
  path: /var/lib/defer-sync/settings.db
plan:
  deferExisting: true
telemetry:
  enabled: true
  endpoint: otel:4318
  metrics:
    enabled: true`,
			wantConfig: &Config{
				API: APIConfig{
					BaseURL:     "https://prices.example.com/api/",
					LeagueName:  "Standard",
					Timeout:     "10s",
					PerPage:     100,
					MaxAttempts: 3,
				},
				RateLimit: RateLimitConfig{Spacing: "750ms"},
				Cache:     CacheConfig{TTL: "2m"},
				Sync: SyncConfig{
					MinValueFloor:  floatPtr(1.5),
					Interval:       "15m",
					ReplaceMode:    true,
					FirstSyncGrace: "30s",
					Categories:     []string{"currency", "ritual", "fragments"},
				},
				Store: StoreConfig{Type: "sqlite", Path: "/var/lib/defer-sync/settings.db"},
				Plan:  PlanConfig{DeferExisting: true},
				Telemetry: &telemetry.Config{
					Enabled:  true,
					Endpoint: "otel:4318",
					Metrics:  &telemetry.MetricsConfig{Enabled: true},
				},
			},
		},
		{
			name:        "empty file uses defaults",
			yamlContent: "",
			wantConfig:  &Config{},
		},
		{
			name:        "malformed yaml",
			yamlContent: "api: [unterminated",
			wantErr:     "failed to parse YAML config",
		},
		{
			name: "invalid values are all reported",
			yamlContent: `api:
  perPage: -1
rateLimit:
  spacing: soon
sync:
  minValueFloor: -3
store:
  type: redis`,
			wantErr: "api.perPage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := LoadConfig(WithConfigPath(writeConfig(t, tt.yamlContent)))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, cfg)
		})
	}
}

func TestLoadConfig_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `api:
  perPage: -1
rateLimit:
  spacing: soon
sync:
  minValueFloor: -3
  categories: ["currency", " "]
store:
  type: redis`)

	_, err := LoadConfig(WithConfigPath(path))
	require.Error(t, err)
	for _, field := range []string{"api.perPage", "rateLimit.spacing", "sync.minValueFloor", "sync.categories[1]", "store.type"} {
		assert.Contains(t, err.Error(), field)
	}
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(WithConfigPath(""))
		assert.ErrorContains(t, err, "path is required")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")))
		assert.ErrorContains(t, err, "failed to evaluate symlinks")
	})

	t.Run("symlink is resolved", func(t *testing.T) {
		t.Parallel()
		target := writeConfig(t, "api:\n  leagueName: Hardcore\n")
		link := filepath.Join(t.TempDir(), "link.yaml")
		require.NoError(t, os.Symlink(target, link))

		cfg, err := LoadConfig(WithConfigPath(link))
		require.NoError(t, err)
		assert.Equal(t, "Hardcore", cfg.GetLeagueName())
	})
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DEFER_SYNC_BASE_URL", "http://localhost:9999")
	t.Setenv("DEFER_SYNC_LEAGUE", "Env League")
	t.Setenv("DEFER_SYNC_MIN_VALUE_FLOOR", "2.25")
	t.Setenv("DEFER_SYNC_SYNC_INTERVAL", "45m")
	t.Setenv("DEFER_SYNC_STORE_TYPE", "memory")
	t.Setenv("DEFER_SYNC_STORE_PATH", "/tmp/ignored")

	path := writeConfig(t, "api:\n  leagueName: File League\nsync:\n  minValueFloor: 1\n")
	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.GetBaseURL())
	assert.Equal(t, "Env League", cfg.GetLeagueName())
	floor, ok := cfg.GetMinValueFloor()
	assert.True(t, ok)
	assert.True(t, floor.Equal(decimal.RequireFromString("2.25")))
	assert.Equal(t, 45*time.Minute, cfg.GetSyncInterval())
	assert.Equal(t, StoreTypeMemory, cfg.GetStoreType())
	assert.Equal(t, "/tmp/ignored", cfg.Store.Path)
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("DEFER_SYNC_LEAGUE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultLeagueName, cfg.GetLeagueName())
	_, ok := cfg.GetMinValueFloor()
	assert.False(t, ok, "the floor has no default")
}

func TestGetters_Defaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, DefaultBaseURL, cfg.GetBaseURL())
	assert.Equal(t, DefaultLeagueName, cfg.GetLeagueName())
	assert.Equal(t, DefaultPerPage, cfg.GetPerPage())
	assert.Equal(t, DefaultMaxAttempts, cfg.GetMaxAttempts())
	assert.Equal(t, DefaultHTTPTimeout, cfg.GetHTTPTimeout())
	assert.Equal(t, DefaultRequestSpacing, cfg.GetRequestSpacing())
	assert.Equal(t, DefaultCacheTTL, cfg.GetCacheTTL())
	assert.Equal(t, DefaultSyncInterval, cfg.GetSyncInterval())
	assert.Equal(t, DefaultFirstSyncGrace, cfg.GetFirstSyncGrace())
	assert.Equal(t, DefaultCategories, cfg.GetCategories())
	assert.Equal(t, StoreTypeFile, cfg.GetStoreType())
}

func TestGetters_Overrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		got  func(*Config) any
		want any
	}{
		{
			name: "base url trailing slashes trimmed",
			cfg:  Config{API: APIConfig{BaseURL: "https://example.com/api//"}},
			got:  func(c *Config) any { return c.GetBaseURL() },
			want: "https://example.com/api",
		},
		{
			name: "zero per page falls back",
			cfg:  Config{API: APIConfig{PerPage: 0}},
			got:  func(c *Config) any { return c.GetPerPage() },
			want: DefaultPerPage,
		},
		{
			name: "unparseable spacing falls back",
			cfg:  Config{RateLimit: RateLimitConfig{Spacing: "fast"}},
			got:  func(c *Config) any { return c.GetRequestSpacing() },
			want: DefaultRequestSpacing,
		},
		{
			name: "zero interval falls back",
			cfg:  Config{Sync: SyncConfig{Interval: "0s"}},
			got:  func(c *Config) any { return c.GetSyncInterval() },
			want: DefaultSyncInterval,
		},
		{
			name: "custom ttl",
			cfg:  Config{Cache: CacheConfig{TTL: "90s"}},
			got:  func(c *Config) any { return c.GetCacheTTL() },
			want: 90 * time.Second,
		},
		{
			name: "custom categories",
			cfg:  Config{Sync: SyncConfig{Categories: []string{"ritual"}}},
			got:  func(c *Config) any { return c.GetCategories() },
			want: []string{"ritual"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.got(&tt.cfg))
		})
	}
}

func TestGetMinValueFloor(t *testing.T) {
	t.Parallel()

	cfg := &Config{Sync: SyncConfig{MinValueFloor: floatPtr(0.1)}}
	floor, ok := cfg.GetMinValueFloor()
	assert.True(t, ok)
	assert.Equal(t, "0.1", floor.String())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
	assert.NoError(t, Default().Validate())

	bad := &Config{
		Sync:      SyncConfig{FirstSyncGrace: "-1m"},
		Telemetry: &telemetry.Config{Enabled: true, Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: floatPtr(2)}},
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.firstSyncGrace")
	assert.Contains(t, err.Error(), "telemetry")
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := NewConfigError("minValueFloor", "minimum value is not configured")
	assert.EqualError(t, err, "invalid configuration: minValueFloor: minimum value is not configured")
}
