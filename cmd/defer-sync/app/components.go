package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/ritualhelper/defer-sync/internal/config"
	"github.com/ritualhelper/defer-sync/internal/pricecache"
	"github.com/ritualhelper/defer-sync/internal/pricing"
	"github.com/ritualhelper/defer-sync/internal/status"
	"github.com/ritualhelper/defer-sync/internal/store"
	pkgsync "github.com/ritualhelper/defer-sync/internal/sync"
	"github.com/ritualhelper/defer-sync/internal/telemetry"
	"github.com/ritualhelper/defer-sync/internal/versions"
)

const appName = "defer-sync"

// components holds what every command needs, built from flags and config
type components struct {
	cfg         *config.Config
	store       store.Store
	settings    *store.Settings
	statusStore status.StatusPersistence
	telemetry   *telemetry.Telemetry
}

func newComponents(ctx context.Context, v *viper.Viper) (*components, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	if t := v.GetString("store-type"); t != "" {
		cfg.Store.Type = t
	}

	storeType := cfg.GetStoreType()
	storePath := v.GetString("store-path")
	if storePath == "" {
		storePath = cfg.Store.Path
	}
	if storePath == "" && storeType != store.TypeMemory {
		if storePath, err = defaultStorePath(storeType); err != nil {
			return nil, err
		}
	}

	s, err := store.Open(ctx, storeType, storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", storeType, err)
	}
	slog.Debug("Opened settings store", "type", storeType, "path", storePath)

	stateDir := v.GetString("state-dir")
	if stateDir == "" {
		stateDir = filepath.Join(xdg.StateHome, appName)
	}

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return &components{
		cfg:         cfg,
		store:       s,
		settings:    store.NewSettings(s),
		statusStore: status.NewFileStatusPersistence(stateDir),
		telemetry:   tel,
	}, nil
}

// loadConfig reads --config, or config.yaml from the XDG config dirs when present
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		if found, err := xdg.SearchConfigFile(filepath.Join(appName, "config.yaml")); err == nil {
			path = found
		}
	}

	var opts []config.Option
	if path != "" {
		slog.Debug("Loading configuration", "path", path)
		opts = append(opts, config.WithConfigPath(path))
	}
	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func defaultStorePath(storeType string) (string, error) {
	name := "settings.json"
	if storeType == store.TypeSQLite {
		name = "settings.db"
	}
	path, err := xdg.DataFile(filepath.Join(appName, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve default store path: %w", err)
	}
	return path, nil
}

// newOrchestrator wires the HTTP fetcher, the price cache and telemetry
func (c *components) newOrchestrator() (*pkgsync.Orchestrator, error) {
	meters := c.telemetry.MeterProvider()
	syncMetrics, err := telemetry.NewSyncMetrics(meters)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	fetchMetrics, err := telemetry.NewFetchMetrics(meters)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch metrics: %w", err)
	}
	tracer := c.telemetry.Tracer()

	cache := pricecache.New(c.cfg.GetCacheTTL(), pricecache.WithFetchMetrics(fetchMetrics))
	factory := pkgsync.NewHTTPFetcherFactory(c.cfg,
		pricing.WithFetchMetrics(fetchMetrics),
		pricing.WithTracer(tracer))

	return pkgsync.New(c.cfg, c.settings, cache,
		pkgsync.WithFetcherFactory(factory),
		pkgsync.WithStatusPersistence(c.statusStore),
		pkgsync.WithSyncMetrics(syncMetrics),
		pkgsync.WithTracer(tracer),
	), nil
}

func (c *components) Close(ctx context.Context) error {
	return errors.Join(
		c.telemetry.Shutdown(ctx),
		c.store.Close(),
	)
}
