package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ritualhelper/defer-sync/internal/config"
	"github.com/ritualhelper/defer-sync/internal/deferlist"
)

// runConfig is the effective configuration of one run. Values held in the
// settings store win over the config file.
type runConfig struct {
	league     string
	baseURL    string
	floor      decimal.Decimal
	mode       deferlist.Mode
	interval   time.Duration
	categories []string
}

func (o *Orchestrator) resolve(ctx context.Context) (*runConfig, error) {
	rc := &runConfig{
		league:     strings.TrimSpace(o.cfg.GetLeagueName()),
		baseURL:    o.cfg.GetBaseURL(),
		categories: o.cfg.GetCategories(),
	}

	if league, ok, err := o.settings.LeagueName(ctx); err != nil {
		return nil, fmt.Errorf("failed to read league name: %w", err)
	} else if ok {
		rc.league = league
	}
	if rc.league == "" {
		return nil, config.NewConfigError("leagueName", "league name is not configured")
	}

	floor, hasFloor := o.cfg.GetMinValueFloor()
	if stored, ok, err := o.settings.MinValueFloor(ctx); err != nil {
		return nil, config.NewConfigError("minValueFloor", err.Error())
	} else if ok {
		floor, hasFloor = stored, true
	}
	if !hasFloor {
		return nil, config.NewConfigError("minValueFloor", "minimum value is not configured")
	}
	if floor.IsNegative() {
		return nil, config.NewConfigError("minValueFloor", "must not be negative")
	}
	rc.floor = floor

	interval, err := o.syncInterval(ctx)
	if err != nil {
		return nil, err
	}
	rc.interval = interval

	if o.cfg.Sync.ReplaceMode {
		rc.mode = deferlist.ModeReplace
	}
	if replace, ok, err := o.settings.ReplaceMode(ctx); err != nil {
		return nil, config.NewConfigError("replaceMode", err.Error())
	} else if ok {
		rc.mode = deferlist.ModeMerge
		if replace {
			rc.mode = deferlist.ModeReplace
		}
	}

	return rc, nil
}

// syncInterval returns the effective automatic refresh interval
func (o *Orchestrator) syncInterval(ctx context.Context) (time.Duration, error) {
	interval := o.cfg.GetSyncInterval()
	stored, ok, err := o.settings.SyncInterval(ctx)
	if err != nil {
		return 0, config.NewConfigError("syncIntervalMinutes", err.Error())
	}
	if ok {
		interval = stored
	}
	if interval <= 0 {
		return 0, config.NewConfigError("syncIntervalMinutes", "must be positive")
	}
	return interval, nil
}
