package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
)

// Settings reads and writes typed values through a Store
type Settings struct {
	store Store
}

// NewSettings wraps s
func NewSettings(s Store) *Settings {
	return &Settings{store: s}
}

// LastSyncTime returns the time of the last successful sync, or nil when none
// was recorded. An unreadable value is logged and reported as the zero time so
// the next check treats a refresh as due.
func (s *Settings) LastSyncTime(ctx context.Context) (*time.Time, error) {
	raw, ok, err := s.store.Get(ctx, KeyLastSyncTime)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("Ignoring unreadable last sync time", "value", raw, "error", err)
		return &time.Time{}, nil
	}
	return &t, nil
}

// CuratedList returns the stored list, normalized. A missing list is empty.
func (s *Settings) CuratedList(ctx context.Context) ([]deferlist.Entry, error) {
	raw, ok, err := s.store.Get(ctx, KeyCuratedList)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var entries []deferlist.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", KeyCuratedList, err)
	}
	return deferlist.Normalize(entries), nil
}

// Commit stores the list and the sync time in a single write
func (s *Settings) Commit(ctx context.Context, entries []deferlist.Entry, syncedAt time.Time) error {
	if entries == nil {
		entries = []deferlist.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", KeyCuratedList, err)
	}
	return s.store.PutAll(ctx, map[string]string{
		KeyCuratedList:  string(data),
		KeyLastSyncTime: syncedAt.Format(time.RFC3339Nano),
	})
}

// LeagueName returns the stored league, if any
func (s *Settings) LeagueName(ctx context.Context) (string, bool, error) {
	return s.get(ctx, KeyLeagueName)
}

// MinValueFloor returns the stored floor, if any
func (s *Settings) MinValueFloor(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, ok, err := s.get(ctx, KeyMinValueFloor)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse %s: %w", KeyMinValueFloor, err)
	}
	return d, true, nil
}

// SyncInterval returns the stored refresh interval, if any
func (s *Settings) SyncInterval(ctx context.Context) (time.Duration, bool, error) {
	raw, ok, err := s.get(ctx, KeySyncIntervalMinutes)
	if err != nil || !ok {
		return 0, false, err
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse %s: %w", KeySyncIntervalMinutes, err)
	}
	return time.Duration(minutes) * time.Minute, true, nil
}

// ReplaceMode returns the stored replace flag, if any
func (s *Settings) ReplaceMode(ctx context.Context) (bool, bool, error) {
	return s.getBool(ctx, KeyReplaceMode)
}

// DeferExisting returns the stored defer-existing flag, if any
func (s *Settings) DeferExisting(ctx context.Context) (bool, bool, error) {
	return s.getBool(ctx, KeyDeferExisting)
}

func (s *Settings) get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != "", nil
}

func (s *Settings) getBool(ctx context.Context, key string) (bool, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return false, false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return b, true, nil
}
