// Package pricecache keeps the last good price listing per category.
package pricecache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ritualhelper/defer-sync/internal/pricing"
	"github.com/ritualhelper/defer-sync/internal/telemetry"
)

// DefaultTTL is how long a non-empty listing is served without refetching
const DefaultTTL = 5 * time.Minute

// FetchFunc loads a fresh listing for one category
type FetchFunc func(ctx context.Context) ([]pricing.PricedItem, error)

// slot is replaced as a whole, never edited in place. A partial slot holds a
// truncated listing and is never fresh.
type slot struct {
	items     []pricing.PricedItem
	fetchedAt time.Time
	partial   bool
}

func (s slot) good() bool {
	return len(s.items) > 0 && !s.partial
}

// Cache holds one slot per category
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *telemetry.FetchMetrics

	mu    sync.RWMutex
	slots map[string]slot
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithFetchMetrics records hit, miss and stale lookups
func WithFetchMetrics(m *telemetry.FetchMetrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates an empty cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[string]slot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns the cached listing for category while it is fresh and
// non-empty. Otherwise it calls fetch: a complete result, even an empty one,
// replaces the slot; a failure is logged and the previous slot is returned as is.
//
// A truncated result (pricing.ErrTruncated) never replaces a complete listing.
// It is kept only when the slot has nothing better, and then stays stale so the
// next lookup fetches again. A walk cut short by cancellation is never stored.
func (c *Cache) GetOrFetch(ctx context.Context, category string, fetch FetchFunc) []pricing.PricedItem {
	c.mu.RLock()
	current, ok := c.slots[category]
	c.mu.RUnlock()

	if ok && current.good() && c.now().Sub(current.fetchedAt) < c.ttl {
		c.metrics.RecordCacheLookup(ctx, category, telemetry.CacheHit)
		return current.items
	}

	items, err := fetch(ctx)
	switch {
	case err == nil:
	case errors.Is(err, pricing.ErrTruncated):
		return c.storePartial(ctx, category, current, items, err)
	default:
		slog.Warn("Price fetch failed, serving cached listing",
			"category", category,
			"cached_items", len(current.items),
			"error", err)
		c.metrics.RecordCacheLookup(ctx, category, telemetry.CacheStale)
		return current.items
	}

	c.mu.Lock()
	c.slots[category] = slot{items: items, fetchedAt: c.now()}
	c.mu.Unlock()

	c.metrics.RecordCacheLookup(ctx, category, telemetry.CacheMiss)
	if len(items) == 0 {
		slog.Info("No items found", "category", category)
	} else {
		slog.Info("Cached price listing", "category", category, "items", len(items))
	}
	return items
}

func (c *Cache) storePartial(
	ctx context.Context,
	category string,
	current slot,
	items []pricing.PricedItem,
	err error,
) []pricing.PricedItem {
	c.metrics.RecordCacheLookup(ctx, category, telemetry.CacheStale)

	if current.good() {
		slog.Warn("Price listing truncated, serving cached listing",
			"category", category,
			"cached_items", len(current.items),
			"partial_items", len(items),
			"error", err)
		return current.items
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		slog.Warn("Price listing cancelled, not cached",
			"category", category,
			"partial_items", len(items))
		if len(current.items) > len(items) {
			return current.items
		}
		return items
	}

	if len(items) > len(current.items) {
		c.mu.Lock()
		c.slots[category] = slot{items: items, fetchedAt: c.now(), partial: true}
		c.mu.Unlock()
		current.items = items
	}
	slog.Warn("Price listing truncated, serving partial listing",
		"category", category,
		"items", len(current.items),
		"error", err)
	return current.items
}

// Invalidate drops every slot
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[string]slot)
}

// FetchedAt reports when category was last refreshed
func (c *Cache) FetchedAt(category string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.slots[category]
	return s.fetchedAt, ok
}
