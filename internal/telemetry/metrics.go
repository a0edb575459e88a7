package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the meter name for sync run metrics
	SyncMetricsMeterName = "github.com/ritualhelper/defer-sync/sync"

	// FetchMetricsMeterName is the meter name for fetch and cache metrics
	FetchMetricsMeterName = "github.com/ritualhelper/defer-sync/fetch"
)

// Cache lookup outcomes recorded by FetchMetrics.RecordCacheLookup
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
)

// SyncMetrics holds the instruments for sync runs. A nil *SyncMetrics is a no-op.
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	entriesTotal metric.Int64Gauge
	skipped      metric.Int64Counter
}

// NewSyncMetrics creates SyncMetrics. A nil provider returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"defer_sync_run_duration_seconds",
		metric.WithDescription("Duration of defer-list sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	entriesTotal, err := meter.Int64Gauge(
		"defer_sync_entries_total",
		metric.WithDescription("Number of entries in the curated defer list after a sync"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter(
		"defer_sync_skipped_requests_total",
		metric.WithDescription("Refresh requests dropped because a sync was already running"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		entriesTotal: entriesTotal,
		skipped:      skipped,
	}, nil
}

// RecordSyncDuration records the duration of a sync run
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, mode string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("success", success),
	))
}

// RecordEntries records the size of the committed curated list
func (m *SyncMetrics) RecordEntries(ctx context.Context, manual, api int) {
	if m == nil || m.entriesTotal == nil {
		return
	}
	m.entriesTotal.Record(ctx, int64(manual), metric.WithAttributes(attribute.String("origin", "manual")))
	m.entriesTotal.Record(ctx, int64(api), metric.WithAttributes(attribute.String("origin", "api")))
}

// RecordSkipped counts a dropped duplicate refresh request
func (m *SyncMetrics) RecordSkipped(ctx context.Context) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.Add(ctx, 1)
}

// FetchMetrics holds the instruments for the paged fetcher and price cache.
// A nil *FetchMetrics is a no-op.
type FetchMetrics struct {
	pages        metric.Int64Counter
	cacheLookups metric.Int64Counter
}

// NewFetchMetrics creates FetchMetrics. A nil provider returns nil (no-op metrics).
func NewFetchMetrics(provider metric.MeterProvider) (*FetchMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(FetchMetricsMeterName)

	pages, err := meter.Int64Counter(
		"defer_sync_pages_fetched_total",
		metric.WithDescription("Listing pages requested from the pricing API"),
		metric.WithUnit("{page}"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"defer_sync_cache_lookups_total",
		metric.WithDescription("Price cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &FetchMetrics{pages: pages, cacheLookups: cacheLookups}, nil
}

// RecordPage counts one page request
func (m *FetchMetrics) RecordPage(ctx context.Context, category string, success bool) {
	if m == nil || m.pages == nil {
		return
	}
	m.pages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.Bool("success", success),
	))
}

// RecordCacheLookup counts a cache lookup with outcome CacheHit, CacheMiss or CacheStale
func (m *FetchMetrics) RecordCacheLookup(ctx context.Context, category, outcome string) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("outcome", outcome),
	))
}
