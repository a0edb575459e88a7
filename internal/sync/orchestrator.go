package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ritualhelper/defer-sync/internal/config"
	"github.com/ritualhelper/defer-sync/internal/deferlist"
	"github.com/ritualhelper/defer-sync/internal/httpclient"
	"github.com/ritualhelper/defer-sync/internal/otel"
	"github.com/ritualhelper/defer-sync/internal/pricecache"
	"github.com/ritualhelper/defer-sync/internal/pricing"
	"github.com/ritualhelper/defer-sync/internal/ratelimit"
	"github.com/ritualhelper/defer-sync/internal/status"
	"github.com/ritualhelper/defer-sync/internal/store"
	"github.com/ritualhelper/defer-sync/internal/telemetry"
)

// State is the orchestrator's run state
type State int32

const (
	// StateIdle means no run is in flight
	StateIdle State = iota
	// StateFetching means a run is in flight
	StateFetching
)

var (
	// ErrAlreadyRunning is returned by Refresh when another run is in flight
	ErrAlreadyRunning = errors.New("sync already running")

	// ErrCancelled is returned when a run observed cancellation before writing
	ErrCancelled = errors.New("sync cancelled")
)

// FetcherFactory builds a fetcher for one league and API root
type FetcherFactory func(league, baseURL string) pricing.Fetcher

// Orchestrator runs at most one synchronization at a time. A run fetches every
// tracked category through the price cache, turns valuable items into api
// entries, reconciles them with the stored list and writes the result back.
type Orchestrator struct {
	cfg        *config.Config
	settings   *store.Settings
	cache      *pricecache.Cache
	newFetcher FetcherFactory
	now        func() time.Time

	statusStore status.StatusPersistence
	syncMetrics *telemetry.SyncMetrics
	tracer      trace.Tracer

	state atomic.Int32

	mu         gosync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
	fetcher    pricing.Fetcher
	fetcherKey string
	seeded     *time.Time
	status     status.SyncStatus
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithFetcherFactory replaces the HTTP fetcher
func WithFetcherFactory(f FetcherFactory) Option {
	return func(o *Orchestrator) {
		o.newFetcher = f
	}
}

// WithStatusPersistence saves the status after every run
func WithStatusPersistence(p status.StatusPersistence) Option {
	return func(o *Orchestrator) {
		o.statusStore = p
	}
}

// WithSyncMetrics records run metrics
func WithSyncMetrics(m *telemetry.SyncMetrics) Option {
	return func(o *Orchestrator) {
		o.syncMetrics = m
	}
}

// WithTracer enables a span per run
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// NewHTTPFetcherFactory returns a factory whose fetchers share one HTTP
// client and one rate limiter
func NewHTTPFetcherFactory(cfg *config.Config, opts ...pricing.Option) FetcherFactory {
	client := httpclient.NewDefaultClient(cfg.GetHTTPTimeout())
	limiter := ratelimit.New(cfg.GetRequestSpacing())
	opts = append([]pricing.Option{
		pricing.WithPerPage(cfg.GetPerPage()),
		pricing.WithMaxAttempts(cfg.GetMaxAttempts()),
	}, opts...)
	return func(league, baseURL string) pricing.Fetcher {
		return pricing.NewPagedFetcher(client, limiter, baseURL, league, opts...)
	}
}

// New creates an idle Orchestrator
func New(cfg *config.Config, settings *store.Settings, cache *pricecache.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		settings: settings,
		cache:    cache,
		now:      time.Now,
		status:   status.SyncStatus{Phase: status.SyncPhaseIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.newFetcher == nil {
		o.newFetcher = NewHTTPFetcherFactory(cfg)
	}
	return o
}

// IsFetching reports whether a run is in flight. It never blocks.
func (o *Orchestrator) IsFetching() bool {
	return State(o.state.Load()) == StateFetching
}

// Status returns a snapshot of the current or last run
func (o *Orchestrator) Status() status.SyncStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// RequestRefresh starts a run in the background and returns true, or returns
// false when a run is already in flight.
func (o *Orchestrator) RequestRefresh(ctx context.Context) bool {
	runCtx, runID, ok := o.begin(ctx)
	if !ok {
		slog.Info("Refresh already in progress, skipped duplicate")
		o.syncMetrics.RecordSkipped(ctx)
		return false
	}
	go func() {
		_ = o.execute(runCtx, runID)
	}()
	return true
}

// Refresh runs a synchronization and waits for it. It returns
// ErrAlreadyRunning when another run is in flight.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	runCtx, runID, ok := o.begin(ctx)
	if !ok {
		o.syncMetrics.RecordSkipped(ctx)
		return ErrAlreadyRunning
	}
	return o.execute(runCtx, runID)
}

// Cancel asks the in-flight run to stop at its next checkpoint. It returns
// false when nothing is running.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel == nil {
		return false
	}
	slog.Info("Sync cancellation requested", "run_id", o.status.RunID)
	o.cancel()
	return true
}

// Wait blocks until the in-flight run, if any, has finished
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

// begin moves Idle to Fetching and prepares the run context. The swap happens
// under mu so Wait never observes Fetching with the previous run's done channel.
func (o *Orchestrator) begin(ctx context.Context) (context.Context, string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateFetching)) {
		return nil, "", false
	}

	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.NewString()
	now := o.now()

	o.cancel = cancel
	o.done = make(chan struct{})
	o.status.Phase = status.SyncPhaseSyncing
	o.status.Message = "Sync in progress"
	o.status.RunID = runID
	o.status.LastAttempt = &now
	o.status.AttemptCount++

	return runCtx, runID, true
}

// execute performs the run and always returns the orchestrator to Idle
func (o *Orchestrator) execute(ctx context.Context, runID string) (err error) {
	start := o.now()
	var res *runResult

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Sync panicked", "run_id", runID, "panic", r)
			err = fmt.Errorf("sync panicked: %v", r)
			res = nil
		}
		o.finish(ctx, runID, start, res, err)
	}()

	res, err = o.run(ctx, runID)
	return err
}

// finish records the outcome and releases the single-flight guard
func (o *Orchestrator) finish(ctx context.Context, runID string, start time.Time, res *runResult, err error) {
	duration := o.now().Sub(start)
	mode := ""
	if res != nil {
		mode = res.mode.String()
	}
	o.syncMetrics.RecordSyncDuration(ctx, mode, duration, err == nil)

	o.mu.Lock()
	st := &o.status
	st.Mode = mode
	switch {
	case errors.Is(err, ErrCancelled):
		st.Phase = status.SyncPhaseCancelled
		st.Message = "Sync cancelled before the list was written"
	case err != nil:
		st.Phase = status.SyncPhaseFailed
		st.Message = err.Error()
	case res.skipped:
		st.Phase = status.SyncPhaseSkipped
		st.Message = "No valuable items found, list left unchanged"
	default:
		st.Phase = status.SyncPhaseComplete
		st.Message = fmt.Sprintf("Wrote %d entries", res.manual+res.api)
		st.LastSyncTime = &res.syncedAt
		st.ManualCount = res.manual
		st.APICount = res.api
		st.AttemptCount = 0
	}
	snapshot := *st
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	done := o.done
	o.mu.Unlock()

	if o.statusStore != nil {
		if saveErr := o.statusStore.SaveStatus(context.WithoutCancel(ctx), &snapshot); saveErr != nil {
			slog.Warn("Failed to persist sync status", "run_id", runID, "error", saveErr)
		}
	}

	if err != nil {
		slog.Error("Sync failed", "run_id", runID, "duration", duration.String(), "error", err)
	} else {
		slog.Info("Sync finished", "run_id", runID, "phase", snapshot.Phase, "duration", duration.String())
	}

	o.state.Store(int32(StateIdle))
	close(done)
}

type runResult struct {
	mode     deferlist.Mode
	skipped  bool
	manual   int
	api      int
	syncedAt time.Time
}

// run is the body of one synchronization. Nothing is written unless every
// step before the write succeeded and no cancellation was observed.
func (o *Orchestrator) run(ctx context.Context, runID string) (*runResult, error) {
	ctx, span := otel.StartSpan(ctx, o.tracer, "sync.Run",
		trace.WithAttributes(otel.AttrRunID.String(runID)))
	defer span.End()

	rc, err := o.resolve(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrLeague.String(rc.league), otel.AttrSyncMode.String(rc.mode.String()))
	res := &runResult{mode: rc.mode}

	slog.Info("Starting sync",
		"run_id", runID,
		"league", rc.league,
		"mode", rc.mode.String(),
		"min_value", rc.floor.String())

	fetcher := o.fetcherFor(rc)
	listings := make([][]pricing.PricedItem, len(rc.categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range rc.categories {
		g.Go(func() error {
			listings[i] = o.cache.GetOrFetch(gctx, category, func(ctx context.Context) ([]pricing.PricedItem, error) {
				return fetcher.FetchAll(ctx, category)
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := checkpoint(ctx, "after fetch"); err != nil {
		return res, err
	}

	apiEntries := buildAPIEntries(listings, rc.floor)
	if len(apiEntries) == 0 {
		slog.Info("No valuable items found, keeping current list", "run_id", runID)
		res.skipped = true
		return res, nil
	}
	slog.Info("Generated api entries", "run_id", runID, "count", len(apiEntries))

	current, err := o.settings.CuratedList(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return res, fmt.Errorf("failed to load curated list: %w", err)
	}

	merged := deferlist.Merge(current, apiEntries, rc.mode)
	res.manual, res.api = deferlist.Split(merged)
	slog.Info("Reconciled curated list",
		"run_id", runID,
		"before", len(current),
		"after", len(merged),
		"manual", res.manual,
		"api", res.api)

	if err := checkpoint(ctx, "before write"); err != nil {
		return res, err
	}

	res.syncedAt = o.now()
	if err := o.settings.Commit(ctx, merged, res.syncedAt); err != nil {
		otel.RecordError(span, err)
		return res, fmt.Errorf("failed to write curated list: %w", err)
	}

	o.syncMetrics.RecordEntries(ctx, res.manual, res.api)
	span.SetAttributes(otel.AttrResultCount.Int(len(merged)))
	return res, nil
}

// fetcherFor returns the cached fetcher, rebuilding it and dropping cached
// prices when the league or API root changed since the last run
func (o *Orchestrator) fetcherFor(rc *runConfig) pricing.Fetcher {
	key := rc.baseURL + "\x00" + rc.league

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fetcher != nil && o.fetcherKey == key {
		return o.fetcher
	}
	if o.fetcher != nil {
		slog.Info("League or API changed, rebuilding price fetcher", "league", rc.league, "base_url", rc.baseURL)
		o.cache.Invalidate()
	}
	o.fetcher = o.newFetcher(rc.league, rc.baseURL)
	o.fetcherKey = key
	return o.fetcher
}

func checkpoint(ctx context.Context, step string) error {
	if err := ctx.Err(); err != nil {
		slog.Info("Sync cancelled", "step", step)
		return fmt.Errorf("%w %s: %w", ErrCancelled, step, err)
	}
	return nil
}
