package sync

import (
	"context"
	"log/slog"
	"time"
)

// ShouldAutoRefresh reports whether interval has elapsed since last. A nil
// last is never due; callers seed it instead.
func ShouldAutoRefresh(now time.Time, last *time.Time, interval time.Duration) bool {
	if last == nil {
		return false
	}
	return now.Sub(*last) >= interval
}

// RefreshIfDue requests a refresh when the automatic interval has elapsed
// since the later of the last recorded sync and the last attempted run, so a
// run that fails or writes nothing still waits a full interval before the next
// one. Without a recorded sync the reference point is seeded once so the first
// refresh becomes due after the first-sync grace.
func (o *Orchestrator) RefreshIfDue(ctx context.Context) bool {
	if o.IsFetching() {
		return false
	}

	interval, err := o.syncInterval(ctx)
	if err != nil {
		slog.Warn("Cannot schedule automatic refresh", "error", err)
		return false
	}

	last, err := o.settings.LastSyncTime(ctx)
	if err != nil {
		slog.Warn("Failed to read last sync time", "error", err)
		return false
	}
	if last == nil {
		last = o.seedLastSync(interval)
	}
	ref := latest(last, o.lastAttempt())

	if !ShouldAutoRefresh(o.now(), ref, interval) {
		return false
	}
	slog.Info("Automatic refresh due", "since", ref.Format(time.RFC3339), "interval", interval.String())
	return o.RequestRefresh(ctx)
}

func (o *Orchestrator) lastAttempt() *time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status.LastAttempt
}

func latest(a, b *time.Time) *time.Time {
	if a == nil || (b != nil && b.After(*a)) {
		return b
	}
	return a
}

// seedLastSync returns the in-memory reference time used until a first sync is recorded
func (o *Orchestrator) seedLastSync(interval time.Duration) *time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seeded == nil {
		seed := o.now().Add(-interval).Add(o.cfg.GetFirstSyncGrace())
		o.seeded = &seed
		slog.Info("No previous sync recorded, first automatic refresh scheduled",
			"due_at", seed.Add(interval).Format(time.RFC3339))
	}
	return o.seeded
}
