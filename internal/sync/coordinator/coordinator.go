package coordinator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// basePollingInterval is how often the coordinator asks whether a refresh is due
	basePollingInterval = time.Minute
	// pollingJitter is the maximum random offset (±10 seconds) applied to the polling interval
	pollingJitter = 10 * time.Second
)

// Refresher is the part of the sync orchestrator the coordinator drives
//
//go:generate mockgen -destination=mocks/mock_refresher.go -package=mocks github.com/ritualhelper/defer-sync/internal/sync/coordinator Refresher
type Refresher interface {
	// RefreshIfDue starts a background refresh when the interval elapsed
	RefreshIfDue(ctx context.Context) bool
	// Cancel stops the in-flight refresh, if any
	Cancel() bool
	// Wait blocks until the in-flight refresh has finished
	Wait()
}

// Coordinator schedules automatic refreshes in the background
type Coordinator interface {
	// Start runs the polling loop. Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop, cancels an in-flight refresh and waits for it
	Stop() error
}

type defaultCoordinator struct {
	refresher Refresher
	base      time.Duration
	jitter    time.Duration

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option configures the coordinator
type Option func(*defaultCoordinator)

// WithPollingInterval overrides the polling interval and its jitter
func WithPollingInterval(base, jitter time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.base = base
		c.jitter = jitter
	}
}

// New creates a coordinator for refresher
func New(refresher Refresher, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		refresher: refresher,
		base:      basePollingInterval,
		jitter:    pollingJitter,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pollingInterval returns the base interval with a random jitter applied
func (c *defaultCoordinator) pollingInterval() time.Duration {
	if c.jitter <= 0 {
		return c.base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*c.jitter))) - c.jitter
	if interval := c.base + offset; interval > 0 {
		return interval
	}
	return c.base
}

// Start runs the polling loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		c.refresher.Cancel()
		c.refresher.Wait()
		close(c.done)
		slog.Info("Background sync coordinator shut down")
	}()

	interval := c.pollingInterval()
	slog.Info("Starting background sync coordinator",
		"base_interval", c.base.String(),
		"actual_interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.poll(coordCtx)

	for {
		select {
		case <-ticker.C:
			c.poll(coordCtx)
			ticker.Reset(c.pollingInterval())
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop ends the loop started by Start
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()
	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

func (c *defaultCoordinator) poll(ctx context.Context) {
	if c.refresher.RefreshIfDue(ctx) {
		slog.Debug("Automatic refresh started")
	}
}
