// Package ratelimit spaces outbound pricing requests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSpacing is the minimum gap between two outbound requests
const DefaultSpacing = 500 * time.Millisecond

// Limiter hands out one turn per spacing interval. It is shared by every page
// of every category, so a single instance covers the whole process.
type Limiter struct {
	spacing time.Duration
	limiter *rate.Limiter
}

// New creates a Limiter. A non-positive spacing falls back to DefaultSpacing.
func New(spacing time.Duration) *Limiter {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	return &Limiter{
		spacing: spacing,
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
	}
}

// Spacing returns the configured gap between turns
func (l *Limiter) Spacing() time.Duration {
	return l.spacing
}

// WaitTurn blocks until the caller may issue its request. The first call
// returns immediately.
func (l *Limiter) WaitTurn(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("waiting for rate limit turn: %w", err)
	}
	return nil
}
