package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultSpacing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		spacing  time.Duration
		expected time.Duration
	}{
		{name: "zero", spacing: 0, expected: DefaultSpacing},
		{name: "negative", spacing: -time.Second, expected: DefaultSpacing},
		{name: "custom", spacing: 20 * time.Millisecond, expected: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, New(tt.spacing).Spacing())
		})
	}
}

func TestWaitTurn_SpacesSequentialCalls(t *testing.T) {
	t.Parallel()

	spacing := 40 * time.Millisecond
	l := New(spacing)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.WaitTurn(ctx))
	assert.Less(t, time.Since(start), spacing, "first turn should not wait")

	require.NoError(t, l.WaitTurn(ctx))
	require.NoError(t, l.WaitTurn(ctx))
	// two spaced turns after the first; allow a little scheduler slack
	assert.GreaterOrEqual(t, time.Since(start), 2*spacing-5*time.Millisecond)
}

func TestWaitTurn_ConcurrentCallersAreSerialized(t *testing.T) {
	t.Parallel()

	spacing := 25 * time.Millisecond
	l := New(spacing)
	ctx := context.Background()

	const callers = 4
	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.WaitTurn(ctx); err == nil {
				mu.Lock()
				times = append(times, time.Now())
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, times, callers)
	first, last := times[0], times[0]
	for _, ts := range times {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	assert.GreaterOrEqual(t, last.Sub(first), time.Duration(callers-1)*spacing-10*time.Millisecond)
}

func TestWaitTurn_Cancelled(t *testing.T) {
	t.Parallel()

	l := New(time.Hour)
	require.NoError(t, l.WaitTurn(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.WaitTurn(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitTurn_DeadlineShorterThanSpacing(t *testing.T) {
	t.Parallel()

	l := New(time.Hour)
	require.NoError(t, l.WaitTurn(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// rate.Limiter rejects up front when the deadline cannot be met
	err := l.WaitTurn(ctx)
	require.Error(t, err)
}
