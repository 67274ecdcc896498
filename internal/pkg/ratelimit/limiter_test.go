package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireBurst(t *testing.T) {
	limiter := New(Config{
		Resources: map[string]Resource{
			"mistral": {Capacity: 5, RefillRate: 5},
		},
	})

	ctx := context.Background()

	// The full burst is available immediately.
	start := time.Now()
	for range 5 {
		require.NoError(t, limiter.Acquire(ctx, "mistral"))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)

	// The 6th call waits for one refill interval, about 200ms at 5 tokens/sec.
	start = time.Now()
	require.NoError(t, limiter.Acquire(ctx, "mistral"))
	waited := time.Since(start)
	require.Greater(t, waited, 100*time.Millisecond)
	require.Less(t, waited, 400*time.Millisecond)
}

func TestAcquireTimeout(t *testing.T) {
	limiter := New(Config{
		Resources: map[string]Resource{
			"slow": {Capacity: 1, RefillRate: 0.1}, // one token per 10s
		},
	})

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx, "slow"))

	// The next token is 10s away, far beyond the caller's deadline; Acquire
	// fails fast instead of sleeping.
	deadlineCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Acquire(deadlineCtx, "slow")
	require.Less(t, time.Since(start), time.Second)
	require.Error(t, err)

	var timeoutErr *RateLimitTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, "slow", timeoutErr.Resource)
	require.True(t, IsTimeout(err))
}

func TestAcquireCanceled(t *testing.T) {
	limiter := New(Config{
		Resources: map[string]Resource{
			"slow": {Capacity: 1, RefillRate: 0.1},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, limiter.Acquire(ctx, "slow"))

	cancel()

	err := limiter.Acquire(ctx, "slow")
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, IsTimeout(err))
}

func TestResourceIsolation(t *testing.T) {
	limiter := New(Config{
		Resources: map[string]Resource{
			"drained": {Capacity: 1, RefillRate: 0.1},
			"fresh":   {Capacity: 5, RefillRate: 5},
		},
	})

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx, "drained"))

	// Draining one resource leaves the other untouched.
	start := time.Now()
	require.NoError(t, limiter.Acquire(ctx, "fresh"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestUnknownResourceFallback(t *testing.T) {
	limiter := New(Config{})

	ctx := context.Background()

	// An unconfigured resource gets the generous fallback bucket rather
	// than an error or an unthrottled path.
	start := time.Now()
	require.NoError(t, limiter.Acquire(ctx, "unheard-of"))
	require.Less(t, time.Since(start), 100*time.Millisecond)

	require.Greater(t, limiter.Remaining("unheard-of"), 0.0)
}

func TestRemaining(t *testing.T) {
	limiter := New(Config{
		Resources: map[string]Resource{
			"venice": {Capacity: 10, RefillRate: 10},
		},
	})

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx, "venice"))

	remaining := limiter.Remaining("venice")
	require.Greater(t, remaining, 8.0)
	require.Less(t, remaining, 10.0)
}

func TestWrap(t *testing.T) {
	limiter := New(Config{
		Resources: map[string]Resource{
			"assemblyai": {Capacity: 2, RefillRate: 2},
		},
	})

	calls := 0
	wrapped := limiter.Wrap("assemblyai", func(ctx context.Context) error {
		calls++
		return nil
	})

	ctx := context.Background()
	require.NoError(t, wrapped(ctx))
	require.NoError(t, wrapped(ctx))
	require.Equal(t, 2, calls)

	// Once the bucket is drained the wrapped call inherits the timeout error
	// and the inner function does not run.
	deadlineCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := wrapped(deadlineCtx)
	require.Error(t, err)
	require.Equal(t, 2, calls)
}
