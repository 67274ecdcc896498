// Package ratelimit bounds the call rate to each named external resource so
// the application stays within provider quotas. Each resource gets an
// independent token bucket with lazy refill; contention on one resource never
// blocks callers using another. Buckets live in-process only: a restart
// resets the quota window, and independent processes do not share quota.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/clipforge/clipforge/internal/log"
)

// Limiter throttles calls per named resource.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	warned  map[string]bool
}

// New builds a limiter from the static resource configuration. Buckets are
// created lazily on first use of a resource name.
func New(cfg Config) *Limiter {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultAcquireTimeout
	}

	return &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*rate.Limiter),
		warned:  make(map[string]bool),
	}
}

// Acquire takes one token from the resource's bucket, sleeping until a token
// is available. The wait is bounded by the caller's context deadline, or by
// the configured default timeout when the context has none. On exhaustion it
// returns RateLimitTimeoutError without consuming a token.
func (l *Limiter) Acquire(ctx context.Context, resource string) error {
	bucket := l.bucket(ctx, resource)

	timeout := l.cfg.DefaultTimeout

	waitCtx := ctx
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	} else {
		var cancel context.CancelFunc

		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	err := bucket.Wait(waitCtx)
	if err == nil {
		if waited := time.Since(start); waited > time.Millisecond {
			log.Debug(ctx, "waited for rate limit token",
				log.String("resource", resource),
				log.Duration("waited", waited))
		}

		return nil
	}

	// The caller asked to stop rather than ran out of time.
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}

	log.Warn(ctx, "rate limit acquisition timed out",
		log.String("resource", resource),
		log.Duration("timeout", timeout))

	return &RateLimitTimeoutError{Resource: resource, Timeout: timeout}
}

// Remaining returns the number of tokens currently available for the
// resource. Diagnostic only; the value is stale the moment it is read.
func (l *Limiter) Remaining(resource string) float64 {
	return l.bucket(context.Background(), resource).Tokens()
}

// Wrap composes throttling around fn without restructuring the call site.
func (l *Limiter) Wrap(resource string, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := l.Acquire(ctx, resource); err != nil {
			return err
		}

		return fn(ctx)
	}
}

func (l *Limiter) bucket(ctx context.Context, resource string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, ok := l.buckets[resource]; ok {
		return bucket
	}

	res, ok := l.cfg.Resources[resource]
	if !ok || res.Capacity <= 0 || res.RefillRate <= 0 {
		res = fallbackResource

		if !l.warned[resource] {
			l.warned[resource] = true

			log.Warn(ctx, "no rate limit configured for resource, using fallback bucket",
				log.String("resource", resource),
				log.Int("capacity", res.Capacity),
				log.Float64("refill_rate", res.RefillRate))
		}
	}

	bucket := rate.NewLimiter(rate.Limit(res.RefillRate), res.Capacity)
	l.buckets[resource] = bucket

	return bucket
}
