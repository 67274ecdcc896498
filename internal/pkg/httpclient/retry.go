package httpclient

import (
	"math/rand/v2"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 10 * time.Second
	defaultMultiplier  = 2.0
)

// RetryPolicy decides how many times a request is attempted and how long to
// wait between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total attempt count including the first try.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Multiplier grows the delay after each retry.
	Multiplier float64

	// Jitter randomizes each delay within [delay/2, delay).
	Jitter bool

	// Retryable classifies errors. Defaults to IsRetryableError.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the policy used when none is configured:
// 3 attempts, 500ms base delay doubling up to 10s, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		Multiplier:  defaultMultiplier,
		Jitter:      true,
		Retryable:   IsRetryableError,
	}
}

// PolicyFromConfig builds a policy from its declarative form,
// filling unset fields with defaults.
func PolicyFromConfig(cfg RetryConfig) RetryPolicy {
	policy := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}

	if cfg.BaseDelay > 0 {
		policy.BaseDelay = cfg.BaseDelay
	}

	if cfg.MaxDelay > 0 {
		policy.MaxDelay = cfg.MaxDelay
	}

	if cfg.Multiplier > 1 {
		policy.Multiplier = cfg.Multiplier
	}

	policy.Jitter = cfg.Jitter

	return policy
}

// Delay returns how long to wait before the given retry.
// retry is zero-based: Delay(0) is the wait before the second attempt.
func (p RetryPolicy) Delay(retry int) time.Duration {
	delay := float64(p.BaseDelay)
	for i := 0; i < retry; i++ {
		delay *= p.Multiplier
		if delay >= float64(p.MaxDelay) {
			break
		}
	}

	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter && delay > 0 {
		delay = delay/2 + rand.Float64()*delay/2
	}

	return time.Duration(delay)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}

	return IsRetryableError(err)
}
