package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitTimeoutError is returned when no token for the resource became
// available within the caller's timeout.
type RateLimitTimeoutError struct {
	Resource string        `json:"resource"`
	Timeout  time.Duration `json:"timeout"`
}

func (e *RateLimitTimeoutError) Error() string {
	return fmt.Sprintf("ratelimit: no token for resource %q within %s", e.Resource, e.Timeout)
}

// IsTimeout reports whether err is a rate limit acquisition timeout.
func IsTimeout(err error) bool {
	var e *RateLimitTimeoutError
	return errors.As(err, &e)
}
