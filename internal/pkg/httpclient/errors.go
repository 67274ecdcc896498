package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/tidwall/gjson"
)

// Error is a typed HTTP error for responses with status >= 400.
type Error struct {
	Method     string `json:"method"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Body       []byte `json:"body"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s - %s with status %s", e.Method, e.URL, e.Status)
}

// Message extracts a human-readable error message from the response body.
// Providers disagree on the envelope, so the common field names are probed in
// order; the raw status is returned when none match.
func (e *Error) Message() string {
	if len(e.Body) > 0 {
		for _, path := range []string{"error.message", "error", "message", "detail"} {
			if result := gjson.GetBytes(e.Body, path); result.Type == gjson.String && result.Str != "" {
				return result.Str
			}
		}
	}

	return e.Status
}

// RetryExhaustedError is the single consolidated error raised after all
// attempts of one logical call failed. Err chains every attempt's failure, so
// nothing about the intermediate attempts is lost.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

func IsNotFoundErr(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// IsRetryableError reports whether the failure is transient: server overload
// or rate-limiting status codes, network timeouts and connection failures.
// Everything else, notably authentication rejections and malformed requests,
// is terminal and must not be retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// A canceled call is the caller's decision, not a transient failure.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *Error
	if errors.As(err, &httpErr) {
		return IsHTTPStatusCodeRetryable(httpErr.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		// Covers dial timeouts, refused/reset connections and friends.
		return true
	}

	return false
}
