package httpclient

import (
	"net/http"

	"github.com/samber/lo"
)

// IsHTTPStatusCodeRetryable checks if an HTTP status code is retryable.
// 4xx status codes are generally not retryable except for 429 (Too Many Requests).
// 5xx status codes are typically retryable.
func IsHTTPStatusCodeRetryable(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true // 429 is retryable (rate limiting)
	}

	if statusCode >= 400 && statusCode < 500 {
		return false // Other 4xx errors are not retryable
	}

	if statusCode >= 500 {
		return true // 5xx errors are retryable
	}

	return false // Non-error status codes don't need retrying
}

// The golang std http client will handle the headers automatically.
var libManagedHeaders = map[string]bool{
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Accept-Encoding":   true,
	"Host":              true,
}

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Api-Key":             true,
	"X-Api-Key":           true,
	"X-Api-Secret":        true,
	"X-Api-Token":         true,
	"Cookie":              true,
	"Set-Cookie":          true,
	"Proxy-Authorization": true,
	"WWW-Authenticate":    true,
}

// MergeHTTPHeaders merges the source headers into the destination headers.
// Existing destination values are kept and extended with non-duplicate source
// values; sensitive and library-managed headers are not merged.
func MergeHTTPHeaders(dest, src http.Header) http.Header {
	if dest == nil {
		dest = make(http.Header, len(src))
	}

	for k, v := range src {
		if sensitiveHeaders[k] || libManagedHeaders[k] {
			continue
		}

		if existingValues, ok := dest[k]; ok {
			dest[k] = lo.Uniq(append(existingValues, v...))
		} else {
			dest[k] = v
		}
	}

	return dest
}

// MaskSensitiveHeaders returns a copy of headers safe for logging.
func MaskSensitiveHeaders(headers http.Header) http.Header {
	result := make(http.Header, len(headers))

	for key, values := range headers {
		var newValues []string
		if _, ok := sensitiveHeaders[key]; !ok {
			newValues = values
		} else {
			newValues = append(newValues, "******")
		}

		result[key] = newValues
	}

	return result
}
