package httpclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsHTTPStatusCodeRetryable(t *testing.T) {
	require.True(t, IsHTTPStatusCodeRetryable(http.StatusTooManyRequests))
	require.True(t, IsHTTPStatusCodeRetryable(http.StatusInternalServerError))
	require.True(t, IsHTTPStatusCodeRetryable(http.StatusBadGateway))
	require.False(t, IsHTTPStatusCodeRetryable(http.StatusBadRequest))
	require.False(t, IsHTTPStatusCodeRetryable(http.StatusUnauthorized))
	require.False(t, IsHTTPStatusCodeRetryable(http.StatusNotFound))
	require.False(t, IsHTTPStatusCodeRetryable(http.StatusOK))
}

func TestMergeHTTPHeaders(t *testing.T) {
	t.Run("nil destination", func(t *testing.T) {
		src := http.Header{"X-App": {"clipforge"}}
		merged := MergeHTTPHeaders(nil, src)
		require.Equal(t, []string{"clipforge"}, merged["X-App"])
	})

	t.Run("existing values are kept and deduplicated", func(t *testing.T) {
		dest := http.Header{"Accept": {"application/json"}}
		src := http.Header{"Accept": {"application/json", "text/plain"}}
		merged := MergeHTTPHeaders(dest, src)
		require.Equal(t, []string{"application/json", "text/plain"}, merged["Accept"])
	})

	t.Run("sensitive headers are not merged", func(t *testing.T) {
		dest := http.Header{}
		src := http.Header{
			"Authorization": {"Bearer secret"},
			"Cookie":        {"session=abc"},
			"X-Trace":       {"t1"},
		}
		merged := MergeHTTPHeaders(dest, src)
		require.Empty(t, merged["Authorization"])
		require.Empty(t, merged["Cookie"])
		require.Equal(t, []string{"t1"}, merged["X-Trace"])
	})

	t.Run("library managed headers are not merged", func(t *testing.T) {
		merged := MergeHTTPHeaders(http.Header{}, http.Header{"Content-Length": {"42"}})
		require.Empty(t, merged["Content-Length"])
	})
}

func TestMaskSensitiveHeaders(t *testing.T) {
	headers := http.Header{
		"Authorization": {"Bearer secret"},
		"X-Api-Key":     {"key-123"},
		"Content-Type":  {"application/json"},
	}

	masked := MaskSensitiveHeaders(headers)
	require.Equal(t, []string{"******"}, masked["Authorization"])
	require.Equal(t, []string{"******"}, masked["X-Api-Key"])
	require.Equal(t, []string{"application/json"}, masked["Content-Type"])

	// Original headers must not be touched.
	require.Equal(t, []string{"Bearer secret"}, headers["Authorization"])
}
