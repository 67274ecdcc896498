package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/pkg/ratelimit"
)

func testPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2,
	}
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithRetryPolicy(testPolicy(3))}, opts...)

	client, err := New(Config{}, opts...)
	require.NoError(t, err)

	return client
}

func TestClientDo(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			require.Equal(t, "1", r.URL.Query().Get("page"))
			require.NotEmpty(t, r.Header.Get("X-Request-Id"))

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		client := newTestClient(t)

		resp, err := client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			URL:    server.URL,
			Query:  url.Values{"page": {"1"}},
			Auth:   &AuthConfig{Type: AuthTypeBearer, APIKey: "token-1"},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `{"ok":true}`, string(resp.Body))
	})

	t.Run("retries transient failures then succeeds", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestClient(t)

		resp, err := client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			URL:    server.URL,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("terminal error fails immediately", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
		}))
		defer server.Close()

		client := newTestClient(t)

		_, err := client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			URL:    server.URL,
		})

		var httpErr *Error
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
		require.Equal(t, "bad key", httpErr.Message())
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("exhausted retries", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(t)

		_, err := client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			URL:    server.URL,
		})

		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, 3, exhausted.Attempts)
		require.Equal(t, int32(3), calls.Load())

		// The underlying status error stays reachable through the chain.
		var httpErr *Error
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	})

	t.Run("zero-valued policy still attempts once", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := New(Config{}, WithRetryPolicy(RetryPolicy{}))
		require.NoError(t, err)

		_, err = client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			URL:    server.URL,
		})

		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		require.Equal(t, 1, exhausted.Attempts)
		require.Error(t, exhausted.Err)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("request id is preserved when set", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "req-42", r.Header.Get("X-Request-Id"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestClient(t)

		_, err := client.Do(context.Background(), &Request{
			Method:    http.MethodGet,
			URL:       server.URL,
			RequestID: "req-42",
		})
		require.NoError(t, err)
	})

	t.Run("default headers are attached", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "clipforge-test", r.Header.Get("X-App"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, err := New(Config{
			Headers: map[string]string{"X-App": "clipforge-test"},
		}, WithRetryPolicy(testPolicy(1)))
		require.NoError(t, err)

		_, err = client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			URL:    server.URL,
		})
		require.NoError(t, err)
	})
}

func TestClientDoRateLimited(t *testing.T) {
	t.Run("waits for a token before each attempt", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		limiter := ratelimit.New(ratelimit.Config{
			Resources: map[string]ratelimit.Resource{
				"api": {Capacity: 100, RefillRate: 100},
			},
		})

		client := newTestClient(t, WithRateLimiter(limiter))

		resp, err := client.Do(context.Background(), &Request{
			Method:   http.MethodGet,
			URL:      server.URL,
			Resource: "api",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("limiter timeout is returned without retrying", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		limiter := ratelimit.New(ratelimit.Config{
			Resources: map[string]ratelimit.Resource{
				"slow": {Capacity: 1, RefillRate: 0.01},
			},
			DefaultTimeout: 50 * time.Millisecond,
		})

		client := newTestClient(t, WithRateLimiter(limiter))

		// First call drains the bucket.
		_, err := client.Do(context.Background(), &Request{
			Method:   http.MethodGet,
			URL:      server.URL,
			Resource: "slow",
		})
		require.NoError(t, err)

		_, err = client.Do(context.Background(), &Request{
			Method:   http.MethodGet,
			URL:      server.URL,
			Resource: "slow",
		})

		var limitErr *ratelimit.RateLimitTimeoutError
		require.ErrorAs(t, err, &limitErr)
		require.Equal(t, "slow", limitErr.Resource)
		require.Equal(t, int32(1), calls.Load())
	})
}

func TestClientDoCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// The backoff must outlast the cancel below, so the policy is built
	// directly instead of through testPolicy's millisecond delays.
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    time.Second,
		Multiplier:  2,
	}

	client := newTestClient(t, WithRetryPolicy(policy))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    server.URL,
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestApplyAuth(t *testing.T) {
	t.Run("bearer", func(t *testing.T) {
		headers := make(http.Header)
		require.NoError(t, applyAuth(headers, &AuthConfig{Type: AuthTypeBearer, APIKey: "tok"}))
		require.Equal(t, "Bearer tok", headers.Get("Authorization"))
	})

	t.Run("bearer requires key", func(t *testing.T) {
		require.Error(t, applyAuth(make(http.Header), &AuthConfig{Type: AuthTypeBearer}))
	})

	t.Run("api key", func(t *testing.T) {
		headers := make(http.Header)
		require.NoError(t, applyAuth(headers, &AuthConfig{
			Type:      AuthTypeAPIKey,
			APIKey:    "key-1",
			HeaderKey: "X-Api-Key",
		}))
		require.Equal(t, "key-1", headers.Get("X-Api-Key"))
	})

	t.Run("unsupported type", func(t *testing.T) {
		require.Error(t, applyAuth(make(http.Header), &AuthConfig{Type: "basic"}))
	})
}
