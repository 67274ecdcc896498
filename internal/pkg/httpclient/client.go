package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/clipforge/clipforge/internal/contexts"
	"github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/pkg/ratelimit"
)

// Client is a pooled HTTP client with bounded retries and optional
// per-resource rate limiting. A single Client is safe for concurrent use
// and is meant to be shared across all providers.
type Client struct {
	client         *http.Client
	policy         RetryPolicy
	limiter        *ratelimit.Limiter
	defaultHeaders http.Header
	timeout        time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithRateLimiter attaches a limiter consulted before every attempt.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithHTTPClient replaces the underlying http.Client. Used in tests to
// inject stub transports.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// New creates a client from config. The transport keeps idle connections
// alive so repeated calls to the same host reuse connections.
func New(cfg Config, opts ...Option) (*Client, error) {
	proxyFunc, err := cfg.Proxy.ProxyFunc()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy: proxyFunc,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	defaultHeaders := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		defaultHeaders.Set(k, v)
	}

	c := &Client{
		client: &http.Client{
			Transport: transport,
		},
		policy:         PolicyFromConfig(cfg.Retry),
		defaultHeaders: defaultHeaders,
		timeout:        cfg.Timeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	// A zero-valued policy would skip the request loop entirely.
	if c.policy.MaxAttempts < 1 {
		c.policy.MaxAttempts = 1
	}

	return c, nil
}

// Do executes the request, retrying transient failures with exponential
// backoff. It returns the first successful response, the first terminal
// error, or a *RetryExhaustedError once all attempts fail transiently.
func (c *Client) Do(ctx context.Context, request *Request) (*Response, error) {
	if request.RequestID == "" {
		request.RequestID = uuid.NewString()
	}

	ctx = contexts.WithRequestID(ctx, request.RequestID)

	var attemptErrs []error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if c.limiter != nil && request.Resource != "" {
			if err := c.limiter.Acquire(ctx, request.Resource); err != nil {
				// Rate limit exhaustion is not a transient transport
				// failure, retrying would just wait on the same bucket.
				return nil, err
			}
		}

		resp, err := c.do(ctx, request)
		if err == nil {
			return resp, nil
		}

		if !c.policy.retryable(err) {
			return nil, err
		}

		attemptErrs = append(attemptErrs, fmt.Errorf("attempt %d: %w", attempt, err))

		if attempt == c.policy.MaxAttempts {
			break
		}

		delay := c.policy.Delay(attempt - 1)
		log.Warn(ctx, "retrying http request",
			log.String("method", request.Method),
			log.String("url", request.URL),
			log.Int("attempt", attempt),
			log.Duration("delay", delay),
			log.Cause(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	retryErr := &RetryExhaustedError{
		Attempts: c.policy.MaxAttempts,
		Err:      multierr.Combine(attemptErrs...),
	}

	log.Error(ctx, "http request failed after all retries",
		log.String("method", request.Method),
		log.String("url", request.URL),
		log.Int("attempts", c.policy.MaxAttempts),
		log.Cause(retryErr.Err),
	)

	return nil, retryErr
}

// do performs one attempt.
func (c *Client) do(ctx context.Context, request *Request) (*Response, error) {
	timeout := request.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rawReq, err := c.buildHTTPRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}

	if log.DebugEnabled(ctx) {
		log.Debug(ctx, "execute http request",
			log.String("method", rawReq.Method),
			log.String("url", rawReq.URL.String()),
			log.Any("headers", MaskSensitiveHeaders(rawReq.Header)),
		)
	}

	rawResp, err := c.client.Do(rawReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	defer func() {
		err := rawResp.Body.Close()
		if err != nil {
			log.Warn(ctx, "failed to close HTTP response body", log.Cause(err))
		}
	}()

	body, err := io.ReadAll(rawResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if rawResp.StatusCode >= 400 {
		if log.DebugEnabled(ctx) {
			log.Debug(ctx, "HTTP request failed",
				log.String("method", rawReq.Method),
				log.String("url", rawReq.URL.String()),
				log.Int("status_code", rawResp.StatusCode),
				log.String("body", string(body)),
			)
		}

		return nil, &Error{
			Method:     rawReq.Method,
			URL:        rawReq.URL.String(),
			StatusCode: rawResp.StatusCode,
			Status:     rawResp.Status,
			Body:       body,
		}
	}

	if log.DebugEnabled(ctx) {
		log.Debug(ctx, "HTTP request success",
			log.String("method", rawReq.Method),
			log.String("url", rawReq.URL.String()),
			log.Int("status_code", rawResp.StatusCode),
		)
	}

	return &Response{
		StatusCode:  rawResp.StatusCode,
		Headers:     rawResp.Header,
		Body:        body,
		Request:     request,
		RawResponse: rawResp,
	}, nil
}

// buildHTTPRequest builds a raw request from Request.
func (c *Client) buildHTTPRequest(ctx context.Context, request *Request) (*http.Request, error) {
	var body io.Reader
	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = request.Headers
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}

	httpReq.Header = MergeHTTPHeaders(httpReq.Header, c.defaultHeaders)

	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", "clipforge/1.0")
	}

	if request.RequestID != "" {
		httpReq.Header.Set("X-Request-Id", request.RequestID)
	}

	if request.Auth != nil {
		err = applyAuth(httpReq.Header, request.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}

	if len(request.Query) > 0 {
		if httpReq.URL.RawQuery != "" {
			httpReq.URL.RawQuery += "&"
		}

		httpReq.URL.RawQuery += request.Query.Encode()
	}

	return httpReq, nil
}

// applyAuth applies authentication headers.
func applyAuth(headers http.Header, auth *AuthConfig) error {
	switch auth.Type {
	case AuthTypeBearer:
		if auth.APIKey == "" {
			return fmt.Errorf("bearer token is required")
		}

		headers.Set("Authorization", "Bearer "+auth.APIKey)
	case AuthTypeAPIKey:
		if auth.HeaderKey == "" {
			return fmt.Errorf("header key is required")
		}

		headers.Set(auth.HeaderKey, auth.APIKey)
	default:
		return fmt.Errorf("unsupported auth type: %s", auth.Type)
	}

	return nil
}
