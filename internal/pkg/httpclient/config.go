package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	ProxyTypeDisabled    = "disabled"
	ProxyTypeEnvironment = "environment"
	ProxyTypeURL         = "url"
)

// ProxyConfig controls how outbound requests are proxied.
type ProxyConfig struct {
	// Type is one of "disabled", "environment" or "url".
	// Empty means "environment".
	Type string `conf:"type" yaml:"type" json:"type"`

	// URL is the proxy URL when Type is "url", e.g. "http://proxy.local:8080".
	URL string `conf:"url" yaml:"url" json:"url"`

	Username string `conf:"username" yaml:"username" json:"username"`
	Password string `conf:"password" yaml:"password" json:"password"`
}

// ProxyFunc returns the proxy selection function for the transport.
func (c ProxyConfig) ProxyFunc() (func(*http.Request) (*url.URL, error), error) {
	switch c.Type {
	case ProxyTypeDisabled:
		return nil, nil
	case ProxyTypeEnvironment, "":
		return http.ProxyFromEnvironment, nil
	case ProxyTypeURL:
		proxyURL, err := url.Parse(c.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", c.URL, err)
		}

		if c.Username != "" {
			if c.Password != "" {
				proxyURL.User = url.UserPassword(c.Username, c.Password)
			} else {
				proxyURL.User = url.User(c.Username)
			}
		}

		return http.ProxyURL(proxyURL), nil
	default:
		return nil, fmt.Errorf("unknown proxy type %q", c.Type)
	}
}

// RetryConfig is the declarative form of RetryPolicy used in config files.
type RetryConfig struct {
	MaxAttempts int           `conf:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `conf:"base_delay" yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `conf:"max_delay" yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `conf:"multiplier" yaml:"multiplier" json:"multiplier"`
	Jitter      bool          `conf:"jitter" yaml:"jitter" json:"jitter"`
}

// Config holds the client settings.
type Config struct {
	// Timeout bounds a single request attempt, not the whole retry loop.
	Timeout time.Duration `conf:"timeout" yaml:"timeout" json:"timeout"`

	// Headers are default headers attached to every request.
	Headers map[string]string `conf:"headers" yaml:"headers" json:"headers"`

	Proxy ProxyConfig `conf:"proxy" yaml:"proxy" json:"proxy"`
	Retry RetryConfig `conf:"retry" yaml:"retry" json:"retry"`
}
