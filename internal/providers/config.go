package providers

import (
	"time"
)

// ScriptConfig configures the LLM-backed script generator.
type ScriptConfig struct {
	// BaseURL of an OpenAI-compatible API, e.g. "https://api.mistral.ai".
	BaseURL string `conf:"base_url" yaml:"base_url" json:"base_url"`

	APIKey string `conf:"api_key" yaml:"api_key" json:"-"`
	Model  string `conf:"model" yaml:"model" json:"model"`

	Temperature float64 `conf:"temperature" yaml:"temperature" json:"temperature"`

	// Resource names the rate-limit bucket consulted before each call.
	// Empty disables throttling for this provider.
	Resource string `conf:"resource" yaml:"resource" json:"resource"`

	// CacheTTL bounds how long generated scripts are reused.
	// Zero means the response cache default.
	CacheTTL time.Duration `conf:"cache_ttl" yaml:"cache_ttl" json:"cache_ttl"`
}

// Config groups the provider settings.
type Config struct {
	Script ScriptConfig `conf:"script" yaml:"script" json:"script"`
}
