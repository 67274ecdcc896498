// Package conf loads the application configuration from file and
// environment. Files are optional; every value has a default and can be
// set through CLIPFORGE_* environment variables.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/pkg/httpclient"
	"github.com/clipforge/clipforge/internal/pkg/ratelimit"
	"github.com/clipforge/clipforge/internal/pkg/xcache"
	"github.com/clipforge/clipforge/internal/providers"
)

// StoreConfig configures the durable store.
type StoreConfig struct {
	// Dir is the root directory for stored records.
	Dir string `conf:"dir" yaml:"dir" json:"dir"`

	LockTimeout       time.Duration `conf:"lock_timeout" yaml:"lock_timeout" json:"lock_timeout"`
	LockRetryInterval time.Duration `conf:"lock_retry_interval" yaml:"lock_retry_interval" json:"lock_retry_interval"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	// TTL is the default lifetime of cached responses.
	// Zero or negative means responses never expire.
	TTL time.Duration `conf:"ttl" yaml:"ttl" json:"ttl"`

	// Memory configures the optional in-memory read layer.
	Memory xcache.Config `conf:"memory" yaml:"memory" json:"memory"`
}

// Config is the root configuration.
type Config struct {
	Log       log.Config        `conf:"log" yaml:"log" json:"log"`
	Store     StoreConfig       `conf:"store" yaml:"store" json:"store"`
	Cache     CacheConfig       `conf:"cache" yaml:"cache" json:"cache"`
	RateLimit ratelimit.Config  `conf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	HTTP      httpclient.Config `conf:"http" yaml:"http" json:"http"`
	Providers providers.Config  `conf:"providers" yaml:"providers" json:"providers"`
}

// Load reads config.yml from the working directory or /etc/clipforge,
// then applies CLIPFORGE_* environment overrides.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/clipforge")

	v.SetEnvPrefix("CLIPFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	err := v.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// setDefaults registers every config key with its default. Viper's
// AutomaticEnv only resolves keys it already knows, so keys without a
// meaningful default still get a zero-value entry here; otherwise their
// CLIPFORGE_* environment overrides would be silently dropped.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", log.FormatConsole)
	v.SetDefault("log.output", log.OutputStderr)
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size", 0)
	v.SetDefault("log.file.max_backups", 0)
	v.SetDefault("log.file.max_age", 0)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("store.dir", ".clipforge/store")
	v.SetDefault("store.lock_timeout", "5s")
	v.SetDefault("store.lock_retry_interval", "25ms")

	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.memory.mode", "")
	v.SetDefault("cache.memory.expiration", "0s")
	v.SetDefault("cache.memory.cleanup_interval", "0s")

	v.SetDefault("rate_limit.default_timeout", "30s")
	v.SetDefault("rate_limit.resources", map[string]any{
		"mistral":    map[string]any{"capacity": 5, "refill_rate": 5},
		"venice":     map[string]any{"capacity": 10, "refill_rate": 10},
		"assemblyai": map[string]any{"capacity": 5, "refill_rate": 5},
	})

	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.headers", map[string]string{})
	v.SetDefault("http.proxy.type", httpclient.ProxyTypeEnvironment)
	v.SetDefault("http.proxy.url", "")
	v.SetDefault("http.proxy.username", "")
	v.SetDefault("http.proxy.password", "")
	v.SetDefault("http.retry.max_attempts", 3)
	v.SetDefault("http.retry.base_delay", "500ms")
	v.SetDefault("http.retry.max_delay", "10s")
	v.SetDefault("http.retry.multiplier", 2)
	v.SetDefault("http.retry.jitter", true)

	v.SetDefault("providers.script.model", "mistral-large-latest")
	v.SetDefault("providers.script.base_url", "https://api.mistral.ai")
	v.SetDefault("providers.script.api_key", "")
	v.SetDefault("providers.script.temperature", 0.7)
	v.SetDefault("providers.script.resource", "mistral")
	v.SetDefault("providers.script.cache_ttl", "0s")
}
