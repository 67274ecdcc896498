package dependencies

import (
	"github.com/clipforge/clipforge/conf"
	"github.com/clipforge/clipforge/internal/pkg/httpclient"
	"github.com/clipforge/clipforge/internal/pkg/kvstore"
	"github.com/clipforge/clipforge/internal/pkg/ratelimit"
	"github.com/clipforge/clipforge/internal/pkg/xcache"
	"github.com/clipforge/clipforge/internal/providers"
	"github.com/clipforge/clipforge/internal/respcache"
)

// NewStore opens the durable store at the configured root.
func NewStore(cfg conf.Config) (*kvstore.Store, error) {
	var opts []kvstore.Option

	if cfg.Store.LockTimeout > 0 {
		opts = append(opts, kvstore.WithLockTimeout(cfg.Store.LockTimeout))
	}

	if cfg.Store.LockRetryInterval > 0 {
		opts = append(opts, kvstore.WithLockRetryInterval(cfg.Store.LockRetryInterval))
	}

	return kvstore.Open(cfg.Store.Dir, opts...)
}

// NewLimiter creates the shared per-resource rate limiter.
func NewLimiter(cfg conf.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit)
}

// NewHTTPClient creates the shared retrying HTTP client, throttled by the
// limiter.
func NewHTTPClient(cfg conf.Config, limiter *ratelimit.Limiter) (*httpclient.Client, error) {
	return httpclient.New(cfg.HTTP, httpclient.WithRateLimiter(limiter))
}

// NewResponseCache creates the response cache on top of the store, with the
// in-memory read layer when configured.
func NewResponseCache(cfg conf.Config, store *kvstore.Store) *respcache.Cache {
	opts := []respcache.Option{
		respcache.WithDefaultTTL(cfg.Cache.TTL),
	}

	if cfg.Cache.Memory.Mode == xcache.ModeMemory {
		opts = append(opts, respcache.WithMemoryCache(xcache.NewFromConfig[[]byte](cfg.Cache.Memory)))
	}

	return respcache.New(store, opts...)
}

// NewScriptGenerator creates the LLM-backed script generator.
func NewScriptGenerator(cfg conf.Config, client *httpclient.Client, cache *respcache.Cache) providers.ScriptGenerator {
	return providers.NewLLMScriptGenerator(cfg.Providers.Script, client, cache)
}
