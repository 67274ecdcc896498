package xcache

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/store"

	cachelib "github.com/eko/gocache/lib/v4/cache"
	gocache_store "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/clipforge/clipforge/internal/log"
)

// Cache is an alias to the gocache CacheInterface for convenience.
// It allows you to depend on xcache while still exposing the common methods:
//   - Get(ctx, key) (T, error)
//   - Set(ctx, key, value, options ...Option) error
//   - Delete(ctx, key) error
//   - Invalidate(ctx, options ...store.InvalidateOption) error
//   - Clear(ctx) error
//   - GetType() string
//
// See: github.com/eko/gocache/lib/v4/cache
type Cache[T any] = cachelib.CacheInterface[T]

type SetterCache[T any] = cachelib.SetterCacheInterface[T]

// NewMemory creates a pure in-memory cache using patrickmn/go-cache as the backend.
// Pass an existing *gocache.Cache so you control default expiration & cleanup interval.
// Optionally pass store options (e.g., store.WithExpiration) when setting values.
func NewMemory[T any](client *gocache.Cache, options ...Option) SetterCache[T] {
	store := gocache_store.NewGoCache(client, options...)
	return cachelib.New[T](store)
}

// NewMemoryWithOptions is a convenience constructor that builds the patrickmn/go-cache client
// for you using the provided default expiration and cleanup interval.
func NewMemoryWithOptions[T any](defaultExpiration, cleanupInterval time.Duration, options ...Option) SetterCache[T] {
	client := gocache.New(defaultExpiration, cleanupInterval)
	return NewMemory[T](client, options...)
}

// NewFromConfig builds a typed cache from the given Config.
// Mode "memory" returns an in-memory cache with the configured expiration
// settings; any other mode (including unset) returns a noop cache that does
// nothing, so callers never need a nil check.
func NewFromConfig[T any](cfg Config) Cache[T] {
	switch cfg.Mode {
	case ModeMemory:
		expiration := defaultIfZero(cfg.Memory.Expiration, 5*time.Minute)
		cleanupInterval := defaultIfZero(cfg.Memory.CleanupInterval, 10*time.Minute)

		client := gocache.New(expiration, cleanupInterval)
		memStore := gocache_store.NewGoCache(client, store.WithExpiration(expiration))

		log.Info(context.Background(), "Using memory cache")

		return cachelib.New[T](memStore)
	default:
		log.Info(context.Background(), "Disable cache")

		return NewNoop[T]()
	}
}

func defaultIfZero(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}

	return d
}
