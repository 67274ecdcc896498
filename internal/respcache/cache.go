package respcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/pkg/kvstore"
	"github.com/clipforge/clipforge/internal/pkg/xcache"
	"github.com/clipforge/clipforge/internal/pkg/xcontext"
	"github.com/clipforge/clipforge/internal/pkg/xtime"
)

const (
	// DefaultTTL keeps provider responses for a day unless configured
	// otherwise.
	DefaultTTL = 24 * time.Hour

	cleanupTimeout = 5 * time.Second
)

// Cache memoizes provider responses in a durable store, with an optional
// in-memory read layer in front of it. The durable store is the source of
// truth; the memory layer only ever holds values already persisted, with its
// expiry clamped to the remaining lifetime of the durable entry.
type Cache struct {
	store      *kvstore.Store
	mem        xcache.Cache[[]byte]
	defaultTTL time.Duration
	now        xtime.NowFunc
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL sets the TTL used by Put and GetOrCompute.
// A non-positive value means entries never expire.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.defaultTTL = ttl
	}
}

// WithMemoryCache adds an in-memory read layer in front of the store.
func WithMemoryCache(mem xcache.Cache[[]byte]) Option {
	return func(c *Cache) {
		c.mem = mem
	}
}

// WithNowFunc overrides the clock. Used in expiry tests.
func WithNowFunc(now xtime.NowFunc) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache backed by the given store.
func New(store *kvstore.Store, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		defaultTTL: DefaultTTL,
		now:        xtime.UTCNow,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the cached value for params if a valid entry exists.
// Expired and unreadable entries count as misses.
func (c *Cache) Get(ctx context.Context, params Params) ([]byte, bool, error) {
	key, err := params.Key()
	if err != nil {
		return nil, false, err
	}

	entry, ok := c.load(ctx, key)
	if !ok {
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// GetOrCompute returns the cached value for params, computing and storing it
// on a miss. The second return value reports whether the value came from the
// cache. Compute errors are returned as-is and nothing is stored.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	params Params,
	compute func(ctx context.Context) ([]byte, error),
) ([]byte, bool, error) {
	return c.GetOrComputeTTL(ctx, params, c.defaultTTL, compute)
}

// GetOrComputeTTL is GetOrCompute with an explicit TTL for the stored entry.
func (c *Cache) GetOrComputeTTL(
	ctx context.Context,
	params Params,
	ttl time.Duration,
	compute func(ctx context.Context) ([]byte, error),
) ([]byte, bool, error) {
	key, err := params.Key()
	if err != nil {
		return nil, false, err
	}

	if entry, ok := c.load(ctx, key); ok {
		log.Debug(ctx, "response cache hit",
			log.String("provider", params.Provider),
			log.String("model", params.Model),
			log.String("key", key),
		)

		return entry.Value, true, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := c.put(ctx, key, params, value, ttl); err != nil {
		return nil, false, err
	}

	return value, false, nil
}

// Put stores the value for params with the cache's default TTL.
func (c *Cache) Put(ctx context.Context, params Params, value []byte) error {
	return c.PutTTL(ctx, params, value, c.defaultTTL)
}

// PutTTL stores the value for params. A non-positive ttl means the entry
// never expires.
func (c *Cache) PutTTL(ctx context.Context, params Params, value []byte, ttl time.Duration) error {
	key, err := params.Key()
	if err != nil {
		return err
	}

	return c.put(ctx, key, params, value, ttl)
}

// Delete removes the entry for params. Deleting an absent entry is not an
// error.
func (c *Cache) Delete(ctx context.Context, params Params) error {
	key, err := params.Key()
	if err != nil {
		return err
	}

	return c.remove(ctx, key)
}

// Clear removes all entries and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, key := range keys {
		if err := c.remove(ctx, key); err != nil {
			return removed, err
		}

		removed++
	}

	return removed, nil
}

// ClearExpired removes expired entries and returns how many were removed.
func (c *Cache) ClearExpired(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now()
	removed := 0

	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return removed, err
		}

		if !ok {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Expired(now) {
			if err := c.remove(ctx, key); err != nil {
				return removed, err
			}

			removed++
		}
	}

	return removed, nil
}

// Stats summarizes the durable entries.
type Stats struct {
	TotalEntries   int   `json:"total_entries"`
	ValidEntries   int   `json:"valid_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// Stats scans the store and reports entry counts and total size.
// Unreadable entries count as expired.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return Stats{}, err
	}

	now := c.now()

	var stats Stats

	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return Stats{}, err
		}

		if !ok {
			continue
		}

		stats.TotalEntries++
		stats.TotalSizeBytes += int64(len(raw))

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Expired(now) {
			stats.ExpiredEntries++
		} else {
			stats.ValidEntries++
		}
	}

	return stats, nil
}

// load reads a valid entry, checking the memory layer first. Corrupted and
// expired entries are cleaned up in the background and reported as misses.
func (c *Cache) load(ctx context.Context, key string) (Entry, bool) {
	if c.mem != nil {
		if value, err := c.mem.Get(ctx, key); err == nil {
			return Entry{Key: key, Value: value}, true
		}
	}

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Warn(ctx, "removing corrupted cache entry", log.String("key", key), log.Cause(err))
		c.removeDetached(ctx, key)

		return Entry{}, false
	}

	if entry.Key != "" && entry.Key != key {
		log.Warn(ctx, "removing cache entry with mismatched key",
			log.String("key", key),
			log.String("entry_key", entry.Key),
		)
		c.removeDetached(ctx, key)

		return Entry{}, false
	}

	now := c.now()
	if entry.Expired(now) {
		c.removeDetached(ctx, key)
		return Entry{}, false
	}

	if c.mem != nil {
		c.memSet(ctx, key, entry, now)
	}

	return entry, true
}

func (c *Cache) put(ctx context.Context, key string, params Params, value []byte, ttl time.Duration) error {
	now := c.now()

	entry := Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		Provider:  params.Provider,
		Model:     params.Model,
	}
	if ttl > 0 {
		entry.TTLSeconds = int64(ttl / time.Second)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := c.store.Put(ctx, key, raw); err != nil {
		return err
	}

	if c.mem != nil {
		c.memSet(ctx, key, entry, now)
	}

	return nil
}

// memSet mirrors a durable entry into the memory layer, never letting the
// in-memory copy outlive the durable one.
func (c *Cache) memSet(ctx context.Context, key string, entry Entry, now time.Time) {
	var opts []xcache.Option
	if expiresAt, ok := entry.ExpiresAt(); ok {
		remaining := expiresAt.Sub(now)
		if remaining <= 0 {
			return
		}

		opts = append(opts, xcache.WithExpiration(remaining))
	}

	if err := c.mem.Set(ctx, key, entry.Value, opts...); err != nil {
		log.Warn(ctx, "failed to populate memory cache", log.String("key", key), log.Cause(err))
	}
}

func (c *Cache) remove(ctx context.Context, key string) error {
	if c.mem != nil {
		if err := c.mem.Delete(ctx, key); err != nil {
			log.Debug(ctx, "failed to evict memory cache entry", log.String("key", key), log.Cause(err))
		}
	}

	return c.store.Delete(ctx, key)
}

// removeDetached deletes an entry without blocking the caller and without
// being canceled alongside the request that found it.
func (c *Cache) removeDetached(ctx context.Context, key string) {
	cleanupCtx, cancel := xcontext.DetachWithTimeout(ctx, cleanupTimeout)

	go func() {
		defer cancel()

		if err := c.remove(cleanupCtx, key); err != nil {
			log.Warn(cleanupCtx, "failed to remove stale cache entry", log.String("key", key), log.Cause(err))
		}
	}()
}
