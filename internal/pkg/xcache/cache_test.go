package xcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gocache "github.com/patrickmn/go-cache"
)

func TestNewMemory(t *testing.T) {
	client := gocache.New(5*time.Minute, 10*time.Minute)
	cache := NewMemory[[]byte](client)

	ctx := context.Background()

	// Test Set and Get
	err := cache.Set(ctx, "entry-key", []byte("cached response"))
	require.NoError(t, err)

	value, err := cache.Get(ctx, "entry-key")
	require.NoError(t, err)
	require.Equal(t, []byte("cached response"), value)

	require.Equal(t, "cache", cache.GetType())
}

func TestNewMemoryWithOptions(t *testing.T) {
	cache := NewMemoryWithOptions[string](5*time.Minute, 10*time.Minute)

	ctx := context.Background()

	err := cache.Set(ctx, "script", "a short video script")
	require.NoError(t, err)

	value, err := cache.Get(ctx, "script")
	require.NoError(t, err)
	require.Equal(t, "a short video script", value)
}

func TestMemoryExpiration(t *testing.T) {
	cache := NewMemoryWithOptions[string](time.Minute, time.Minute)

	ctx := context.Background()

	// A per-entry expiration overrides the store default.
	err := cache.Set(ctx, "ephemeral", "value", WithExpiration(30*time.Millisecond))
	require.NoError(t, err)

	value, err := cache.Get(ctx, "ephemeral")
	require.NoError(t, err)
	require.Equal(t, "value", value)

	time.Sleep(60 * time.Millisecond)

	_, err = cache.Get(ctx, "ephemeral")
	require.Error(t, err)
}

func TestNewFromConfigMemory(t *testing.T) {
	cache := NewFromConfig[[]byte](Config{
		Mode: ModeMemory,
		Memory: MemoryConfig{
			Expiration:      time.Minute,
			CleanupInterval: time.Minute,
		},
	})

	ctx := context.Background()

	err := cache.Set(ctx, "k", []byte("v"))
	require.NoError(t, err)

	value, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)
}

func TestNewFromConfigDisabled(t *testing.T) {
	for _, mode := range []string{"", "redis", "invalid"} {
		cache := NewFromConfig[string](Config{Mode: mode})
		require.Equal(t, "noop", cache.GetType())

		ctx := context.Background()

		// Noop accepts writes and always misses.
		require.NoError(t, cache.Set(ctx, "k", "v"))

		_, err := cache.Get(ctx, "k")
		require.Error(t, err)
		require.ErrorIs(t, err, ErrCacheNotConfigured)
	}
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	cache := NewNoop[string]()

	_, err := cache.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheNotConfigured)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	require.NoError(t, cache.Delete(ctx, "k"))
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Clear(ctx))
	require.Equal(t, "noop", cache.GetType())
}
