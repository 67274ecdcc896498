package xcache

import (
	"time"

	"github.com/eko/gocache/lib/v4/store"
)

type Option = store.Option

// WithExpiration sets a per-entry expiration, overriding the store default.
func WithExpiration(expiration time.Duration) Option {
	return store.WithExpiration(expiration)
}
