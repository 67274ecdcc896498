package ratelimit

import "time"

// Config is the static mapping from resource name to bucket parameters,
// supplied by the embedding application at startup.
type Config struct {
	// Resources holds one bucket definition per named external resource.
	Resources map[string]Resource `conf:"resources" yaml:"resources" json:"resources"`

	// DefaultTimeout bounds Acquire when the caller's context carries no
	// deadline of its own.
	DefaultTimeout time.Duration `conf:"default_timeout" yaml:"default_timeout" json:"default_timeout"`
}

// Resource defines one token bucket.
type Resource struct {
	// Capacity is the burst size of the bucket.
	Capacity int `conf:"capacity" yaml:"capacity" json:"capacity"`

	// RefillRate is the sustained rate in tokens per second.
	RefillRate float64 `conf:"refill_rate" yaml:"refill_rate" json:"refill_rate"`
}

const defaultAcquireTimeout = 30 * time.Second

// fallbackResource is applied to resource names missing from the config, so
// an unconfigured provider is throttled generously instead of not at all.
var fallbackResource = Resource{Capacity: 100, RefillRate: 100.0 / 60.0}
