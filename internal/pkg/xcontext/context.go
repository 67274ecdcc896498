// Package xcontext provides helpers for running work past the lifetime of
// the request context that triggered it.
package xcontext

import (
	"context"
	"time"
)

// Detach returns a context that keeps the values of ctx (trace and request
// IDs in particular) but is no longer canceled when ctx is.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// DetachWithTimeout detaches ctx and bounds the detached work with its own
// deadline. Used for background cleanup triggered by a request, where the
// cleanup should survive the request but not run forever.
func DetachWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(Detach(ctx), timeout)
}
