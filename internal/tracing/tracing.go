// Package tracing correlates every log entry produced while handling one job
// run or one interactive command. A trace id is generated at the entry point
// and carried through the context into every provider call.
package tracing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/contexts"
)

// GenerateTraceID generates a trace id, formatted as cf-{{uuid}}.
func GenerateTraceID() string {
	id := uuid.New()
	return fmt.Sprintf("cf-%s", id.String())
}

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return contexts.WithTraceID(ctx, traceID)
}

// GetTraceID gets the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	return contexts.GetTraceID(ctx)
}

// EnsureTraceID returns the context unchanged when it already carries a trace
// id, otherwise it attaches a freshly generated one.
func EnsureTraceID(ctx context.Context) context.Context {
	if _, ok := contexts.GetTraceID(ctx); ok {
		return ctx
	}

	return contexts.WithTraceID(ctx, GenerateTraceID())
}

// WithOperationName stores the operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	return contexts.WithOperationName(ctx, name)
}

// GetOperationName gets the operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	return contexts.GetOperationName(ctx)
}
