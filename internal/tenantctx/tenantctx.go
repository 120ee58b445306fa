// Package tenantctx carries the active tenant id across a logical operation
// (request, scheduled job, message handler). The id rides on context.Context,
// so concurrent operations each see their own value and restoration on exit
// is the normal context discipline: callers keep the parent context.
package tenantctx

import (
	"context"

	"platform-service/pkg/apperr"
)

type contextKey struct{}

var tenantKey contextKey

// Set returns a context carrying the given tenant id.
func Set(ctx context.Context, tenantID uint) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// Clear returns a context with no tenant id, regardless of parents.
// Platform-level operations use it to make the absence explicit.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, tenantKey, nil)
}

// Get returns the current tenant id and whether one is set.
func Get(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(tenantKey).(uint)
	return id, ok
}

// Require returns the current tenant id, failing closed when absent.
// Tenant-scoped persistence must go through this before touching rows.
func Require(ctx context.Context) (uint, error) {
	id, ok := Get(ctx)
	if !ok {
		return 0, apperr.New(apperr.KindNoTenantContext, "operation requires a tenant context")
	}
	return id, nil
}

// With runs fn under the given tenant id. The caller's context is untouched
// on every exit path including panic, since the derived context never
// escapes fn.
func With(ctx context.Context, tenantID uint, fn func(ctx context.Context) error) error {
	return fn(Set(ctx, tenantID))
}
