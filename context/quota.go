package context

import (
	"context"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

type contextkey string

const (
	quotaKey contextkey = "search_quota"
)

// ContextSetQuota binds the session's search quota to ctx.
func ContextSetQuota(ctx context.Context, quota models.SearchQuota) context.Context {
	return context.WithValue(ctx, quotaKey, quota)
}

// ContextGetQuota returns the quota loaded by the quota middleware.
// ok is false when the middleware did not run.
func ContextGetQuota(ctx context.Context) (quota models.SearchQuota, ok bool) {
	quota, ok = ctx.Value(quotaKey).(models.SearchQuota)
	return quota, ok
}
