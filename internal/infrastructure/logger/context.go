package logger

import (
	"context"

	"github.com/google/uuid"
)

type tenantKey struct{}

// WithTenant attaches the tenant id to the context so downstream log
// emitters (the gorm adapter in particular) can tag their output. Every
// query in this service runs on behalf of exactly one tenant.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantFrom extracts the tenant id attached by WithTenant
func TenantFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantKey{}).(uuid.UUID)
	return id, ok
}
