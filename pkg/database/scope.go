package database

import (
	"context"

	"gorm.io/gorm"

	"platform-service/internal/tenantctx"
)

// TenantScope filters every query by the tenant id carried in ctx. When no
// tenant is present the query fails closed with NoTenantContext instead of
// returning cross-tenant rows.
//
// Usage: db.WithContext(ctx).Scopes(database.TenantScope(ctx)).Find(&rows)
func TenantScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		tenantID, err := tenantctx.Require(ctx)
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}
