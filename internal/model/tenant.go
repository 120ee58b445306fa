package model

import "time"

// Tenant statuses.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusExpired   = "expired"
)

// Tenant represents one isolated organizational customer of the platform.
// Tenants are platform-level: they carry no tenant_id themselves and are
// never hard-deleted.
type Tenant struct {
	Base
	Name       string     `json:"name" gorm:"type:varchar(100);not null"`
	Domain     string     `json:"domain" gorm:"type:varchar(100);uniqueIndex;not null"`
	Status     string     `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Plan       string     `json:"plan" gorm:"type:varchar(50);default:'standard'"`
	MaxUsers   int        `json:"max_users" gorm:"default:50"`
	MaxStorage int64      `json:"max_storage" gorm:"default:10737418240"` // bytes
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (Tenant) TableName() string { return "infra_tenants" }

// Usable reports whether the tenant can authenticate and serve requests.
func (t *Tenant) Usable(now time.Time) bool {
	if t.Status != TenantStatusActive {
		return false
	}
	if t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
		return false
	}
	return true
}

// PlatformAdmin represents a platform superadmin account. Superadmins exist
// outside any tenant and their tokens omit the tenant claim.
type PlatformAdmin struct {
	Base
	Username string `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password string `json:"-" gorm:"type:varchar(255);not null"`
}

func (PlatformAdmin) TableName() string { return "infra_platform_admins" }
