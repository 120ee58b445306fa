package model

// User statuses.
const (
	UserStatusActive     = "active"
	UserStatusDisabled   = "disabled"
	UserStatusTerminated = "terminated"
)

// User represents a tenant user. Usernames are unique within a tenant, not
// globally; login therefore resolves the tenant domain first.
type User struct {
	Base
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_users_tenant_username"`
	Username string `json:"username" gorm:"type:varchar(100);not null;uniqueIndex:uid_core_users_tenant_username"`
	Password string `json:"-" gorm:"type:varchar(255);not null"`
	Name     string `json:"name" gorm:"type:varchar(100)"`
	Email    string `json:"email" gorm:"type:varchar(100)"`
	Phone    string `json:"phone" gorm:"type:varchar(30)"`
	Status   string `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	IsAdmin  bool   `json:"is_admin" gorm:"default:false"`
}

func (User) TableName() string { return "core_users" }

// Role represents a named permission set within a tenant.
type Role struct {
	Base
	TenantID    uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_roles_tenant_code"`
	Code        string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_core_roles_tenant_code"`
	Name        string `json:"name" gorm:"type:varchar(100);not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (Role) TableName() string { return "core_roles" }

// Permission represents a grantable permission code of the form
// "resource:action", unique per tenant.
type Permission struct {
	Base
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_permissions_tenant_code"`
	Code     string `json:"code" gorm:"type:varchar(100);not null;uniqueIndex:uid_core_permissions_tenant_code"`
	// ApplicationCode ties manifest-declared permissions back to their app.
	ApplicationCode string `json:"application_code" gorm:"type:varchar(50);index"`
	Description     string `json:"description" gorm:"type:text"`
}

func (Permission) TableName() string { return "core_permissions" }

// UserRole assigns a role to a user within a tenant.
type UserRole struct {
	Base
	TenantID uint `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_user_roles_pair"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:uid_core_user_roles_pair"`
	RoleID   uint `json:"role_id" gorm:"not null;uniqueIndex:uid_core_user_roles_pair"`
}

func (UserRole) TableName() string { return "core_user_roles" }

// RolePermission grants a permission code to a role.
type RolePermission struct {
	Base
	TenantID       uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_role_permissions_pair"`
	RoleID         uint   `json:"role_id" gorm:"not null;uniqueIndex:uid_core_role_permissions_pair"`
	PermissionCode string `json:"permission_code" gorm:"type:varchar(100);not null;uniqueIndex:uid_core_role_permissions_pair"`
}

func (RolePermission) TableName() string { return "core_role_permissions" }
