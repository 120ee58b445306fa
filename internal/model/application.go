package model

// Application represents one installed application per tenant. Exactly one
// row exists per (tenant, code); uninstall keeps the row with
// is_installed=false so prior state survives rediscovery.
type Application struct {
	Base
	TenantID    uint           `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_applications_tenant_code"`
	Code        string         `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_core_applications_tenant_code"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Version     string         `json:"version" gorm:"type:varchar(20);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Icon        string         `json:"icon" gorm:"type:varchar(100)"`
	RoutePath   string         `json:"route_path" gorm:"type:varchar(200)"`
	EntryPoint  string         `json:"entry_point" gorm:"type:varchar(200)"`
	SortOrder   int            `json:"sort_order" gorm:"default:0"`
	Manifest    string         `json:"manifest" gorm:"type:jsonb"`
	IsInstalled bool           `json:"is_installed" gorm:"default:true"`
	IsActive    bool           `json:"is_active" gorm:"default:false"`
	// PendingMount marks applications whose routes were discovered after
	// boot and will be mounted on next restart.
	PendingMount bool   `json:"pending_mount" gorm:"default:false"`
	LastError    string `json:"last_error,omitempty" gorm:"type:text"`
}

func (Application) TableName() string { return "core_applications" }

// Menu represents one synthesized navigation node, derived from the owning
// application's manifest. Menus are not edited directly.
type Menu struct {
	Base
	TenantID       uint   `json:"tenant_id" gorm:"not null;index:idx_core_menus_tenant_app"`
	ApplicationID  uint   `json:"application_id" gorm:"not null;index:idx_core_menus_tenant_app"`
	ParentID       *uint  `json:"parent_id,omitempty" gorm:"index"`
	Title          string `json:"title" gorm:"type:varchar(100);not null"`
	Path           string `json:"path" gorm:"type:varchar(200)"`
	Icon           string `json:"icon" gorm:"type:varchar(100)"`
	PermissionCode string `json:"permission_code" gorm:"type:varchar(100)"`
	SortOrder      int    `json:"sort_order" gorm:"default:0"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
}

func (Menu) TableName() string { return "core_menus" }
