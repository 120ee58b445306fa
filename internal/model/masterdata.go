package model

import "time"

// Batch / serial statuses. Transitions are one-way except returns.
const (
	StockStatusInStock  = "in_stock"
	StockStatusOutStock = "out_stock"
	StockStatusExpired  = "expired"
	StockStatusScrapped = "scrapped"
	StockStatusSold     = "sold"
	StockStatusReturned = "returned"
)

// Material represents a coded material master record with an optional
// classification hierarchy via ParentID.
type Material struct {
	Base
	TenantID      uint    `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_materials_tenant_code"`
	Code          string  `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_materials_tenant_code"`
	Name          string  `json:"name" gorm:"type:varchar(200);not null"`
	Specification string  `json:"specification" gorm:"type:varchar(200)"`
	Unit          string  `json:"unit" gorm:"type:varchar(20)"`
	Category      string  `json:"category" gorm:"type:varchar(50)"`
	ParentID      *uint   `json:"parent_id,omitempty" gorm:"index"`
	SafetyStock   float64 `json:"safety_stock" gorm:"default:0"`
	IsActive      bool    `json:"is_active" gorm:"default:true"`
}

func (Material) TableName() string { return "apps_materials" }

// Customer represents a customer master record.
type Customer struct {
	Base
	TenantID  uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_customers_tenant_code"`
	Code      string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_customers_tenant_code"`
	Name      string `json:"name" gorm:"type:varchar(200);not null"`
	Contact   string `json:"contact" gorm:"type:varchar(100)"`
	Phone     string `json:"phone" gorm:"type:varchar(30)"`
	Address   string `json:"address" gorm:"type:varchar(300)"`
	TaxNumber string `json:"tax_number" gorm:"type:varchar(50)"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`
}

func (Customer) TableName() string { return "apps_customers" }

// Supplier represents a supplier master record.
type Supplier struct {
	Base
	TenantID  uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_suppliers_tenant_code"`
	Code      string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_suppliers_tenant_code"`
	Name      string `json:"name" gorm:"type:varchar(200);not null"`
	Contact   string `json:"contact" gorm:"type:varchar(100)"`
	Phone     string `json:"phone" gorm:"type:varchar(30)"`
	Address   string `json:"address" gorm:"type:varchar(300)"`
	TaxNumber string `json:"tax_number" gorm:"type:varchar(50)"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`
}

func (Supplier) TableName() string { return "apps_suppliers" }

// Warehouse represents a warehouse master record.
type Warehouse struct {
	Base
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_warehouses_tenant_code"`
	Code     string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_warehouses_tenant_code"`
	Name     string `json:"name" gorm:"type:varchar(200);not null"`
	PlantID  *uint  `json:"plant_id,omitempty" gorm:"index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

func (Warehouse) TableName() string { return "apps_warehouses" }

// StorageLocation represents a storage location within a warehouse.
type StorageLocation struct {
	Base
	TenantID    uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_storage_locations_tenant_code"`
	Code        string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_storage_locations_tenant_code"`
	Name        string `json:"name" gorm:"type:varchar(200);not null"`
	WarehouseID uint   `json:"warehouse_id" gorm:"not null;index"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`
}

func (StorageLocation) TableName() string { return "apps_storage_locations" }

// Operation represents a manufacturing operation (process step) master record.
type Operation struct {
	Base
	TenantID    uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_operations_tenant_code"`
	Code        string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_operations_tenant_code"`
	Name        string `json:"name" gorm:"type:varchar(200);not null"`
	Description string `json:"description" gorm:"type:text"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`
}

func (Operation) TableName() string { return "apps_operations" }

// BOM represents a bill-of-materials header for a parent material.
type BOM struct {
	Base
	TenantID       uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_boms_tenant_code"`
	Code           string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_boms_tenant_code"`
	MaterialID     uint   `json:"material_id" gorm:"not null;index"`
	Version        string `json:"version" gorm:"type:varchar(20);not null;default:'1.0'"`
	PercentageMode bool   `json:"percentage_mode" gorm:"default:false"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
}

func (BOM) TableName() string { return "apps_boms" }

// BOMItem represents one component line of a BOM. Items nest via
// ParentItemID; Level is the nesting depth starting at 1.
type BOMItem struct {
	Base
	TenantID       uint    `json:"tenant_id" gorm:"not null;index"`
	BOMID          uint    `json:"bom_id" gorm:"not null;index"`
	MaterialID     uint    `json:"material_id" gorm:"not null;index"`
	ParentItemID   *uint   `json:"parent_item_id,omitempty" gorm:"index"`
	Level          int     `json:"level" gorm:"not null;default:1"`
	Sequence       int     `json:"sequence" gorm:"not null;default:0"`
	Quantity       float64 `json:"quantity" gorm:"not null"`
	WasteRate      float64 `json:"waste_rate" gorm:"default:0"` // percent, [0, 100)
	AlternateGroup string  `json:"alternate_group" gorm:"type:varchar(50)"`
	IsRequired     bool    `json:"is_required" gorm:"default:true"`
}

func (BOMItem) TableName() string { return "apps_bom_items" }

// Batch represents a tracked material batch.
type Batch struct {
	Base
	TenantID   uint       `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_batches_tenant_code"`
	Code       string     `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_batches_tenant_code"`
	MaterialID uint       `json:"material_id" gorm:"not null;index"`
	Quantity   float64    `json:"quantity" gorm:"not null;default:0"`
	Status     string     `json:"status" gorm:"type:varchar(20);not null;default:'in_stock'"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (Batch) TableName() string { return "apps_batches" }

// Serial represents an individually tracked serial number.
type Serial struct {
	Base
	TenantID   uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_serials_tenant_code"`
	Code       string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_serials_tenant_code"`
	MaterialID uint   `json:"material_id" gorm:"not null;index"`
	BatchID    *uint  `json:"batch_id,omitempty" gorm:"index"`
	Status     string `json:"status" gorm:"type:varchar(20);not null;default:'in_stock'"`
}

func (Serial) TableName() string { return "apps_serials" }

// DefectType represents a quality defect classification.
type DefectType struct {
	Base
	TenantID    uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_defect_types_tenant_code"`
	Code        string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_defect_types_tenant_code"`
	Name        string `json:"name" gorm:"type:varchar(200);not null"`
	Description string `json:"description" gorm:"type:text"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`
}

func (DefectType) TableName() string { return "apps_defect_types" }

// Plant, workshop, line, and workstation form the factory structure
// hierarchy: plant > workshop > production line > workstation.

type Plant struct {
	Base
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_plants_tenant_code"`
	Code     string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_plants_tenant_code"`
	Name     string `json:"name" gorm:"type:varchar(200);not null"`
	Address  string `json:"address" gorm:"type:varchar(300)"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

func (Plant) TableName() string { return "apps_plants" }

type Workshop struct {
	Base
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_workshops_tenant_code"`
	Code     string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_workshops_tenant_code"`
	Name     string `json:"name" gorm:"type:varchar(200);not null"`
	PlantID  uint   `json:"plant_id" gorm:"not null;index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

func (Workshop) TableName() string { return "apps_workshops" }

type ProductionLine struct {
	Base
	TenantID   uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_production_lines_tenant_code"`
	Code       string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_production_lines_tenant_code"`
	Name       string `json:"name" gorm:"type:varchar(200);not null"`
	WorkshopID uint   `json:"workshop_id" gorm:"not null;index"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`
}

func (ProductionLine) TableName() string { return "apps_production_lines" }

type Workstation struct {
	Base
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_workstations_tenant_code"`
	Code     string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_workstations_tenant_code"`
	Name     string `json:"name" gorm:"type:varchar(200);not null"`
	LineID   uint   `json:"line_id" gorm:"not null;index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

func (Workstation) TableName() string { return "apps_workstations" }

// AllModels lists every model for migration, platform-level tables first.
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{}, &PlatformAdmin{},
		&User{}, &Role{}, &Permission{}, &UserRole{}, &RolePermission{},
		&Application{}, &Menu{},
		&CodeRule{}, &CodeCounter{},
		&DocumentRelation{}, &StateTransitionLog{}, &DocumentState{},
		&ApprovalInstance{}, &ApprovalTask{},
		&Material{}, &Customer{}, &Supplier{}, &Warehouse{}, &StorageLocation{},
		&Operation{}, &BOM{}, &BOMItem{}, &Batch{}, &Serial{}, &DefectType{},
		&Plant{}, &Workshop{}, &ProductionLine{}, &Workstation{},
	}
}
