package model

// Reset cycles for code rule counters.
const (
	ResetCycleNever   = "never"
	ResetCycleDaily   = "daily"
	ResetCycleMonthly = "monthly"
	ResetCycleYearly  = "yearly"
)

// Code rule component kinds.
const (
	ComponentFixedText   = "fixed_text"
	ComponentDate        = "date"
	ComponentAutoCounter = "auto_counter"
	ComponentFieldRef    = "field_ref"
)

// CycleKeyNever is the sentinel cycle key for rules that never reset.
const CycleKeyNever = "-"

// CodeRule represents a declarative identifier template. The ordered
// component list is validated at entry and stored as opaque JSON.
type CodeRule struct {
	Base
	TenantID        uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_code_rules_tenant_code"`
	Code            string `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_core_code_rules_tenant_code"`
	Name            string `json:"name" gorm:"type:varchar(100);not null"`
	Components      string `json:"components" gorm:"type:jsonb;not null"`
	ResetCycle      string `json:"reset_cycle" gorm:"type:varchar(20);not null;default:'never'"`
	AllowManualEdit bool   `json:"allow_manual_edit" gorm:"default:false"`
	IsActive        bool   `json:"is_active" gorm:"default:true"`
	Description     string `json:"description" gorm:"type:text"`
}

func (CodeRule) TableName() string { return "core_code_rules" }

// CodeCounter is the per-(tenant, rule, cycle key) counter row. Claims take
// a row lock for the claim+increment window; values are strictly monotonic
// within one cycle key.
type CodeCounter struct {
	Base
	TenantID   uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_code_counters_key"`
	CodeRuleID uint   `json:"code_rule_id" gorm:"not null;uniqueIndex:uid_core_code_counters_key"`
	CycleKey   string `json:"cycle_key" gorm:"type:varchar(20);not null;uniqueIndex:uid_core_code_counters_key"`
	Current    int64  `json:"current" gorm:"not null;default:0"`
}

func (CodeCounter) TableName() string { return "core_code_counters" }
