package model

import "time"

// Relation modes capture how an edge came to exist.
const (
	RelationModePush   = "push"
	RelationModePull   = "pull"
	RelationModeManual = "manual"
)

// DocumentRelation is one directed edge between two business documents.
// Documents are referenced by (type, id) pairs so the kernel carries no
// foreign keys into domain tables. (tenant, source, target) is unique and
// link is an idempotent upsert on that key.
type DocumentRelation struct {
	Base
	TenantID     uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_document_relations_edge"`
	SourceType   string `json:"source_type" gorm:"type:varchar(50);not null;uniqueIndex:uid_core_document_relations_edge;index:idx_core_document_relations_source"`
	SourceID     uint   `json:"source_id" gorm:"not null;uniqueIndex:uid_core_document_relations_edge;index:idx_core_document_relations_source"`
	TargetType   string `json:"target_type" gorm:"type:varchar(50);not null;uniqueIndex:uid_core_document_relations_edge;index:idx_core_document_relations_target"`
	TargetID     uint   `json:"target_id" gorm:"not null;uniqueIndex:uid_core_document_relations_edge;index:idx_core_document_relations_target"`
	RelationKind string `json:"relation_kind" gorm:"type:varchar(50);not null"`
	RelationMode string `json:"relation_mode" gorm:"type:varchar(10);not null;default:'manual'"`
	DemandID     *uint  `json:"demand_id,omitempty"`
	CreatedBy    uint   `json:"created_by"`
}

func (DocumentRelation) TableName() string { return "core_document_relations" }

// StateTransitionLog is the append-only record of document state changes.
// Rows are never updated or deleted.
type StateTransitionLog struct {
	Base
	TenantID   uint   `json:"tenant_id" gorm:"not null;index:idx_core_state_logs_entity"`
	EntityType string `json:"entity_type" gorm:"type:varchar(50);not null;index:idx_core_state_logs_entity"`
	EntityID   uint   `json:"entity_id" gorm:"not null;index:idx_core_state_logs_entity"`
	FromState  string `json:"from_state" gorm:"type:varchar(50);not null"`
	ToState    string `json:"to_state" gorm:"type:varchar(50);not null"`
	OperatorID uint   `json:"operator_id"`
	Reason     string `json:"reason" gorm:"type:text"`
}

func (StateTransitionLog) TableName() string { return "core_state_transition_logs" }

// DocumentState tracks the current state and optimistic version of any
// document the state machine manages. Transitions on the same entity are
// serialized by the version column.
type DocumentState struct {
	Base
	TenantID   uint   `json:"tenant_id" gorm:"not null;uniqueIndex:uid_core_document_states_entity"`
	EntityType string `json:"entity_type" gorm:"type:varchar(50);not null;uniqueIndex:uid_core_document_states_entity"`
	EntityID   uint   `json:"entity_id" gorm:"not null;uniqueIndex:uid_core_document_states_entity"`
	State      string `json:"state" gorm:"type:varchar(50);not null"`
	Version    int64  `json:"version" gorm:"not null;default:0"`
}

func (DocumentState) TableName() string { return "core_document_states" }

// Approval statuses shared by instances and tasks.
const (
	ApprovalStatusPending   = "pending"
	ApprovalStatusApproved  = "approved"
	ApprovalStatusRejected  = "rejected"
	ApprovalStatusCancelled = "cancelled"
)

// ApprovalInstance is one subject under review.
type ApprovalInstance struct {
	Base
	TenantID    uint       `json:"tenant_id" gorm:"not null;index"`
	SubjectType string     `json:"subject_type" gorm:"type:varchar(50);not null;index:idx_core_approval_instances_subject"`
	SubjectID   uint       `json:"subject_id" gorm:"not null;index:idx_core_approval_instances_subject"`
	FlowCode    string     `json:"flow_code" gorm:"type:varchar(50);not null"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	SubmittedBy uint       `json:"submitted_by"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (ApprovalInstance) TableName() string { return "core_approval_instances" }

// ApprovalTask is one per-node assignment to an approver. Tasks are never
// assigned across tenants.
type ApprovalTask struct {
	Base
	TenantID   uint       `json:"tenant_id" gorm:"not null;index"`
	InstanceID uint       `json:"instance_id" gorm:"not null;index"`
	NodeID     string     `json:"node_id" gorm:"type:varchar(50);not null"`
	ApproverID uint       `json:"approver_id" gorm:"not null;index"`
	Status     string     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Comment    string     `json:"comment" gorm:"type:text"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

func (ApprovalTask) TableName() string { return "core_approval_tasks" }
