package kuaizhizao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"platform-service/internal/docgraph"
	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/database"
)

// WorkOrder is a production order for a material. Its lifecycle state lives
// in the kernel's document state table, not on the row.
type WorkOrder struct {
	model.Base
	TenantID     uint       `json:"tenant_id" gorm:"not null;uniqueIndex:uid_apps_work_orders_tenant_code"`
	Code         string     `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:uid_apps_work_orders_tenant_code"`
	MaterialID   uint       `json:"material_id" gorm:"not null;index"`
	Quantity     float64    `json:"quantity" gorm:"not null"`
	PlanID       *uint      `json:"plan_id,omitempty" gorm:"index"`
	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
	Remark       string     `json:"remark" gorm:"type:text"`
	CreatedBy    uint       `json:"created_by" gorm:"not null"`
}

func (WorkOrder) TableName() string { return "apps_work_orders" }

// Models lists the application's tables for migration.
func Models() []interface{} {
	return []interface{}{&WorkOrder{}}
}

// WorkOrderDetail pairs a work order with its current lifecycle state.
type WorkOrderDetail struct {
	WorkOrder WorkOrder `json:"work_order"`
	State     string    `json:"state"`
}

// CreateWorkOrder persists a new work order in the draft state. An empty
// code is generated from the work_order rule; a provided code is validated
// for per-tenant uniqueness. A plan reference links the work order
// downstream of its production plan in the document graph.
func (a *App) CreateWorkOrder(ctx context.Context, wo *WorkOrder) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	if wo.MaterialID == 0 {
		return apperr.New(apperr.KindValidation, "material is required")
	}
	if wo.Quantity <= 0 {
		return apperr.New(apperr.KindValidation, "quantity must be positive")
	}

	var material model.Material
	err = a.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&material, "id = ?", wo.MaterialID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Newf(apperr.KindReferentialIntegrity, "material %d does not exist", wo.MaterialID)
	}
	if err != nil {
		return err
	}

	if wo.Code == "" {
		wo.Code, err = a.codes.Generate(ctx, RuleWorkOrder, nil)
		if err != nil {
			return err
		}
	} else if err := a.codes.ValidateManual(ctx, RuleWorkOrder, wo.Code, a.codeTaken); err != nil {
		return err
	}

	wo.TenantID = tenantID
	if err := a.db.WithContext(ctx).Create(wo).Error; err != nil {
		return err
	}
	if err := a.machine.Initialize(ctx, EntityWorkOrder, wo.ID); err != nil {
		return err
	}
	if wo.PlanID != nil {
		return a.graph.Link(ctx,
			docgraph.Node{Type: "production_plan", ID: *wo.PlanID},
			docgraph.Node{Type: EntityWorkOrder, ID: wo.ID},
			"derived", model.RelationModePush, nil, wo.CreatedBy)
	}
	return nil
}

func (a *App) codeTaken(ctx context.Context, value string) (bool, error) {
	var n int64
	err := a.db.WithContext(ctx).Model(&WorkOrder{}).
		Scopes(database.TenantScope(ctx)).
		Where("code = ?", value).
		Count(&n).Error
	return n > 0, err
}

// GetWorkOrder returns the work order with its current state.
func (a *App) GetWorkOrder(ctx context.Context, id uint) (*WorkOrderDetail, error) {
	var wo WorkOrder
	err := a.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&wo, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Newf(apperr.KindNotFound, "work order %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	state, err := a.machine.Current(ctx, EntityWorkOrder, wo.ID)
	if err != nil {
		return nil, err
	}
	return &WorkOrderDetail{WorkOrder: wo, State: state}, nil
}

// ListWorkOrders returns the tenant's work orders, optionally filtered by
// material, newest first.
func (a *App) ListWorkOrders(ctx context.Context, materialID uint) ([]WorkOrder, error) {
	q := a.db.WithContext(ctx).Scopes(database.TenantScope(ctx))
	if materialID != 0 {
		q = q.Where("material_id = ?", materialID)
	}
	var rows []WorkOrder
	err := q.Order("id DESC").Find(&rows).Error
	return rows, err
}

// SubmitWorkOrder moves a draft or rejected work order into review and
// opens its approval instance. Completion of the review drives the state
// to approved or rejected.
func (a *App) SubmitWorkOrder(ctx context.Context, id, userID uint) (*model.ApprovalInstance, error) {
	if _, err := a.GetWorkOrder(ctx, id); err != nil {
		return nil, err
	}
	err := a.machine.Transition(ctx, EntityWorkOrder, id, StatePendingApproval, userID, "submitted for review")
	if err != nil {
		return nil, err
	}
	return a.approvals.Submit(ctx, FlowWorkOrder, EntityWorkOrder, id, userID)
}

// StartWorkOrder moves an approved work order into production.
func (a *App) StartWorkOrder(ctx context.Context, id, userID uint) error {
	return a.machine.Transition(ctx, EntityWorkOrder, id, StateInProgress, userID, "production started")
}

// CompleteWorkOrder finishes an in-progress work order.
func (a *App) CompleteWorkOrder(ctx context.Context, id, userID uint) error {
	return a.machine.Transition(ctx, EntityWorkOrder, id, StateCompleted, userID, "production completed")
}

// CancelWorkOrder cancels a work order that has not started production.
func (a *App) CancelWorkOrder(ctx context.Context, id, userID uint) error {
	return a.machine.Transition(ctx, EntityWorkOrder, id, StateCancelled, userID, "cancelled")
}
