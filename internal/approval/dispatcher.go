// Package approval runs the kernel side of approval workflows: instance and
// task lifecycle, completion evaluation, and the resulting subject state
// transition. Who approves what and when a flow completes is decided by
// domain-supplied flow definitions.
package approval

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"platform-service/internal/docgraph"
	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/database"
)

// TaskSpec names one approver assignment a flow wants created.
type TaskSpec struct {
	NodeID     string
	ApproverID uint
}

// Decision is a flow's verdict after a task is decided. TargetState, when
// set on a complete decision, is applied to the subject through the state
// machine.
type Decision struct {
	Complete    bool
	Approved    bool
	TargetState string
}

// FlowDefinition is the capability interface a domain implements to plug
// its approval logic into the kernel.
type FlowDefinition interface {
	Code() string
	ResolveTasks(ctx context.Context, subjectType string, subjectID, submittedBy uint) ([]TaskSpec, error)
	Evaluate(ctx context.Context, instance *model.ApprovalInstance, tasks []model.ApprovalTask) (Decision, error)
}

// Dispatcher owns approval instances and tasks.
type Dispatcher struct {
	db      *gorm.DB
	machine *docgraph.StateMachine

	mu    sync.RWMutex
	flows map[string]FlowDefinition
}

func NewDispatcher(db *gorm.DB, machine *docgraph.StateMachine) *Dispatcher {
	return &Dispatcher{db: db, machine: machine, flows: make(map[string]FlowDefinition)}
}

// RegisterFlow installs a flow definition under its code. Later
// registrations replace earlier ones.
func (d *Dispatcher) RegisterFlow(flow FlowDefinition) error {
	if flow == nil || flow.Code() == "" {
		return apperr.New(apperr.KindValidation, "flow definition requires a code")
	}
	d.mu.Lock()
	d.flows[flow.Code()] = flow
	d.mu.Unlock()
	return nil
}

func (d *Dispatcher) flow(code string) (FlowDefinition, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	flow, ok := d.flows[code]
	if !ok {
		return nil, apperr.Newf(apperr.KindValidation, "no approval flow registered as %q", code)
	}
	return flow, nil
}

// Submit opens an instance for a subject and creates its tasks. A subject
// can have at most one pending instance.
func (d *Dispatcher) Submit(ctx context.Context, flowCode, subjectType string, subjectID, submittedBy uint) (*model.ApprovalInstance, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	flow, err := d.flow(flowCode)
	if err != nil {
		return nil, err
	}

	specs, err := flow.ResolveTasks(ctx, subjectType, subjectID, submittedBy)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, apperr.Newf(apperr.KindValidation, "flow %q resolved no approvers", flowCode)
	}

	instance := &model.ApprovalInstance{
		TenantID:    tenantID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		FlowCode:    flowCode,
		Status:      model.ApprovalStatusPending,
		SubmittedBy: submittedBy,
	}
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.Model(&model.ApprovalInstance{}).
			Where("tenant_id = ? AND subject_type = ? AND subject_id = ? AND status = ?",
				tenantID, subjectType, subjectID, model.ApprovalStatusPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return apperr.Newf(apperr.KindValidation, "%s %d already has a pending approval", subjectType, subjectID)
		}

		if err := tx.Create(instance).Error; err != nil {
			return err
		}
		for _, spec := range specs {
			task := model.ApprovalTask{
				TenantID:   tenantID,
				InstanceID: instance.ID,
				NodeID:     spec.NodeID,
				ApproverID: spec.ApproverID,
				Status:     model.ApprovalStatusPending,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// Approve records a positive decision on a task and re-evaluates the flow.
func (d *Dispatcher) Approve(ctx context.Context, taskID, approverID uint, comment string) (*model.ApprovalInstance, error) {
	return d.decide(ctx, taskID, approverID, comment, model.ApprovalStatusApproved)
}

// Reject records a negative decision on a task and re-evaluates the flow.
func (d *Dispatcher) Reject(ctx context.Context, taskID, approverID uint, comment string) (*model.ApprovalInstance, error) {
	return d.decide(ctx, taskID, approverID, comment, model.ApprovalStatusRejected)
}

func (d *Dispatcher) decide(ctx context.Context, taskID, approverID uint, comment, status string) (*model.ApprovalInstance, error) {
	if _, err := tenantctx.Require(ctx); err != nil {
		return nil, err
	}

	var instance model.ApprovalInstance
	var decision Decision
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.ApprovalTask
		err := tx.Scopes(database.TenantScope(ctx)).First(&task, "id = ?", taskID).Error
		if err != nil {
			return translateNotFound(err, "approval task")
		}
		if task.Status != model.ApprovalStatusPending {
			return apperr.Newf(apperr.KindIllegalTransition, "task already %s", task.Status)
		}
		if task.ApproverID != approverID {
			return apperr.New(apperr.KindValidation, "task is assigned to another approver")
		}

		now := time.Now()
		task.Status = status
		task.Comment = comment
		task.DecidedAt = &now
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		err = tx.Scopes(database.TenantScope(ctx)).First(&instance, "id = ?", task.InstanceID).Error
		if err != nil {
			return translateNotFound(err, "approval instance")
		}
		if instance.Status != model.ApprovalStatusPending {
			return apperr.Newf(apperr.KindIllegalTransition, "approval already %s", instance.Status)
		}

		var tasks []model.ApprovalTask
		err = tx.Scopes(database.TenantScope(ctx)).
			Where("instance_id = ?", instance.ID).
			Order("id").
			Find(&tasks).Error
		if err != nil {
			return err
		}

		flow, err := d.flow(instance.FlowCode)
		if err != nil {
			return err
		}
		decision, err = flow.Evaluate(ctx, &instance, tasks)
		if err != nil {
			return err
		}
		if !decision.Complete {
			return nil
		}

		instance.Status = model.ApprovalStatusApproved
		if !decision.Approved {
			instance.Status = model.ApprovalStatusRejected
		}
		instance.CompletedAt = &now
		if err := tx.Save(&instance).Error; err != nil {
			return err
		}
		// Completion settles the remaining assignments.
		return tx.Model(&model.ApprovalTask{}).
			Scopes(database.TenantScope(ctx)).
			Where("instance_id = ? AND status = ?", instance.ID, model.ApprovalStatusPending).
			Update("status", model.ApprovalStatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}

	if decision.Complete && decision.TargetState != "" && d.machine != nil {
		err := d.machine.Transition(ctx, instance.SubjectType, instance.SubjectID,
			decision.TargetState, approverID, "approval "+instance.Status)
		if err != nil {
			return &instance, err
		}
	}
	return &instance, nil
}

// Cancel withdraws a pending instance and voids its outstanding tasks.
func (d *Dispatcher) Cancel(ctx context.Context, instanceID, operatorID uint) error {
	if _, err := tenantctx.Require(ctx); err != nil {
		return err
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var instance model.ApprovalInstance
		err := tx.Scopes(database.TenantScope(ctx)).First(&instance, "id = ?", instanceID).Error
		if err != nil {
			return translateNotFound(err, "approval instance")
		}
		if instance.Status != model.ApprovalStatusPending {
			return apperr.Newf(apperr.KindIllegalTransition, "approval already %s", instance.Status)
		}

		now := time.Now()
		instance.Status = model.ApprovalStatusCancelled
		instance.CompletedAt = &now
		if err := tx.Save(&instance).Error; err != nil {
			return err
		}
		return tx.Model(&model.ApprovalTask{}).
			Scopes(database.TenantScope(ctx)).
			Where("instance_id = ? AND status = ?", instance.ID, model.ApprovalStatusPending).
			Update("status", model.ApprovalStatusCancelled).Error
	})
}

// GetInstance loads an instance with its tasks.
func (d *Dispatcher) GetInstance(ctx context.Context, instanceID uint) (*model.ApprovalInstance, []model.ApprovalTask, error) {
	var instance model.ApprovalInstance
	err := d.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&instance, "id = ?", instanceID).Error
	if err != nil {
		return nil, nil, translateNotFound(err, "approval instance")
	}
	var tasks []model.ApprovalTask
	err = d.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Where("instance_id = ?", instance.ID).
		Order("id").
		Find(&tasks).Error
	if err != nil {
		return nil, nil, err
	}
	return &instance, tasks, nil
}

// PendingTasks lists an approver's open assignments, oldest first.
func (d *Dispatcher) PendingTasks(ctx context.Context, approverID uint) ([]model.ApprovalTask, error) {
	var tasks []model.ApprovalTask
	err := d.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Where("approver_id = ? AND status = ?", approverID, model.ApprovalStatusPending).
		Order("id").
		Find(&tasks).Error
	return tasks, err
}

func translateNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Newf(apperr.KindNotFound, "%s not found", what)
	}
	return err
}
