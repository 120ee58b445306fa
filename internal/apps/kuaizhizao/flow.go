package kuaizhizao

import (
	"context"

	"gorm.io/gorm"

	"platform-service/internal/approval"
	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
)

// workOrderFlow assigns review tasks to every tenant user whose roles
// grant the approve permission and completes unanimously: the first
// rejection rejects, all approvals approve.
type workOrderFlow struct {
	db *gorm.DB
}

func (f *workOrderFlow) Code() string { return FlowWorkOrder }

func (f *workOrderFlow) ResolveTasks(ctx context.Context, subjectType string, subjectID, submittedBy uint) ([]approval.TaskSpec, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var approverIDs []uint
	err = f.db.WithContext(ctx).Model(&model.UserRole{}).
		Joins("JOIN core_role_permissions ON core_role_permissions.role_id = core_user_roles.role_id AND core_role_permissions.tenant_id = core_user_roles.tenant_id").
		Where("core_user_roles.tenant_id = ? AND core_role_permissions.permission_code = ?", tenantID, PermissionApprove).
		Distinct().
		Pluck("core_user_roles.user_id", &approverIDs).Error
	if err != nil {
		return nil, err
	}

	specs := make([]approval.TaskSpec, 0, len(approverIDs))
	for _, id := range approverIDs {
		if id == submittedBy {
			continue
		}
		specs = append(specs, approval.TaskSpec{NodeID: "review", ApproverID: id})
	}
	if len(specs) == 0 {
		return nil, apperr.New(apperr.KindValidation, "no eligible reviewers for work order approval")
	}
	return specs, nil
}

func (f *workOrderFlow) Evaluate(ctx context.Context, instance *model.ApprovalInstance, tasks []model.ApprovalTask) (approval.Decision, error) {
	approved := 0
	for _, task := range tasks {
		switch task.Status {
		case model.ApprovalStatusRejected:
			return approval.Decision{Complete: true, Approved: false, TargetState: StateRejected}, nil
		case model.ApprovalStatusApproved:
			approved++
		}
	}
	if approved == len(tasks) {
		return approval.Decision{Complete: true, Approved: true, TargetState: StateApproved}, nil
	}
	return approval.Decision{}, nil
}
