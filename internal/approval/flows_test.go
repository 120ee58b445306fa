package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/model"
	"platform-service/pkg/apperr"
)

func reviewFlow() *UnanimousFlow {
	return &UnanimousFlow{
		FlowCode:      "work_order_review",
		NodeID:        "review",
		ApproverIDs:   []uint{11, 12},
		ApprovedState: "approved",
		RejectedState: "rejected",
	}
}

func task(approver uint, status string) model.ApprovalTask {
	return model.ApprovalTask{ApproverID: approver, NodeID: "review", Status: status}
}

func TestUnanimousFlowResolveTasks(t *testing.T) {
	flow := reviewFlow()
	specs, err := flow.ResolveTasks(context.Background(), "work_order", 7, 99)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, uint(11), specs[0].ApproverID)
	assert.Equal(t, "review", specs[0].NodeID)
}

func TestUnanimousFlowExcludesSubmitter(t *testing.T) {
	flow := reviewFlow()
	specs, err := flow.ResolveTasks(context.Background(), "work_order", 7, 11)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, uint(12), specs[0].ApproverID)
}

func TestUnanimousFlowEvaluate(t *testing.T) {
	flow := reviewFlow()
	instance := &model.ApprovalInstance{FlowCode: flow.FlowCode}

	decision, err := flow.Evaluate(context.Background(), instance, []model.ApprovalTask{
		task(11, model.ApprovalStatusApproved),
		task(12, model.ApprovalStatusPending),
	})
	require.NoError(t, err)
	assert.False(t, decision.Complete, "one approval of two is not complete")

	decision, err = flow.Evaluate(context.Background(), instance, []model.ApprovalTask{
		task(11, model.ApprovalStatusApproved),
		task(12, model.ApprovalStatusApproved),
	})
	require.NoError(t, err)
	assert.True(t, decision.Complete)
	assert.True(t, decision.Approved)
	assert.Equal(t, "approved", decision.TargetState)

	decision, err = flow.Evaluate(context.Background(), instance, []model.ApprovalTask{
		task(11, model.ApprovalStatusApproved),
		task(12, model.ApprovalStatusRejected),
	})
	require.NoError(t, err)
	assert.True(t, decision.Complete)
	assert.False(t, decision.Approved)
	assert.Equal(t, "rejected", decision.TargetState)
}

func TestRegisterFlowValidation(t *testing.T) {
	d := NewDispatcher(nil, nil)

	err := d.RegisterFlow(nil)
	assert.True(t, apperr.IsValidation(err))

	err = d.RegisterFlow(&UnanimousFlow{})
	assert.True(t, apperr.IsValidation(err), "missing flow code")

	require.NoError(t, d.RegisterFlow(reviewFlow()))
	_, err = d.flow("work_order_review")
	assert.NoError(t, err)

	_, err = d.flow("unknown")
	assert.True(t, apperr.IsValidation(err))
}
