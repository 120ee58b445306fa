package kuaizhizao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/docgraph"
	"platform-service/internal/model"
)

func TestManifestIsValid(t *testing.T) {
	a := &App{}
	manifest := a.manifest()
	require.NoError(t, manifest.Validate())
	assert.Equal(t, AppCode, manifest.Code)
	require.Len(t, manifest.Permissions, 2)
}

func TestWorkOrderMachineRegisters(t *testing.T) {
	s := docgraph.NewStateMachine(nil, nil)
	require.NoError(t, s.Register(workOrderMachine()))

	machine, ok := s.MachineFor(EntityWorkOrder)
	require.True(t, ok)
	assert.Equal(t, StateDraft, machine.Initial)
}

func reviewTask(approver uint, status string) model.ApprovalTask {
	return model.ApprovalTask{ApproverID: approver, NodeID: "review", Status: status}
}

func TestWorkOrderFlowEvaluate(t *testing.T) {
	flow := &workOrderFlow{}
	instance := &model.ApprovalInstance{FlowCode: FlowWorkOrder}

	decision, err := flow.Evaluate(context.Background(), instance, []model.ApprovalTask{
		reviewTask(11, model.ApprovalStatusApproved),
		reviewTask(12, model.ApprovalStatusPending),
	})
	require.NoError(t, err)
	assert.False(t, decision.Complete)

	decision, err = flow.Evaluate(context.Background(), instance, []model.ApprovalTask{
		reviewTask(11, model.ApprovalStatusApproved),
		reviewTask(12, model.ApprovalStatusApproved),
	})
	require.NoError(t, err)
	assert.True(t, decision.Complete)
	assert.True(t, decision.Approved)
	assert.Equal(t, StateApproved, decision.TargetState)

	decision, err = flow.Evaluate(context.Background(), instance, []model.ApprovalTask{
		reviewTask(11, model.ApprovalStatusApproved),
		reviewTask(12, model.ApprovalStatusRejected),
	})
	require.NoError(t, err)
	assert.True(t, decision.Complete)
	assert.False(t, decision.Approved)
	assert.Equal(t, StateRejected, decision.TargetState)
}
