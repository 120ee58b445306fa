package approval

import (
	"context"

	"platform-service/internal/model"
)

// UnanimousFlow approves when every assigned task is approved and rejects
// on the first rejection. Approvers and the completion target state are
// fixed at construction, which covers the common single-stage review.
type UnanimousFlow struct {
	FlowCode      string
	NodeID        string
	ApproverIDs   []uint
	ApprovedState string
	RejectedState string
}

func (f *UnanimousFlow) Code() string { return f.FlowCode }

func (f *UnanimousFlow) ResolveTasks(ctx context.Context, subjectType string, subjectID, submittedBy uint) ([]TaskSpec, error) {
	specs := make([]TaskSpec, 0, len(f.ApproverIDs))
	for _, id := range f.ApproverIDs {
		if id == submittedBy {
			continue // submitters do not review their own subject
		}
		specs = append(specs, TaskSpec{NodeID: f.NodeID, ApproverID: id})
	}
	return specs, nil
}

func (f *UnanimousFlow) Evaluate(ctx context.Context, instance *model.ApprovalInstance, tasks []model.ApprovalTask) (Decision, error) {
	approved := 0
	for _, task := range tasks {
		switch task.Status {
		case model.ApprovalStatusRejected:
			return Decision{Complete: true, Approved: false, TargetState: f.RejectedState}, nil
		case model.ApprovalStatusApproved:
			approved++
		}
	}
	if approved == len(tasks) {
		return Decision{Complete: true, Approved: true, TargetState: f.ApprovedState}, nil
	}
	return Decision{}, nil
}
