// Package kuaizhizao is the bundled manufacturing execution application.
// It compiles into the binary and registers its work order state machine,
// approval flow, and HTTP routes with the kernel at startup. Per-tenant
// visibility still follows the application registry: the app stays behind
// the installed/active flags like any discovered application.
package kuaizhizao

import (
	"gorm.io/gorm"

	"platform-service/internal/appregistry"
	"platform-service/internal/approval"
	"platform-service/internal/coderule"
	"platform-service/internal/docgraph"
)

const (
	AppCode = "kuaizhizao"

	// RuleWorkOrder is the code rule consulted for generated work order codes.
	RuleWorkOrder = "work_order"

	// PermissionApprove gates work order review task assignment.
	PermissionApprove = "kuaizhizao:work_order:approve"
	// PermissionManage gates the work order menu entries.
	PermissionManage = "kuaizhizao:work_order:manage"
)

// Work order lifecycle states.
const (
	StateDraft           = "draft"
	StatePendingApproval = "pending_approval"
	StateApproved        = "approved"
	StateRejected        = "rejected"
	StateInProgress      = "in_progress"
	StateCompleted       = "completed"
	StateCancelled       = "cancelled"
)

// EntityWorkOrder is the document type work orders use in the document
// graph and state machine.
const EntityWorkOrder = "work_order"

// FlowWorkOrder is the approval flow driving work order review.
const FlowWorkOrder = "work_order_review"

// App bundles the manufacturing services over the kernel components.
type App struct {
	db        *gorm.DB
	codes     *coderule.Engine
	graph     *docgraph.Graph
	machine   *docgraph.StateMachine
	approvals *approval.Dispatcher
}

// New creates the application over the kernel services.
func New(db *gorm.DB, codes *coderule.Engine, graph *docgraph.Graph, machine *docgraph.StateMachine, approvals *approval.Dispatcher) *App {
	return &App{db: db, codes: codes, graph: graph, machine: machine, approvals: approvals}
}

// Register wires the application into the kernel: its manifest joins
// reconciliation, its state machine and approval flow become available,
// and its routes mount under /apps/kuaizhizao.
func (a *App) Register(registry *appregistry.Registry) error {
	if err := a.machine.Register(workOrderMachine()); err != nil {
		return err
	}
	if err := a.approvals.RegisterFlow(&workOrderFlow{db: a.db}); err != nil {
		return err
	}
	registry.AddBuiltin(a.manifest())
	registry.Routes().Register(AppCode, a.mount)
	return nil
}

func (a *App) manifest() appregistry.Manifest {
	intp := func(v int) *int { return &v }
	return appregistry.Manifest{
		Code:        AppCode,
		Name:        "快制造",
		Version:     "1.0.0",
		Description: "Lightweight manufacturing execution: work orders with review and progress tracking.",
		Icon:        "factory",
		RoutePath:   "/apps/" + AppCode,
		SortOrder:   10,
		MenuConfig: []appregistry.MenuNode{
			{
				Title: "生产管理",
				Icon:  "factory",
				Children: []appregistry.MenuNode{
					{Title: "工单管理", Path: "/work-orders", Permission: PermissionManage, SortOrder: intp(1)},
				},
			},
		},
		Permissions: []appregistry.PermissionDecl{
			{Code: PermissionManage, Description: "Create and progress work orders"},
			{Code: PermissionApprove, Description: "Review submitted work orders"},
		},
	}
}

func workOrderMachine() *docgraph.Machine {
	return &docgraph.Machine{
		EntityType: EntityWorkOrder,
		Initial:    StateDraft,
		States: []string{
			StateDraft, StatePendingApproval, StateApproved, StateRejected,
			StateInProgress, StateCompleted, StateCancelled,
		},
		Transitions: []docgraph.Transition{
			{From: StateDraft, To: StatePendingApproval},
			{From: StateDraft, To: StateCancelled},
			{From: StatePendingApproval, To: StateApproved},
			{From: StatePendingApproval, To: StateRejected},
			{From: StateRejected, To: StatePendingApproval},
			{From: StateRejected, To: StateCancelled},
			{From: StateApproved, To: StateInProgress},
			{From: StateApproved, To: StateCancelled},
			{From: StateInProgress, To: StateCompleted},
		},
	}
}
