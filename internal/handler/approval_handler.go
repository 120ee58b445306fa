package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"platform-service/internal/approval"
	"platform-service/internal/middleware"
)

var approvalDispatcher *approval.Dispatcher

// InitApprovalHandler wires the approval dispatcher.
func InitApprovalHandler(d *approval.Dispatcher) {
	approvalDispatcher = d
}

// SubmitApproval opens an approval instance for a subject.
func SubmitApproval(c echo.Context) error {
	var req struct {
		FlowCode    string `json:"flow_code"`
		SubjectType string `json:"subject_type"`
		SubjectID   uint   `json:"subject_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.FlowCode == "" || req.SubjectType == "" || req.SubjectID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "flow_code, subject_type and subject_id are required"})
	}

	instance, err := approvalDispatcher.Submit(c.Request().Context(),
		req.FlowCode, req.SubjectType, req.SubjectID, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"approval": instance})
}

// ApproveTask records a positive decision on the caller's task.
func ApproveTask(c echo.Context) error {
	return decideTask(c, true)
}

// RejectTask records a negative decision on the caller's task.
func RejectTask(c echo.Context) error {
	return decideTask(c, false)
}

func decideTask(c echo.Context, approve bool) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	var err error
	var instance interface{}
	if approve {
		instance, err = approvalDispatcher.Approve(ctx, id, middleware.UserID(c), req.Comment)
	} else {
		instance, err = approvalDispatcher.Reject(ctx, id, middleware.UserID(c), req.Comment)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"approval": instance})
}

// CancelApproval withdraws a pending instance.
func CancelApproval(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid approval ID"})
	}
	if err := approvalDispatcher.Cancel(c.Request().Context(), id, middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "approval cancelled"})
}

// GetApproval returns one instance with its tasks.
func GetApproval(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid approval ID"})
	}
	instance, tasks, err := approvalDispatcher.GetInstance(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"approval": instance, "tasks": tasks})
}

// MyApprovalTasks lists the caller's open assignments.
func MyApprovalTasks(c echo.Context) error {
	tasks, err := approvalDispatcher.PendingTasks(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}
