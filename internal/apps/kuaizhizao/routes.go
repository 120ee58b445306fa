package kuaizhizao

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"platform-service/internal/middleware"
	"platform-service/pkg/apperr"
	"platform-service/pkg/logger"
)

func (a *App) mount(g *echo.Group) {
	g.POST("/work-orders", a.createWorkOrder)
	g.GET("/work-orders", a.listWorkOrders)
	g.GET("/work-orders/:id", a.getWorkOrder)
	g.POST("/work-orders/:id/submit", a.submitWorkOrder)
	g.POST("/work-orders/:id/start", a.startWorkOrder)
	g.POST("/work-orders/:id/complete", a.completeWorkOrder)
	g.POST("/work-orders/:id/cancel", a.cancelWorkOrder)
}

func respond(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromEcho(c).Error("Work order request failed", zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": apperr.Message(err)})
}

func orderID(c echo.Context) (uint, bool) {
	var id uint
	if err := echo.PathParamsBinder(c).Uint("id", &id).BindError(); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func (a *App) createWorkOrder(c echo.Context) error {
	var wo WorkOrder
	if err := c.Bind(&wo); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	wo.CreatedBy = middleware.UserID(c)
	if err := a.CreateWorkOrder(c.Request().Context(), &wo); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"work_order": wo})
}

func (a *App) listWorkOrders(c echo.Context) error {
	materialID, _ := strconv.ParseUint(c.QueryParam("material_id"), 10, 64)
	rows, err := a.ListWorkOrders(c.Request().Context(), uint(materialID))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"work_orders": rows})
}

func (a *App) getWorkOrder(c echo.Context) error {
	id, ok := orderID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid work order ID"})
	}
	detail, err := a.GetWorkOrder(c.Request().Context(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (a *App) submitWorkOrder(c echo.Context) error {
	id, ok := orderID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid work order ID"})
	}
	instance, err := a.SubmitWorkOrder(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"approval": instance})
}

func (a *App) startWorkOrder(c echo.Context) error {
	return a.transition(c, a.StartWorkOrder)
}

func (a *App) completeWorkOrder(c echo.Context) error {
	return a.transition(c, a.CompleteWorkOrder)
}

func (a *App) cancelWorkOrder(c echo.Context) error {
	return a.transition(c, a.CancelWorkOrder)
}

func (a *App) transition(c echo.Context, op func(ctx context.Context, id, userID uint) error) error {
	id, ok := orderID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid work order ID"})
	}
	if err := op(c.Request().Context(), id, middleware.UserID(c)); err != nil {
		return respond(c, err)
	}
	detail, err := a.GetWorkOrder(c.Request().Context(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}
