package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"platform-service/pkg/apperr"
	"platform-service/pkg/logger"
)

// respondError maps a domain error onto an HTTP status and JSON body.
// Unexpected errors are logged and masked.
func respondError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromEcho(c).Error("Request failed", zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": apperr.Message(err)})
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint, bool) {
	var id uint
	if err := echo.PathParamsBinder(c).Uint("id", &id).BindError(); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
