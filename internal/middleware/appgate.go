package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"platform-service/internal/appregistry"
	"platform-service/pkg/logger"
)

// ApplicationGate blocks requests into a mounted application's routes while
// the application is disabled for the tenant.
func ApplicationGate(registry *appregistry.Registry, code string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			active, err := registry.IsActive(c.Request().Context(), code)
			if err != nil {
				logger.FromEcho(c).Error("Application gate lookup failed",
					zap.String("application", code), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if !active {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "application is disabled"})
			}
			return next(c)
		}
	}
}
