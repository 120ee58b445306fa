package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"platform-service/internal/appregistry"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

var appRegistry *appregistry.Registry

// InitApplicationHandler wires the application registry.
func InitApplicationHandler(registry *appregistry.Registry) {
	appRegistry = registry
}

// ListApplications returns the tenant's installed applications.
func ListApplications(c echo.Context) error {
	apps, err := appRegistry.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}

// ReloadApplications rescans the plugin search paths and reconciles the
// tenant's records against what is on disk.
func ReloadApplications(c echo.Context) error {
	log := logger.FromEcho(c)

	if err := appRegistry.ReloadTenant(c.Request().Context()); err != nil {
		log.Error("Application reload failed", zap.Error(err))
		return respondError(c, err)
	}
	prometheus.ApplicationReloadCounter.Inc()
	log.Info("Applications reloaded")
	return c.JSON(http.StatusOK, echo.Map{"message": "applications reloaded"})
}

// EnableApplication activates an installed application for the tenant.
func EnableApplication(c echo.Context) error {
	code := c.Param("code")
	if err := appRegistry.Enable(c.Request().Context(), code); err != nil {
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("Application enabled", zap.String("application", code))
	return c.JSON(http.StatusOK, echo.Map{"message": "application enabled"})
}

// DisableApplication deactivates an application for the tenant.
func DisableApplication(c echo.Context) error {
	code := c.Param("code")
	if err := appRegistry.Disable(c.Request().Context(), code); err != nil {
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("Application disabled", zap.String("application", code))
	return c.JSON(http.StatusOK, echo.Map{"message": "application disabled"})
}
