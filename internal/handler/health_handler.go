package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"platform-service/pkg/database"
)

var serviceName string

// InitHealthHandler sets the service name reported by the health endpoint.
func InitHealthHandler(name string) {
	serviceName = name
}

// Health reports service and database status.
func Health(c echo.Context) error {
	dbStatus := "up"
	if db := database.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "down"
		}
	} else {
		dbStatus = "down"
	}

	status := http.StatusOK
	if dbStatus != "up" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, echo.Map{
		"service":  serviceName,
		"status":   "ok",
		"database": dbStatus,
	})
}
