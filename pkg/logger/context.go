package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"platform-service/internal/tenantctx"
)

type contextKey string

const loggerKey contextKey = "logger"

// WithContext stores a request-scoped logger on the context.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger, tagged with the tenant id
// carried by ctx. Outside a request it falls back to the service logger.
func FromContext(ctx context.Context) *zap.Logger {
	log, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		log = GetLogger()
	}
	return withTenant(ctx, log)
}

// FromEcho returns the logger installed by the request id middleware,
// tenant-tagged like FromContext.
func FromEcho(c echo.Context) *zap.Logger {
	if log, ok := c.Get("logger").(*zap.Logger); ok {
		return withTenant(c.Request().Context(), log)
	}
	return FromContext(c.Request().Context())
}

func withTenant(ctx context.Context, log *zap.Logger) *zap.Logger {
	if tenantID, ok := tenantctx.Get(ctx); ok {
		return log.With(zap.Uint("tenant_id", tenantID))
	}
	return log
}
