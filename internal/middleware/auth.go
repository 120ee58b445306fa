package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/jwtutil"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID     = "user_id"
	KeyUsername   = "username"
	KeySuperadmin = "superadmin"
)

var (
	jwtUtil *jwtutil.JWTUtil
	authDB  *gorm.DB
)

// InitAuth sets the token validator and the database the admin guard
// consults.
func InitAuth(util *jwtutil.JWTUtil, db *gorm.DB) {
	jwtUtil = util
	authDB = db
}

// AuthMiddleware validates the bearer token, stores the user identity on
// the echo context, and installs the token's tenant into the request
// context. Superadmin tokens carry no tenant.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			prometheus.RecordAuthError("bad_header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtUtil.ValidateToken(parts[1], jwtutil.TokenTypeAccess)
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		userID, err := claims.UserID()
		if err != nil {
			prometheus.RecordAuthError("invalid_subject")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token subject"})
		}

		c.Set(KeyUserID, userID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeySuperadmin, claims.Superadmin)

		if claims.TenantID != nil {
			ctx := tenantctx.Set(c.Request().Context(), *claims.TenantID)
			c.SetRequest(c.Request().WithContext(ctx))
		}

		return next(c)
	}
}

// RequireTenant rejects requests whose token carries no tenant. Mounted on
// every tenant-scoped route group after AuthMiddleware.
func RequireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := tenantctx.Require(c.Request().Context()); err != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant context required"})
		}
		return next(c)
	}
}

// RequireTenantAdmin limits a route to tenant administrator accounts. The
// flag lives on the user row, not in the token, so revoking admin takes
// effect on the next request.
func RequireTenantAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		tenantID, err := tenantctx.Require(ctx)
		if err != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant context required"})
		}

		var user model.User
		err = authDB.WithContext(ctx).
			Where("tenant_id = ? AND id = ?", tenantID, UserID(c)).
			First(&user).Error
		if err != nil || !user.IsAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant administrator access required"})
		}
		return next(c)
	}
}

// RequireSuperadmin limits a route group to platform superadmin tokens.
func RequireSuperadmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if is, ok := c.Get(KeySuperadmin).(bool); !ok || !is {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "superadmin access required"})
		}
		return next(c)
	}
}

// UserID returns the authenticated user id stored by AuthMiddleware.
func UserID(c echo.Context) uint {
	if id, ok := c.Get(KeyUserID).(uint); ok {
		return id
	}
	return 0
}

// IsSuperadmin reports whether the request carries a superadmin token.
func IsSuperadmin(c echo.Context) bool {
	is, ok := c.Get(KeySuperadmin).(bool)
	return ok && is
}
