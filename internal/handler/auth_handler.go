package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"platform-service/internal/model"
	"platform-service/pkg/database"
	"platform-service/pkg/jwtutil"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

var jwtUtil *jwtutil.JWTUtil

// InitAuthHandler wires the token issuer used by login and refresh.
func InitAuthHandler(util *jwtutil.JWTUtil) {
	jwtUtil = util
}

// Login authenticates a tenant user by (tenant_domain, username, password),
// or a platform superadmin when tenant_domain is omitted, and issues a
// token pair.
func Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		TenantDomain string `json:"tenant_domain"`
		Username     string `json:"username"`
		Password     string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	if req.TenantDomain == "" {
		return superadminLogin(c, req.Username, req.Password)
	}

	var tenant model.Tenant
	if err := database.GetDB().Where("domain = ?", req.TenantDomain).First(&tenant).Error; err != nil {
		log.Warn("Login against unknown tenant domain", zap.String("domain", req.TenantDomain))
		prometheus.RecordAuthError("unknown_tenant")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !tenant.Usable(time.Now()) {
		log.Warn("Login into unusable tenant",
			zap.String("domain", tenant.Domain), zap.String("status", tenant.Status))
		prometheus.RecordAuthError("tenant_unusable")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant is suspended or expired"})
	}

	var user model.User
	err := database.GetDB().
		Where("tenant_id = ? AND username = ?", tenant.ID, req.Username).
		First(&user).Error
	if err != nil {
		prometheus.RecordAuthError("unknown_user")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if user.Status != model.UserStatusActive {
		prometheus.RecordAuthError("user_disabled")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is disabled"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		prometheus.RecordAuthError("bad_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	pair, err := jwtUtil.GeneratePair(user.ID, user.Username, &tenant.ID, tenant.Domain, false)
	if err != nil {
		log.Error("Token generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	prometheus.LoginCounter.Inc()
	log.Info("User logged in",
		zap.String("username", user.Username),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": echo.Map{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.Name,
			"is_admin": user.IsAdmin,
		},
		"tenant": echo.Map{
			"id":     tenant.ID,
			"name":   tenant.Name,
			"domain": tenant.Domain,
		},
	})
}

func superadminLogin(c echo.Context, username, password string) error {
	log := logger.FromEcho(c)

	var admin model.PlatformAdmin
	err := database.GetDB().Where("username = ?", username).First(&admin).Error
	if err != nil {
		prometheus.RecordAuthError("unknown_user")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		prometheus.RecordAuthError("bad_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	pair, err := jwtUtil.GeneratePair(admin.ID, admin.Username, nil, "", true)
	if err != nil {
		log.Error("Token generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	prometheus.LoginCounter.Inc()
	log.Info("Superadmin logged in", zap.String("username", admin.Username))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": echo.Map{
			"id":         admin.ID,
			"username":   admin.Username,
			"superadmin": true,
		},
	})
}

// Refresh exchanges a valid refresh token for a new pair.
func Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	claims, err := jwtUtil.ValidateToken(req.RefreshToken, jwtutil.TokenTypeRefresh)
	if err != nil {
		prometheus.RecordAuthError("invalid_refresh")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
	}
	userID, err := claims.UserID()
	if err != nil {
		prometheus.RecordAuthError("invalid_subject")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token subject"})
	}

	// Re-check the account still exists and may sign in.
	if claims.Superadmin {
		var admin model.PlatformAdmin
		if err := database.GetDB().First(&admin, userID).Error; err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account no longer exists"})
		}
	} else {
		if claims.TenantID == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		var tenant model.Tenant
		if err := database.GetDB().First(&tenant, *claims.TenantID).Error; err != nil || !tenant.Usable(time.Now()) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant is suspended or expired"})
		}
		var user model.User
		err := database.GetDB().
			Where("tenant_id = ? AND id = ? AND status = ?", *claims.TenantID, userID, model.UserStatusActive).
			First(&user).Error
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account no longer exists"})
		}
	}

	pair, err := jwtUtil.GeneratePair(userID, claims.Username, claims.TenantID, claims.TenantDomain, claims.Superadmin)
	if err != nil {
		logger.FromEcho(c).Error("Token generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, pair)
}
