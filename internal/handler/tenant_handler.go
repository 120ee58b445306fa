package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/pkg/database"
	"platform-service/pkg/logger"
)

// SearchTenants finds tenants by name or domain fragment. Public: login
// screens use it to resolve the tenant before authenticating.
func SearchTenants(c echo.Context) error {
	keyword := c.QueryParam("keyword")
	if len(keyword) < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "keyword must be at least 2 characters"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size < 1 || size > 100 {
		size = 20
	}

	var tenants []model.Tenant
	kw := "%" + strings.ToLower(keyword) + "%"
	err := database.GetDB().
		Where("status = ? AND (LOWER(name) LIKE ? OR LOWER(domain) LIKE ?)", model.TenantStatusActive, kw, kw).
		Order("name").
		Offset((page - 1) * size).
		Limit(size).
		Find(&tenants).Error
	if err != nil {
		return respondError(c, err)
	}

	results := make([]echo.Map, 0, len(tenants))
	for i := range tenants {
		results = append(results, echo.Map{
			"name":   tenants[i].Name,
			"domain": tenants[i].Domain,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tenants": results})
}

// CheckDomain reports whether a tenant domain is taken. Public.
func CheckDomain(c echo.Context) error {
	domain := c.Param("domain")
	if domain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "domain is required"})
	}

	var count int64
	err := database.GetDB().Model(&model.Tenant{}).
		Where("domain = ?", domain).
		Count(&count).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"domain": domain, "exists": count > 0})
}

// CreateTenant provisions a tenant with its initial admin user.
// Superadmin only.
func CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Name          string     `json:"name"`
		Domain        string     `json:"domain"`
		Plan          string     `json:"plan"`
		MaxUsers      int        `json:"max_users"`
		ExpiresAt     *time.Time `json:"expires_at"`
		AdminUsername string     `json:"admin_username"`
		AdminPassword string     `json:"admin_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Domain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and domain are required"})
	}
	if req.AdminUsername == "" || len(req.AdminPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "admin_username and an admin_password of at least 8 characters are required"})
	}

	tenant := model.Tenant{
		Name:      req.Name,
		Domain:    req.Domain,
		Status:    model.TenantStatusActive,
		Plan:      req.Plan,
		ExpiresAt: req.ExpiresAt,
	}
	if req.MaxUsers > 0 {
		tenant.MaxUsers = req.MaxUsers
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, err)
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		admin := model.User{
			TenantID: tenant.ID,
			Username: req.AdminUsername,
			Password: string(hash),
			Status:   model.UserStatusActive,
			IsAdmin:  true,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		log.Error("Tenant provisioning failed", zap.String("domain", req.Domain), zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant domain already exists"})
	}

	log.Info("Tenant provisioned", zap.String("domain", tenant.Domain), zap.Uint("id", tenant.ID))
	return c.JSON(http.StatusCreated, echo.Map{"tenant": tenant})
}

// ListTenants returns all tenants. Superadmin only.
func ListTenants(c echo.Context) error {
	var tenants []model.Tenant
	if err := database.GetDB().Order("id").Find(&tenants).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tenants": tenants})
}

// UpdateTenant changes plan, limits, status, or expiry. Superadmin only.
func UpdateTenant(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		Name      string     `json:"name"`
		Status    string     `json:"status"`
		Plan      string     `json:"plan"`
		MaxUsers  int        `json:"max_users"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Status != "" && req.Status != model.TenantStatusActive &&
		req.Status != model.TenantStatusSuspended && req.Status != model.TenantStatusExpired {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown tenant status"})
	}

	var tenant model.Tenant
	if err := database.GetDB().First(&tenant, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.Status != "" {
		tenant.Status = req.Status
	}
	if req.Plan != "" {
		tenant.Plan = req.Plan
	}
	if req.MaxUsers > 0 {
		tenant.MaxUsers = req.MaxUsers
	}
	if req.ExpiresAt != nil {
		tenant.ExpiresAt = req.ExpiresAt
	}
	if err := database.GetDB().Save(&tenant).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tenant": tenant})
}

// SuspendTenant marks a tenant suspended, blocking further logins.
// Superadmin only.
func SuspendTenant(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	result := database.GetDB().Model(&model.Tenant{}).
		Where("id = ?", id).
		Update("status", model.TenantStatusSuspended)
	if result.Error != nil {
		return respondError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	logger.FromEcho(c).Info("Tenant suspended", zap.Uint("tenant_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant suspended"})
}
