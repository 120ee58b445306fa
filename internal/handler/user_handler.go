package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/database"
	"platform-service/pkg/logger"
)

// invalidateMenus drops the tenant's cached navigation after a role or
// assignment change.
func invalidateMenus(c echo.Context) {
	ctx := c.Request().Context()
	if tenantID, err := tenantctx.Require(ctx); err == nil && menuSynthesizer != nil {
		menuSynthesizer.Invalidate(ctx, tenantID)
	}
}

// CreateUser adds a tenant user. Tenant admin only.
func CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Username == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and a password of at least 8 characters are required"})
	}

	var tenant model.Tenant
	if err := database.GetDB().First(&tenant, tenantID).Error; err != nil {
		return respondError(c, err)
	}
	var count int64
	err = database.GetDB().WithContext(ctx).Model(&model.User{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	if err != nil {
		return respondError(c, err)
	}
	if tenant.MaxUsers > 0 && count >= int64(tenant.MaxUsers) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant user limit reached"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, err)
	}

	user := model.User{
		TenantID: tenantID,
		Username: req.Username,
		Password: string(hash),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Status:   model.UserStatusActive,
		IsAdmin:  req.IsAdmin,
	}
	if err := database.GetDB().WithContext(ctx).Create(&user).Error; err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	}

	logger.FromEcho(c).Info("User created",
		zap.String("username", user.Username), zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}

// ListUsers returns the tenant's users.
func ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	var users []model.User
	err := database.GetDB().WithContext(ctx).
		Scopes(database.TenantScope(ctx)).
		Order("username").
		Find(&users).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// UpdateUserStatus enables or disables an account.
func UpdateUserStatus(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	switch req.Status {
	case model.UserStatusActive, model.UserStatusDisabled, model.UserStatusTerminated:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown user status"})
	}

	result := database.GetDB().WithContext(ctx).Model(&model.User{}).
		Scopes(database.TenantScope(ctx)).
		Where("id = ?", id).
		Update("status", req.Status)
	if result.Error != nil {
		return respondError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

// CreateRole adds a role with an optional permission set.
func CreateRole(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Code        string   `json:"code"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name are required"})
	}

	role := model.Role{
		TenantID:    tenantID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	}
	err = database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		for _, code := range req.Permissions {
			grant := model.RolePermission{TenantID: tenantID, RoleID: role.ID, PermissionCode: code}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "role code already exists"})
	}

	invalidateMenus(c)
	return c.JSON(http.StatusCreated, echo.Map{"role": role})
}

// ListRoles returns the tenant's roles with their permission codes.
func ListRoles(c echo.Context) error {
	ctx := c.Request().Context()
	var roles []model.Role
	err := database.GetDB().WithContext(ctx).
		Scopes(database.TenantScope(ctx)).
		Order("code").
		Find(&roles).Error
	if err != nil {
		return respondError(c, err)
	}

	out := make([]echo.Map, 0, len(roles))
	for i := range roles {
		var codes []string
		err := database.GetDB().WithContext(ctx).Model(&model.RolePermission{}).
			Scopes(database.TenantScope(ctx)).
			Where("role_id = ?", roles[i].ID).
			Pluck("permission_code", &codes).Error
		if err != nil {
			return respondError(c, err)
		}
		out = append(out, echo.Map{"role": roles[i], "permissions": codes})
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": out})
}

// SetRolePermissions replaces a role's permission set.
func SetRolePermissions(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role ID"})
	}

	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	err = database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role model.Role
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&role).Error; err != nil {
			return err
		}
		err := tx.Where("tenant_id = ? AND role_id = ?", tenantID, id).
			Delete(&model.RolePermission{}).Error
		if err != nil {
			return err
		}
		for _, code := range req.Permissions {
			grant := model.RolePermission{TenantID: tenantID, RoleID: id, PermissionCode: code}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}

	invalidateMenus(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "permissions updated"})
}

// AssignRole grants a role to a user.
func AssignRole(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		UserID uint `json:"user_id"`
		RoleID uint `json:"role_id"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == 0 || req.RoleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and role_id are required"})
	}

	var found int64
	err = database.GetDB().WithContext(ctx).Model(&model.User{}).
		Where("tenant_id = ? AND id = ?", tenantID, req.UserID).
		Count(&found).Error
	if err != nil || found == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	err = database.GetDB().WithContext(ctx).Model(&model.Role{}).
		Where("tenant_id = ? AND id = ?", tenantID, req.RoleID).
		Count(&found).Error
	if err != nil || found == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
	}

	assignment := model.UserRole{TenantID: tenantID, UserID: req.UserID, RoleID: req.RoleID}
	if err := database.GetDB().WithContext(ctx).Create(&assignment).Error; err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "role already assigned"})
	}

	invalidateMenus(c)
	return c.JSON(http.StatusCreated, echo.Map{"message": "role assigned"})
}

// ListPermissions returns the tenant's permission catalog.
func ListPermissions(c echo.Context) error {
	ctx := c.Request().Context()
	var permissions []model.Permission
	err := database.GetDB().WithContext(ctx).
		Scopes(database.TenantScope(ctx)).
		Order("code").
		Find(&permissions).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"permissions": permissions})
}
