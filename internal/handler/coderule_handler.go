package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"platform-service/internal/coderule"
	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/database"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

var codeEngine *coderule.Engine

// InitCodeRuleHandler wires the identifier engine.
func InitCodeRuleHandler(engine *coderule.Engine) {
	codeEngine = engine
}

type codeRuleRequest struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Components      json.RawMessage `json:"components"`
	ResetCycle      string          `json:"reset_cycle"`
	AllowManualEdit bool            `json:"allow_manual_edit"`
	IsActive        *bool           `json:"is_active"`
	Description     string          `json:"description"`
}

func validResetCycle(cycle string) bool {
	switch cycle {
	case model.ResetCycleNever, model.ResetCycleDaily, model.ResetCycleMonthly, model.ResetCycleYearly:
		return true
	}
	return false
}

// ListCodeRules returns the tenant's rules.
func ListCodeRules(c echo.Context) error {
	ctx := c.Request().Context()
	var rules []model.CodeRule
	err := database.GetDB().WithContext(ctx).
		Scopes(database.TenantScope(ctx)).
		Order("code").
		Find(&rules).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code_rules": rules})
}

// CreateCodeRule validates and stores a rule definition.
func CreateCodeRule(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return respondError(c, err)
	}

	var req codeRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name are required"})
	}
	if req.ResetCycle == "" {
		req.ResetCycle = model.ResetCycleNever
	}
	if !validResetCycle(req.ResetCycle) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown reset cycle"})
	}

	components, err := coderule.ParseComponents(string(req.Components))
	if err != nil {
		return respondError(c, err)
	}
	if err := coderule.ValidateComponents(components); err != nil {
		return respondError(c, err)
	}

	rule := model.CodeRule{
		TenantID:        tenantID,
		Code:            req.Code,
		Name:            req.Name,
		Components:      string(req.Components),
		ResetCycle:      req.ResetCycle,
		AllowManualEdit: req.AllowManualEdit,
		IsActive:        true,
		Description:     req.Description,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := database.GetDB().WithContext(ctx).Create(&rule).Error; err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "code rule already exists"})
	}

	logger.FromEcho(c).Info("Code rule created", zap.String("rule", rule.Code))
	return c.JSON(http.StatusCreated, echo.Map{"code_rule": rule})
}

// UpdateCodeRule replaces a rule's definition. The rule code itself is
// immutable.
func UpdateCodeRule(c echo.Context) error {
	ctx := c.Request().Context()
	ruleCode := c.Param("code")

	var req codeRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var rule model.CodeRule
	err := database.GetDB().WithContext(ctx).
		Scopes(database.TenantScope(ctx)).
		First(&rule, "code = ?", ruleCode).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "code rule not found"})
	}

	if len(req.Components) > 0 {
		components, err := coderule.ParseComponents(string(req.Components))
		if err != nil {
			return respondError(c, err)
		}
		if err := coderule.ValidateComponents(components); err != nil {
			return respondError(c, err)
		}
		rule.Components = string(req.Components)
	}
	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.ResetCycle != "" {
		if !validResetCycle(req.ResetCycle) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown reset cycle"})
		}
		rule.ResetCycle = req.ResetCycle
	}
	rule.AllowManualEdit = req.AllowManualEdit
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.Description = req.Description

	if err := database.GetDB().WithContext(ctx).Save(&rule).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code_rule": rule})
}

// GetCodeRule returns one rule with its counters.
func GetCodeRule(c echo.Context) error {
	ctx := c.Request().Context()
	ruleCode := c.Param("code")

	var rule model.CodeRule
	err := database.GetDB().WithContext(ctx).
		Scopes(database.TenantScope(ctx)).
		First(&rule, "code = ?", ruleCode).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "code rule not found"})
	}

	var counters []model.CodeCounter
	err = database.GetDB().WithContext(ctx).
		Scopes(database.TenantScope(ctx)).
		Where("code_rule_id = ?", rule.ID).
		Order("cycle_key").
		Find(&counters).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code_rule": rule, "counters": counters})
}

// PreviewCode renders the next identifier without advancing the counter.
func PreviewCode(c echo.Context) error {
	var req struct {
		Fields map[string]string `json:"fields"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	code, err := codeEngine.Preview(c.Request().Context(), c.Param("code"), req.Fields)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": code, "preview": true})
}

// GenerateCode claims and returns the next identifier for a rule.
func GenerateCode(c echo.Context) error {
	var req struct {
		Fields map[string]string `json:"fields"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ruleCode := c.Param("code")
	code, err := codeEngine.Generate(c.Request().Context(), ruleCode, req.Fields)
	if err != nil {
		return respondError(c, err)
	}
	prometheus.CodesGeneratedCounter.WithLabelValues(ruleCode).Inc()
	return c.JSON(http.StatusOK, echo.Map{"code": code})
}
