// Package coderule generates tenant-scoped formatted identifiers from
// declarative rules. Counter claims lock the (tenant, rule, cycle key) row
// for the claim+increment window so concurrent callers get strictly
// monotonic values.
package coderule

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
)

// Engine generates identifiers for named rules in the current tenant.
type Engine struct {
	db  *gorm.DB
	loc *time.Location
}

// NewEngine creates a code rule engine using the given location for date
// components and cycle keys.
func NewEngine(db *gorm.DB, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{db: db, loc: loc}
}

// Generate claims the next counter value for the rule and returns the
// rendered identifier. fields supplies values for field_ref components.
func (e *Engine) Generate(ctx context.Context, ruleCode string, fields map[string]string) (string, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return "", err
	}

	var code string
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rule, components, err := e.loadRule(ctx, tx, ruleCode)
		if err != nil {
			return err
		}

		now := time.Now().In(e.loc)
		var counterValue int64
		if HasCounter(components) {
			counterValue, err = e.claimCounter(tx, tenantID, rule, components, now)
			if err != nil {
				return err
			}
		}

		code, err = Render(components, now, fields, counterValue)
		return err
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Preview renders the identifier the next Generate call would produce
// without advancing the counter.
func (e *Engine) Preview(ctx context.Context, ruleCode string, fields map[string]string) (string, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return "", err
	}

	rule, components, err := e.loadRule(ctx, e.db, ruleCode)
	if err != nil {
		return "", err
	}

	now := time.Now().In(e.loc)
	var counterValue int64
	if HasCounter(components) {
		cycleKey, err := CycleKey(rule.ResetCycle, now)
		if err != nil {
			return "", err
		}
		var counter model.CodeCounter
		err = e.db.WithContext(ctx).
			Where("tenant_id = ? AND code_rule_id = ? AND cycle_key = ?", tenantID, rule.ID, cycleKey).
			First(&counter).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			counterValue = initialValue(components)
		case err != nil:
			return "", err
		default:
			counterValue = counter.Current + 1
		}
	}

	return Render(components, now, fields, counterValue)
}

// ValidateManual checks a caller-supplied identifier against a rule that
// allows manual edits. taken reports whether the value already exists in the
// target domain table.
func (e *Engine) ValidateManual(ctx context.Context, ruleCode, value string, taken func(ctx context.Context, value string) (bool, error)) error {
	if _, err := tenantctx.Require(ctx); err != nil {
		return err
	}
	rule, _, err := e.loadRule(ctx, e.db, ruleCode)
	if err != nil {
		return err
	}
	if !rule.AllowManualEdit {
		return apperr.Newf(apperr.KindValidation, "rule %q does not allow manual codes", ruleCode)
	}
	if value == "" {
		return apperr.New(apperr.KindValidation, "manual code must not be empty")
	}
	exists, err := taken(ctx, value)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Newf(apperr.KindDuplicateCode, "code %q already taken", value)
	}
	return nil
}

func (e *Engine) loadRule(ctx context.Context, db *gorm.DB, ruleCode string) (*model.CodeRule, []Component, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, nil, err
	}

	var rule model.CodeRule
	err = db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, ruleCode).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.Newf(apperr.KindNotFound, "code rule %q not found", ruleCode)
	}
	if err != nil {
		return nil, nil, err
	}
	if !rule.IsActive {
		return nil, nil, apperr.Newf(apperr.KindValidation, "code rule %q is disabled", ruleCode)
	}

	components, err := ParseComponents(rule.Components)
	if err != nil {
		return nil, nil, err
	}
	return &rule, components, nil
}

// claimCounter takes an exclusive claim on the counter row for the rule's
// current cycle key, increments it, and returns the claimed value. The row
// is created on first use with Current = initial - 1 so the first issued
// value equals the component's initial_value.
func (e *Engine) claimCounter(tx *gorm.DB, tenantID uint, rule *model.CodeRule, components []Component, now time.Time) (int64, error) {
	cycleKey, err := CycleKey(rule.ResetCycle, now)
	if err != nil {
		return 0, err
	}

	seed := model.CodeCounter{
		TenantID:   tenantID,
		CodeRuleID: rule.ID,
		CycleKey:   cycleKey,
		Current:    initialValue(components) - 1,
	}
	// Upsert so cycle rollover inserts the new row atomically; racing
	// inserters collapse onto the same row.
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "code_rule_id"}, {Name: "cycle_key"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return 0, err
	}

	read := tx
	if tx.Dialector.Name() != "sqlite" {
		// SQLite has a single writer; its grammar has no FOR UPDATE.
		read = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var counter model.CodeCounter
	if err := read.
		Where("tenant_id = ? AND code_rule_id = ? AND cycle_key = ?", tenantID, rule.ID, cycleKey).
		First(&counter).Error; err != nil {
		return 0, err
	}

	next := counter.Current + 1
	if err := tx.Model(&model.CodeCounter{}).
		Where("id = ?", counter.ID).
		Update("current", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func initialValue(components []Component) int64 {
	for _, comp := range components {
		if comp.Kind == model.ComponentAutoCounter {
			if comp.InitialValue > 0 {
				return comp.InitialValue
			}
			return 1
		}
	}
	return 0
}
