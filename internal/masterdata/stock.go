package masterdata

import (
	"context"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/database"
)

// Batch and serial tracking. Status changes go through the one-way matrix.

func (r *Registry) CreateBatch(ctx context.Context, b *model.Batch) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	b.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleBatch, b.Code, r.codeTaken(&model.Batch{}))
	if err != nil {
		return err
	}
	b.Code = code

	if b.Status == "" {
		b.Status = model.StockStatusInStock
	}
	if !ValidStockStatus(b.Status) {
		return apperr.Newf(apperr.KindValidation, "unknown stock status %q", b.Status)
	}
	if b.Quantity < 0 {
		return apperr.New(apperr.KindValidation, "batch quantity cannot be negative")
	}
	if err := r.mustExist(ctx, &model.Material{}, b.MaterialID, "material"); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(b).Error, "batch")
}

// TransitionBatch moves a batch to the requested status when the matrix
// allows it.
func (r *Registry) TransitionBatch(ctx context.Context, id uint, to string) (*model.Batch, error) {
	var b model.Batch
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "batch")
	}
	if err := CheckStockTransition(b.Status, to); err != nil {
		return nil, err
	}
	b.Status = to
	if err := r.db.WithContext(ctx).Save(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Registry) ListBatches(ctx context.Context, materialID uint) ([]model.Batch, error) {
	q := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx))
	if materialID != 0 {
		q = q.Where("material_id = ?", materialID)
	}
	var rows []model.Batch
	err := q.Order("code").Find(&rows).Error
	return rows, err
}

func (r *Registry) CreateSerial(ctx context.Context, s *model.Serial) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	s.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleSerial, s.Code, r.codeTaken(&model.Serial{}))
	if err != nil {
		return err
	}
	s.Code = code

	if s.Status == "" {
		s.Status = model.StockStatusInStock
	}
	if !ValidStockStatus(s.Status) {
		return apperr.Newf(apperr.KindValidation, "unknown stock status %q", s.Status)
	}
	if err := r.mustExist(ctx, &model.Material{}, s.MaterialID, "material"); err != nil {
		return err
	}
	if s.BatchID != nil {
		if err := r.mustExist(ctx, &model.Batch{}, *s.BatchID, "batch"); err != nil {
			return err
		}
	}
	return translate(r.db.WithContext(ctx).Create(s).Error, "serial")
}

// TransitionSerial moves a serial to the requested status when the matrix
// allows it.
func (r *Registry) TransitionSerial(ctx context.Context, id uint, to string) (*model.Serial, error) {
	var s model.Serial
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "serial")
	}
	if err := CheckStockTransition(s.Status, to); err != nil {
		return nil, err
	}
	s.Status = to
	if err := r.db.WithContext(ctx).Save(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Registry) ListSerials(ctx context.Context, materialID uint) ([]model.Serial, error) {
	q := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx))
	if materialID != 0 {
		q = q.Where("material_id = ?", materialID)
	}
	var rows []model.Serial
	err := q.Order("code").Find(&rows).Error
	return rows, err
}
