package masterdata

import (
	"context"

	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/database"
)

// BOMItemInput is one component line of a create request. ParentIdx points
// at an earlier line in the same request, -1 for top level.
type BOMItemInput struct {
	MaterialID     uint    `json:"material_id"`
	ParentIdx      int     `json:"parent_idx"`
	Sequence       int     `json:"sequence"`
	Quantity       float64 `json:"quantity"`
	WasteRate      float64 `json:"waste_rate"`
	AlternateGroup string  `json:"alternate_group"`
	IsRequired     bool    `json:"is_required"`
}

// BOMDetail is a header with its persisted component lines.
type BOMDetail struct {
	BOM   model.BOM       `json:"bom"`
	Items []model.BOMItem `json:"items"`
}

// CreateBOM validates and persists a bill of materials with its items in
// one transaction. Item levels derive from the parent chain.
func (r *Registry) CreateBOM(ctx context.Context, bom *model.BOM, items []BOMItemInput) (*BOMDetail, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	bom.TenantID = tenantID

	if err := ValidateBOMItems(items, bom.PercentageMode); err != nil {
		return nil, err
	}
	if err := r.mustExist(ctx, &model.Material{}, bom.MaterialID, "material"); err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := r.mustExist(ctx, &model.Material{}, item.MaterialID, "material"); err != nil {
			return nil, apperr.Newf(apperr.KindReferentialIntegrity, "item %d: material not found", i+1)
		}
		if item.MaterialID == bom.MaterialID {
			return nil, apperr.Newf(apperr.KindValidation, "item %d: component cannot be the parent material", i+1)
		}
	}

	code, err := r.resolveCode(ctx, RuleBOM, bom.Code, r.codeTaken(&model.BOM{}))
	if err != nil {
		return nil, err
	}
	bom.Code = code
	if bom.Version == "" {
		bom.Version = "1.0"
	}

	detail := &BOMDetail{}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bom).Error; err != nil {
			return translate(err, "bill of materials")
		}

		rows := make([]model.BOMItem, len(items))
		for i, item := range items {
			rows[i] = model.BOMItem{
				TenantID:       tenantID,
				BOMID:          bom.ID,
				MaterialID:     item.MaterialID,
				Level:          itemLevel(items, i),
				Sequence:       item.Sequence,
				Quantity:       item.Quantity,
				WasteRate:      item.WasteRate,
				AlternateGroup: item.AlternateGroup,
				IsRequired:     item.IsRequired,
			}
		}
		// Insert in order so parent ids are known for later lines.
		for i := range rows {
			if items[i].ParentIdx >= 0 {
				rows[i].ParentItemID = &rows[items[i].ParentIdx].ID
			}
			if err := tx.Create(&rows[i]).Error; err != nil {
				return translate(err, "bill of materials item")
			}
		}
		detail.BOM = *bom
		detail.Items = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// GetBOM loads a header with items ordered by level then sequence.
func (r *Registry) GetBOM(ctx context.Context, id uint) (*BOMDetail, error) {
	var bom model.BOM
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&bom, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "bill of materials")
	}

	var items []model.BOMItem
	err = r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Where("bom_id = ?", bom.ID).
		Order("level, sequence, id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &BOMDetail{BOM: bom, Items: items}, nil
}

// ListBOMs returns headers for a material, newest version first.
func (r *Registry) ListBOMs(ctx context.Context, materialID uint) ([]model.BOM, error) {
	q := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx))
	if materialID != 0 {
		q = q.Where("material_id = ?", materialID)
	}
	var rows []model.BOM
	err := q.Order("material_id, version DESC").Find(&rows).Error
	return rows, err
}
