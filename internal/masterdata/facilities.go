package masterdata

import (
	"context"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/database"
)

// Warehouse structure and factory structure records. Each level verifies
// its parent exists inside the tenant before insert.

func (r *Registry) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	w.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleWarehouse, w.Code, r.codeTaken(&model.Warehouse{}))
	if err != nil {
		return err
	}
	w.Code = code

	if w.PlantID != nil {
		if err := r.mustExist(ctx, &model.Plant{}, *w.PlantID, "plant"); err != nil {
			return err
		}
	}
	return translate(r.db.WithContext(ctx).Create(w).Error, "warehouse")
}

func (r *Registry) UpdateWarehouse(ctx context.Context, id uint, changes *model.Warehouse) (*model.Warehouse, error) {
	var w model.Warehouse
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&w, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "warehouse")
	}
	if changes.PlantID != nil {
		if err := r.mustExist(ctx, &model.Plant{}, *changes.PlantID, "plant"); err != nil {
			return nil, err
		}
	}
	w.Name = changes.Name
	w.PlantID = changes.PlantID
	w.IsActive = changes.IsActive
	if err := r.db.WithContext(ctx).Save(&w).Error; err != nil {
		return nil, translate(err, "warehouse")
	}
	return &w, nil
}

func (r *Registry) GetWarehouse(ctx context.Context, id uint) (*model.Warehouse, error) {
	var w model.Warehouse
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&w, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "warehouse")
	}
	return &w, nil
}

func (r *Registry) ListWarehouses(ctx context.Context, opts ListOptions) ([]model.Warehouse, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Warehouse{}).Scopes(database.TenantScope(ctx))
	if opts.Keyword != "" {
		kw := "%" + opts.Keyword + "%"
		q = q.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	if opts.OnlyActive {
		q = q.Where("is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := opts.normalize(r.pageSize)
	var rows []model.Warehouse
	err := q.Order("code").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *Registry) DeleteWarehouse(ctx context.Context, id uint) error {
	var locations int64
	err := r.db.WithContext(ctx).Model(&model.StorageLocation{}).
		Scopes(database.TenantScope(ctx)).
		Where("warehouse_id = ?", id).
		Count(&locations).Error
	if err != nil {
		return err
	}
	if locations > 0 {
		return apperr.New(apperr.KindReferentialIntegrity, "warehouse has storage locations")
	}

	res := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Delete(&model.Warehouse{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "warehouse not found")
	}
	return nil
}

func (r *Registry) CreateStorageLocation(ctx context.Context, l *model.StorageLocation) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	l.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleStorageLocation, l.Code, r.codeTaken(&model.StorageLocation{}))
	if err != nil {
		return err
	}
	l.Code = code

	if err := r.mustExist(ctx, &model.Warehouse{}, l.WarehouseID, "warehouse"); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(l).Error, "storage location")
}

func (r *Registry) ListStorageLocations(ctx context.Context, warehouseID uint) ([]model.StorageLocation, error) {
	var rows []model.StorageLocation
	q := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx))
	if warehouseID != 0 {
		q = q.Where("warehouse_id = ?", warehouseID)
	}
	err := q.Order("code").Find(&rows).Error
	return rows, err
}

func (r *Registry) CreateOperation(ctx context.Context, op *model.Operation) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	op.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleOperation, op.Code, r.codeTaken(&model.Operation{}))
	if err != nil {
		return err
	}
	op.Code = code
	return translate(r.db.WithContext(ctx).Create(op).Error, "operation")
}

func (r *Registry) ListOperations(ctx context.Context) ([]model.Operation, error) {
	var rows []model.Operation
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Order("code").Find(&rows).Error
	return rows, err
}

func (r *Registry) CreateDefectType(ctx context.Context, d *model.DefectType) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	d.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleDefectType, d.Code, r.codeTaken(&model.DefectType{}))
	if err != nil {
		return err
	}
	d.Code = code
	return translate(r.db.WithContext(ctx).Create(d).Error, "defect type")
}

func (r *Registry) ListDefectTypes(ctx context.Context) ([]model.DefectType, error) {
	var rows []model.DefectType
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Order("code").Find(&rows).Error
	return rows, err
}

// Factory structure: plant > workshop > production line > workstation.

func (r *Registry) CreatePlant(ctx context.Context, p *model.Plant) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	p.TenantID = tenantID

	code, err := r.resolveCode(ctx, RulePlant, p.Code, r.codeTaken(&model.Plant{}))
	if err != nil {
		return err
	}
	p.Code = code
	return translate(r.db.WithContext(ctx).Create(p).Error, "plant")
}

func (r *Registry) CreateWorkshop(ctx context.Context, w *model.Workshop) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	w.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleWorkshop, w.Code, r.codeTaken(&model.Workshop{}))
	if err != nil {
		return err
	}
	w.Code = code

	if err := r.mustExist(ctx, &model.Plant{}, w.PlantID, "plant"); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(w).Error, "workshop")
}

func (r *Registry) CreateProductionLine(ctx context.Context, l *model.ProductionLine) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	l.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleProductionLine, l.Code, r.codeTaken(&model.ProductionLine{}))
	if err != nil {
		return err
	}
	l.Code = code

	if err := r.mustExist(ctx, &model.Workshop{}, l.WorkshopID, "workshop"); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(l).Error, "production line")
}

func (r *Registry) CreateWorkstation(ctx context.Context, w *model.Workstation) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	w.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleWorkstation, w.Code, r.codeTaken(&model.Workstation{}))
	if err != nil {
		return err
	}
	w.Code = code

	if err := r.mustExist(ctx, &model.ProductionLine{}, w.LineID, "production line"); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(w).Error, "workstation")
}

// FactoryStructure returns the tenant's plants with nested workshops,
// lines, and workstations.
func (r *Registry) FactoryStructure(ctx context.Context) ([]PlantNode, error) {
	var plants []model.Plant
	if err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Order("code").Find(&plants).Error; err != nil {
		return nil, err
	}
	var workshops []model.Workshop
	if err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Order("code").Find(&workshops).Error; err != nil {
		return nil, err
	}
	var lines []model.ProductionLine
	if err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Order("code").Find(&lines).Error; err != nil {
		return nil, err
	}
	var stations []model.Workstation
	if err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Order("code").Find(&stations).Error; err != nil {
		return nil, err
	}

	lineNodes := make(map[uint]*LineNode, len(lines))
	workshopNodes := make(map[uint]*WorkshopNode, len(workshops))
	out := make([]PlantNode, 0, len(plants))

	plantIdx := make(map[uint]int, len(plants))
	for i := range plants {
		out = append(out, PlantNode{Plant: plants[i]})
		plantIdx[plants[i].ID] = i
	}
	for i := range workshops {
		node := &WorkshopNode{Workshop: workshops[i]}
		workshopNodes[workshops[i].ID] = node
		if idx, ok := plantIdx[workshops[i].PlantID]; ok {
			out[idx].Workshops = append(out[idx].Workshops, node)
		}
	}
	for i := range lines {
		node := &LineNode{Line: lines[i]}
		lineNodes[lines[i].ID] = node
		if parent, ok := workshopNodes[lines[i].WorkshopID]; ok {
			parent.Lines = append(parent.Lines, node)
		}
	}
	for i := range stations {
		if parent, ok := lineNodes[stations[i].LineID]; ok {
			parent.Workstations = append(parent.Workstations, stations[i])
		}
	}
	return out, nil
}

// PlantNode is a plant with its nested structure.
type PlantNode struct {
	Plant     model.Plant     `json:"plant"`
	Workshops []*WorkshopNode `json:"workshops,omitempty"`
}

type WorkshopNode struct {
	Workshop model.Workshop `json:"workshop"`
	Lines    []*LineNode    `json:"lines,omitempty"`
}

type LineNode struct {
	Line         model.ProductionLine `json:"line"`
	Workstations []model.Workstation  `json:"workstations,omitempty"`
}

// mustExist verifies a referenced record exists inside the tenant.
func (r *Registry) mustExist(ctx context.Context, entity interface{}, id uint, what string) error {
	var count int64
	err := r.db.WithContext(ctx).Model(entity).
		Scopes(database.TenantScope(ctx)).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return apperr.Newf(apperr.KindReferentialIntegrity, "%s not found", what)
	}
	return nil
}
