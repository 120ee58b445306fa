// Package masterdata maintains tenant-scoped coded master records:
// materials and partners, warehouse and factory structure, bills of
// materials, and batch/serial stock tracking. Codes come from the rule
// engine unless a rule permits manual entry.
package masterdata

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"platform-service/internal/coderule"
	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/database"
)

// Rule codes looked up per entity kind when a create omits the code.
const (
	RuleMaterial        = "material"
	RuleCustomer        = "customer"
	RuleSupplier        = "supplier"
	RuleWarehouse       = "warehouse"
	RuleStorageLocation = "storage_location"
	RuleOperation       = "operation"
	RuleBOM             = "bom"
	RuleBatch           = "batch"
	RuleSerial          = "serial"
	RuleDefectType      = "defect_type"
	RulePlant           = "plant"
	RuleWorkshop        = "workshop"
	RuleProductionLine  = "production_line"
	RuleWorkstation     = "workstation"
)

// Registry is the master data service facade.
type Registry struct {
	db       *gorm.DB
	codes    *coderule.Engine
	pageSize int
}

// NewRegistry creates the registry. pageSize is the default list page
// size; values below 1 fall back to 20.
func NewRegistry(db *gorm.DB, codes *coderule.Engine, pageSize int) *Registry {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &Registry{db: db, codes: codes, pageSize: pageSize}
}

// ListOptions page master data queries. Zero values fall back to the first
// page with the service default size.
type ListOptions struct {
	Page       int
	PageSize   int
	Keyword    string
	OnlyActive bool
}

func (o ListOptions) normalize(defaultSize int) (offset, limit int) {
	page := o.Page
	if page < 1 {
		page = 1
	}
	size := o.PageSize
	if size < 1 {
		size = defaultSize
	}
	return (page - 1) * size, size
}

const defaultPageSize = 20

// resolveCode settles the external code for a new record. An empty manual
// code asks the rule engine to generate one; a supplied code is accepted
// only when the rule allows manual edits and the value is free in the
// entity's table.
func (r *Registry) resolveCode(ctx context.Context, ruleCode, manual string, taken func(ctx context.Context, value string) (bool, error)) (string, error) {
	if manual == "" {
		return r.codes.Generate(ctx, ruleCode, nil)
	}
	if err := r.codes.ValidateManual(ctx, ruleCode, manual, taken); err != nil {
		return "", err
	}
	return manual, nil
}

// codeTaken builds a uniqueness check over the given model's table.
func (r *Registry) codeTaken(entity interface{}) func(ctx context.Context, value string) (bool, error) {
	return func(ctx context.Context, value string) (bool, error) {
		var count int64
		err := r.db.WithContext(ctx).Model(entity).
			Scopes(database.TenantScope(ctx)).
			Where("code = ?", value).
			Count(&count).Error
		return count > 0, err
	}
}

// translate maps storage errors onto domain kinds.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Newf(apperr.KindNotFound, "%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Newf(apperr.KindDuplicateCode, "%s code already exists", what)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Newf(apperr.KindReferentialIntegrity, "%s references a missing record", what)
	default:
		return err
	}
}

// --- materials ---

// CreateMaterial persists a material, generating its code when absent and
// validating the classification parent.
func (r *Registry) CreateMaterial(ctx context.Context, m *model.Material) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	m.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleMaterial, m.Code, r.codeTaken(&model.Material{}))
	if err != nil {
		return err
	}
	m.Code = code

	if m.ParentID != nil {
		if err := r.checkMaterialParent(ctx, 0, m.ParentID); err != nil {
			return err
		}
	}
	return translate(r.db.WithContext(ctx).Create(m).Error, "material")
}

// UpdateMaterial applies changes to an existing material. The code is
// immutable after creation; parent changes are re-validated against the
// hierarchy.
func (r *Registry) UpdateMaterial(ctx context.Context, id uint, changes *model.Material) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "material")
	}

	if changes.ParentID != nil || m.ParentID != nil {
		if err := r.checkMaterialParent(ctx, m.ID, changes.ParentID); err != nil {
			return nil, err
		}
	}

	m.Name = changes.Name
	m.Specification = changes.Specification
	m.Unit = changes.Unit
	m.Category = changes.Category
	m.ParentID = changes.ParentID
	m.SafetyStock = changes.SafetyStock
	m.IsActive = changes.IsActive
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return nil, translate(err, "material")
	}
	return &m, nil
}

func (r *Registry) GetMaterial(ctx context.Context, id uint) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "material")
	}
	return &m, nil
}

func (r *Registry) ListMaterials(ctx context.Context, opts ListOptions) ([]model.Material, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Material{}).Scopes(database.TenantScope(ctx))
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
	var rows []model.Material
	err := q.Order("code").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// DeleteMaterial soft deletes a material. Materials with child categories
// must be re-parented first.
func (r *Registry) DeleteMaterial(ctx context.Context, id uint) error {
	var children int64
	err := r.db.WithContext(ctx).Model(&model.Material{}).
		Scopes(database.TenantScope(ctx)).
		Where("parent_id = ?", id).
		Count(&children).Error
	if err != nil {
		return err
	}
	if children > 0 {
		return apperr.New(apperr.KindReferentialIntegrity, "material has child records")
	}

	res := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Delete(&model.Material{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "material not found")
	}
	return nil
}

// checkMaterialParent loads the tenant's material parent relation and runs
// the hierarchy checks for assigning parentID to material id (0 for a new
// record).
func (r *Registry) checkMaterialParent(ctx context.Context, id uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	var rows []model.Material
	err := r.db.WithContext(ctx).Model(&model.Material{}).
		Scopes(database.TenantScope(ctx)).
		Select("id", "parent_id").
		Find(&rows).Error
	if err != nil {
		return err
	}
	parents := make(map[uint]*uint, len(rows))
	for i := range rows {
		parents[rows[i].ID] = rows[i].ParentID
	}
	if _, ok := parents[*parentID]; !ok {
		return apperr.New(apperr.KindReferentialIntegrity, "parent material not found")
	}
	return CheckHierarchy(id, parentID, parents)
}

// --- customers ---

func (r *Registry) CreateCustomer(ctx context.Context, c *model.Customer) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	c.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleCustomer, c.Code, r.codeTaken(&model.Customer{}))
	if err != nil {
		return err
	}
	c.Code = code
	return translate(r.db.WithContext(ctx).Create(c).Error, "customer")
}

func (r *Registry) UpdateCustomer(ctx context.Context, id uint, changes *model.Customer) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "customer")
	}
	c.Name = changes.Name
	c.Contact = changes.Contact
	c.Phone = changes.Phone
	c.Address = changes.Address
	c.TaxNumber = changes.TaxNumber
	c.IsActive = changes.IsActive
	if err := r.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, translate(err, "customer")
	}
	return &c, nil
}

func (r *Registry) GetCustomer(ctx context.Context, id uint) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "customer")
	}
	return &c, nil
}

func (r *Registry) ListCustomers(ctx context.Context, opts ListOptions) ([]model.Customer, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Customer{}).Scopes(database.TenantScope(ctx))
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
	var rows []model.Customer
	err := q.Order("code").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *Registry) DeleteCustomer(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Delete(&model.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "customer not found")
	}
	return nil
}

// --- suppliers ---

func (r *Registry) CreateSupplier(ctx context.Context, s *model.Supplier) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	s.TenantID = tenantID

	code, err := r.resolveCode(ctx, RuleSupplier, s.Code, r.codeTaken(&model.Supplier{}))
	if err != nil {
		return err
	}
	s.Code = code
	return translate(r.db.WithContext(ctx).Create(s).Error, "supplier")
}

func (r *Registry) UpdateSupplier(ctx context.Context, id uint, changes *model.Supplier) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "supplier")
	}
	s.Name = changes.Name
	s.Contact = changes.Contact
	s.Phone = changes.Phone
	s.Address = changes.Address
	s.TaxNumber = changes.TaxNumber
	s.IsActive = changes.IsActive
	if err := r.db.WithContext(ctx).Save(&s).Error; err != nil {
		return nil, translate(err, "supplier")
	}
	return &s, nil
}

func (r *Registry) GetSupplier(ctx context.Context, id uint) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "supplier")
	}
	return &s, nil
}

func (r *Registry) ListSuppliers(ctx context.Context, opts ListOptions) ([]model.Supplier, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Supplier{}).Scopes(database.TenantScope(ctx))
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
	var rows []model.Supplier
	err := q.Order("code").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *Registry) DeleteSupplier(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Scopes(database.TenantScope(ctx)).
		Delete(&model.Supplier{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "supplier not found")
	}
	return nil
}
