package appregistry

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/logger"
)

// MenuSyncer is the menu synthesizer surface the registry drives. The menu
// package implements it.
type MenuSyncer interface {
	// Synthesize flattens the manifest menu tree into rows for the
	// application, idempotently. A non-nil tx keeps the rows inside the
	// caller's transaction.
	Synthesize(ctx context.Context, tx *gorm.DB, app *model.Application, nodes []MenuNode) error
	// SetActive flips every menu row of the application.
	SetActive(ctx context.Context, app *model.Application, active bool) error
	// Invalidate drops cached navigation trees for the tenant.
	Invalidate(ctx context.Context, tenantID uint)
}

// Registry reconciles discovered manifests with per-tenant application rows.
type Registry struct {
	db          *gorm.DB
	routes      *RouteTable
	menus       MenuSyncer
	searchPaths []string
	builtin     []Manifest
}

// NewRegistry creates an application registry.
func NewRegistry(db *gorm.DB, routes *RouteTable, menus MenuSyncer, searchPaths []string) *Registry {
	return &Registry{db: db, routes: routes, menus: menus, searchPaths: searchPaths}
}

// Routes exposes the route table for middleware and startup mounting.
func (r *Registry) Routes() *RouteTable {
	return r.routes
}

// AddBuiltin registers manifests compiled into the binary. They take part
// in every reconciliation as if discovered on disk.
func (r *Registry) AddBuiltin(manifests ...Manifest) {
	r.builtin = append(r.builtin, manifests...)
}

// discover merges compiled-in manifests with on-disk discovery. A disk
// manifest with a builtin's code wins, so deployments can override bundled
// applications.
func (r *Registry) discover() []Manifest {
	fromDisk := Discover(r.searchPaths)
	onDisk := make(map[string]bool, len(fromDisk))
	for _, m := range fromDisk {
		onDisk[m.Code] = true
	}
	merged := make([]Manifest, 0, len(r.builtin)+len(fromDisk))
	for _, m := range r.builtin {
		if !onDisk[m.Code] {
			merged = append(merged, m)
		}
	}
	return append(merged, fromDisk...)
}

// List returns the application rows for the current tenant ordered by sort
// order.
func (r *Registry) List(ctx context.Context) ([]model.Application, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	var apps []model.Application
	err = r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("sort_order, id").
		Find(&apps).Error
	return apps, err
}

// IsActive reports whether an installed application is active for the
// current tenant.
func (r *Registry) IsActive(ctx context.Context, code string) (bool, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return false, err
	}
	var app model.Application
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return app.IsInstalled && app.IsActive, nil
}

// ReloadTenant runs discovery and reconciles the current tenant. Atomicity
// is per application: one failing application is recorded and skipped, the
// rest proceed.
func (r *Registry) ReloadTenant(ctx context.Context) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	return r.reconcile(ctx, tenantID, r.discover())
}

// ReloadAll runs discovery once and reconciles every usable tenant.
// Used at startup and by background reconciliation.
func (r *Registry) ReloadAll(ctx context.Context) error {
	discovered := r.discover()

	var tenants []model.Tenant
	if err := r.db.WithContext(ctx).Find(&tenants).Error; err != nil {
		return err
	}
	for _, tenant := range tenants {
		err := tenantctx.With(ctx, tenant.ID, func(ctx context.Context) error {
			return r.reconcile(ctx, tenant.ID, discovered)
		})
		if err != nil {
			logger.GetLogger().Error("Tenant reconciliation failed",
				zap.Uint("tenant_id", tenant.ID), zap.Error(err))
		}
	}
	return nil
}

func (r *Registry) reconcile(ctx context.Context, tenantID uint, discovered []Manifest) error {
	log := logger.FromContext(ctx)

	onDisk := make(map[string]bool, len(discovered))
	for i := range discovered {
		manifest := &discovered[i]
		onDisk[manifest.Code] = true
		if err := r.reconcileOne(ctx, tenantID, manifest); err != nil {
			log.Error("Application reconciliation failed",
				zap.String("code", manifest.Code), zap.Error(err))
			r.recordError(ctx, tenantID, manifest.Code, err)
		}
	}

	// Applications no longer on disk keep their rows with
	// is_installed=false; prior is_active survives for rediscovery.
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("tenant_id = ? AND is_installed = ?", tenantID, true).
		Where("code NOT IN ?", codesOf(discovered)).
		Update("is_installed", false).Error
	if err != nil {
		return err
	}

	if r.menus != nil {
		r.menus.Invalidate(ctx, tenantID)
	}
	return nil
}

func (r *Registry) reconcileOne(ctx context.Context, tenantID uint, manifest *Manifest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app model.Application
		err := tx.Where("tenant_id = ? AND code = ?", tenantID, manifest.Code).First(&app).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			app = model.Application{
				TenantID:    tenantID,
				Code:        manifest.Code,
				Name:        manifest.Name,
				Version:     manifest.Version,
				Description: manifest.Description,
				Icon:        manifest.Icon,
				RoutePath:   manifest.RoutePath,
				EntryPoint:  manifest.EntryPoint,
				SortOrder:   manifest.SortOrder,
				Manifest:    manifest.Raw(),
				IsInstalled: true,
				IsActive:    false, // platform default: installed but inactive
			}
			if _, mounted := r.routes.Lookup(manifest.Code); !mounted {
				app.PendingMount = true
			}
			if err := tx.Create(&app).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			changed := app.Version != manifest.Version || !app.IsInstalled
			app.Name = manifest.Name
			app.Version = manifest.Version
			app.Description = manifest.Description
			app.Icon = manifest.Icon
			app.RoutePath = manifest.RoutePath
			app.EntryPoint = manifest.EntryPoint
			app.SortOrder = manifest.SortOrder
			app.Manifest = manifest.Raw()
			app.IsInstalled = true
			app.LastError = ""
			if err := tx.Save(&app).Error; err != nil {
				return err
			}
			if !changed {
				return r.syncPermissions(tx, tenantID, manifest)
			}
		}

		if err := r.syncPermissions(tx, tenantID, manifest); err != nil {
			return err
		}
		if r.menus != nil {
			return r.menus.Synthesize(ctx, tx, &app, manifest.MenuConfig)
		}
		return nil
	})
}

// syncPermissions upserts the permissions the manifest declares.
func (r *Registry) syncPermissions(tx *gorm.DB, tenantID uint, manifest *Manifest) error {
	for _, decl := range manifest.Permissions {
		if decl.Code == "" {
			continue
		}
		permission := model.Permission{
			TenantID:        tenantID,
			Code:            decl.Code,
			ApplicationCode: manifest.Code,
			Description:     decl.Description,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "application_code", "updated_at"}),
		}).Create(&permission).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) recordError(ctx context.Context, tenantID uint, code string, cause error) {
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Update("last_error", cause.Error()).Error
	if err != nil {
		logger.FromContext(ctx).Error("Failed to record application error",
			zap.String("code", code), zap.Error(err))
	}
}

// Enable activates an installed application for the current tenant,
// ensures its menu rows are present and active, and checks route mounting.
func (r *Registry) Enable(ctx context.Context, code string) error {
	return r.setActive(ctx, code, true)
}

// Disable deactivates an application. Menu rows are kept but marked
// inactive so they vanish from navigation.
func (r *Registry) Disable(ctx context.Context, code string) error {
	return r.setActive(ctx, code, false)
}

func (r *Registry) setActive(ctx context.Context, code string, active bool) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}

	var app model.Application
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Newf(apperr.KindNotFound, "application %q not installed", code)
	}
	if err != nil {
		return err
	}
	if active && !app.IsInstalled {
		return apperr.Newf(apperr.KindValidation, "application %q is uninstalled", code)
	}

	updates := map[string]interface{}{"is_active": active}
	if active {
		if _, mounted := r.routes.Lookup(code); !mounted {
			// Routes arrive on next restart; record the intent.
			updates["pending_mount"] = true
		}
	}
	if err := r.db.WithContext(ctx).Model(&app).Updates(updates).Error; err != nil {
		return err
	}
	app.IsActive = active

	if r.menus != nil {
		if err := r.menus.SetActive(ctx, &app, active); err != nil {
			return err
		}
		r.menus.Invalidate(ctx, tenantID)
	}
	return nil
}

func codesOf(manifests []Manifest) []string {
	codes := make([]string, 0, len(manifests))
	for _, m := range manifests {
		codes = append(codes, m.Code)
	}
	if len(codes) == 0 {
		codes = append(codes, "") // keep NOT IN well-formed when nothing is on disk
	}
	return codes
}
