package menu

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// NavNode is one node of the merged navigation forest.
type NavNode struct {
	Title     string     `json:"title"`
	Path      string     `json:"path,omitempty"`
	Icon      string     `json:"icon,omitempty"`
	SortOrder int        `json:"sort_order"`
	Children  []*NavNode `json:"children,omitempty"`
}

// Navigation returns the merged forest for the current tenant and user:
// only active applications contribute, only permitted rows appear, and
// parents emptied by permission filtering are suppressed unless they carry
// an intrinsic path.
func (s *Synthesizer) Navigation(ctx context.Context, userID uint) ([]*NavNode, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	granted, isAdmin, err := s.grantedPermissions(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	allowed := func(code string) bool {
		if code == "" || isAdmin {
			return true
		}
		return granted[code]
	}

	if s.cache != nil {
		if forest, ok := s.cache.Get(ctx, tenantID, cacheKeySuffix(isAdmin, granted)); ok {
			prometheus.MenuCacheHitCounter.Inc()
			return forest, nil
		}
		prometheus.MenuCacheMissCounter.Inc()
	}

	var apps []model.Application
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND is_installed = ? AND is_active = ?", tenantID, true, true).
		Order("sort_order, id").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}

	var forest []*NavNode
	for i := range apps {
		var rows []model.Menu
		err = s.db.WithContext(ctx).
			Where("tenant_id = ? AND application_id = ? AND is_active = ?", tenantID, apps[i].ID, true).
			Order("sort_order, id").
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		forest = append(forest, BuildTree(rows, allowed)...)
	}

	if s.cache != nil {
		s.cache.Set(ctx, tenantID, cacheKeySuffix(isAdmin, granted), forest)
	}
	return forest, nil
}

// grantedPermissions collects the permission codes of the user's roles.
func (s *Synthesizer) grantedPermissions(ctx context.Context, tenantID, userID uint) (map[string]bool, bool, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// A valid token can outlive its user row.
		return nil, false, apperr.New(apperr.KindAuthFailure, "user not found")
	}
	if err != nil {
		return nil, false, err
	}
	if user.IsAdmin {
		return nil, true, nil
	}

	var roleIDs []uint
	err = s.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, false, err
	}
	granted := make(map[string]bool)
	if len(roleIDs) == 0 {
		return granted, false, nil
	}

	var codes []string
	err = s.db.WithContext(ctx).Model(&model.RolePermission{}).
		Where("tenant_id = ? AND role_id IN ?", tenantID, roleIDs).
		Pluck("permission_code", &codes).Error
	if err != nil {
		return nil, false, err
	}
	for _, code := range codes {
		granted[code] = true
	}
	return granted, false, nil
}

// BuildTree assembles one application's rows into a tree, applying the
// permission filter and suppressing parents that end up with no children
// and no intrinsic path. Siblings order by sort order then insertion.
func BuildTree(rows []model.Menu, allowed func(code string) bool) []*NavNode {
	type entry struct {
		row  *model.Menu
		node *NavNode
	}
	entries := make(map[uint]*entry, len(rows))
	for i := range rows {
		row := &rows[i]
		if row.Title == "" {
			// Manifest validation should prevent this; fall back loudly.
			logger.GetLogger().Warn("Menu row without title, using path as fallback",
				zap.Uint("menu_id", row.ID), zap.String("path", row.Path))
			row.Title = row.Path
		}
		entries[row.ID] = &entry{row: row, node: &NavNode{
			Title:     row.Title,
			Path:      row.Path,
			Icon:      row.Icon,
			SortOrder: row.SortOrder,
		}}
	}

	var attach func(parentID *uint) []*NavNode
	attach = func(parentID *uint) []*NavNode {
		var children []*NavNode
		for i := range rows {
			row := &rows[i]
			if !sameParent(row.ParentID, parentID) {
				continue
			}
			if !allowed(row.PermissionCode) {
				continue
			}
			node := entries[row.ID].node
			node.Children = attach(&row.ID)
			if len(node.Children) == 0 && node.Path == "" {
				continue // branch emptied by filtering and not navigable itself
			}
			children = append(children, node)
		}
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].SortOrder < children[j].SortOrder
		})
		return children
	}
	return attach(nil)
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
