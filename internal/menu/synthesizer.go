// Package menu turns application manifest menu trees into persistent rows
// and merges the rows of all active applications into one navigation forest.
package menu

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"platform-service/internal/appregistry"
	"platform-service/internal/model"
)

// flatNode is one menu row produced by flattening, before persistence.
// ParentIndex points into the flattened slice; -1 marks top level.
type flatNode struct {
	ParentIndex int
	Title       string
	Path        string
	Icon        string
	Permission  string
	SortOrder   int
}

// Flatten walks the manifest tree depth first, producing rows in insertion
// order. A node without an explicit sort order gets its traversal index. A
// node without a title falls back to its path, which the caller has
// validated to exist.
func Flatten(nodes []appregistry.MenuNode) []flatNode {
	var out []flatNode
	var walk func(nodes []appregistry.MenuNode, parentIndex int)
	walk = func(nodes []appregistry.MenuNode, parentIndex int) {
		for _, node := range nodes {
			title := node.Title
			if title == "" {
				title = node.Path
			}
			sortOrder := len(out)
			if node.SortOrder != nil {
				sortOrder = *node.SortOrder
			}
			out = append(out, flatNode{
				ParentIndex: parentIndex,
				Title:       title,
				Path:        node.Path,
				Icon:        node.Icon,
				Permission:  node.Permission,
				SortOrder:   sortOrder,
			})
			walk(node.Children, len(out)-1)
		}
	}
	walk(nodes, -1)
	return out
}

// key identifies a row for idempotent re-synchronization: the path when
// present, else parent key + title.
func (n *flatNode) key(keys []string) string {
	if n.Path != "" {
		return "p:" + n.Path
	}
	parent := ""
	if n.ParentIndex >= 0 {
		parent = keys[n.ParentIndex]
	}
	return fmt.Sprintf("t:%s/%s", parent, n.Title)
}

// Synthesizer persists flattened menus and answers navigation queries.
type Synthesizer struct {
	db    *gorm.DB
	cache *Cache
}

// NewSynthesizer creates a menu synthesizer. cache may be nil.
func NewSynthesizer(db *gorm.DB, cache *Cache) *Synthesizer {
	return &Synthesizer{db: db, cache: cache}
}

// Synthesize reconciles the application's menu rows with the manifest tree.
// Existing rows (matched by key) update in place, new nodes insert, vanished
// nodes soft-delete. Row activity mirrors the application's. When db is
// non-nil the rows join the caller's transaction so a rolled-back
// reconciliation leaves no menu rows behind.
func (s *Synthesizer) Synthesize(ctx context.Context, db *gorm.DB, app *model.Application, nodes []appregistry.MenuNode) error {
	if db == nil {
		db = s.db
	}
	flat := Flatten(nodes)

	keys := make([]string, len(flat))
	for i := range flat {
		keys[i] = flat[i].key(keys)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.Menu
		err := tx.Where("tenant_id = ? AND application_id = ?", app.TenantID, app.ID).
			Find(&existing).Error
		if err != nil {
			return err
		}
		byKey := make(map[string]*model.Menu, len(existing))
		for i := range existing {
			byKey[rowKey(&existing[i], existing)] = &existing[i]
		}

		ids := make([]uint, len(flat))
		seen := make(map[uint]bool, len(flat))
		for i := range flat {
			node := &flat[i]
			var parentID *uint
			if node.ParentIndex >= 0 {
				parentID = &ids[node.ParentIndex]
			}

			if row, ok := byKey[keys[i]]; ok {
				row.ParentID = parentID
				row.Title = node.Title
				row.Path = node.Path
				row.Icon = node.Icon
				row.PermissionCode = node.Permission
				row.SortOrder = node.SortOrder
				row.IsActive = app.IsActive
				if err := tx.Save(row).Error; err != nil {
					return err
				}
				ids[i] = row.ID
				seen[row.ID] = true
				continue
			}

			row := model.Menu{
				TenantID:       app.TenantID,
				ApplicationID:  app.ID,
				ParentID:       parentID,
				Title:          node.Title,
				Path:           node.Path,
				Icon:           node.Icon,
				PermissionCode: node.Permission,
				SortOrder:      node.SortOrder,
				IsActive:       app.IsActive,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			ids[i] = row.ID
			seen[row.ID] = true
		}

		for i := range existing {
			if !seen[existing[i].ID] {
				if err := tx.Delete(&existing[i]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// rowKey reconstructs the synchronization key of a persisted row.
func rowKey(row *model.Menu, all []model.Menu) string {
	if row.Path != "" {
		return "p:" + row.Path
	}
	parent := ""
	if row.ParentID != nil {
		for i := range all {
			if all[i].ID == *row.ParentID {
				parent = rowKey(&all[i], all)
				break
			}
		}
	}
	return fmt.Sprintf("t:%s/%s", parent, row.Title)
}

// SetActive flips every menu row of the application. Rows are kept on
// disable so re-enabling restores navigation without re-synthesis.
func (s *Synthesizer) SetActive(ctx context.Context, app *model.Application, active bool) error {
	return s.db.WithContext(ctx).Model(&model.Menu{}).
		Where("tenant_id = ? AND application_id = ?", app.TenantID, app.ID).
		Update("is_active", active).Error
}

// Invalidate drops every cached navigation tree for the tenant.
func (s *Synthesizer) Invalidate(ctx context.Context, tenantID uint) {
	if s.cache != nil {
		s.cache.InvalidateTenant(ctx, tenantID)
	}
}
