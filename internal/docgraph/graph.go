// Package docgraph records directed relations between business documents and
// drives their state transitions. Edges reference documents by (type, id)
// pairs so the kernel has no foreign-key coupling to domain tables.
package docgraph

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
)

// DefaultTraceDepth bounds trace traversal when the caller passes no limit.
const DefaultTraceDepth = 10

// Node identifies one business document.
type Node struct {
	Type string `json:"type"`
	ID   uint   `json:"id"`
}

// Graph stores and queries document relation edges.
type Graph struct {
	db *gorm.DB
}

// NewGraph creates a document graph over the given database.
func NewGraph(db *gorm.DB) *Graph {
	return &Graph{db: db}
}

// Link records that source produced or references target. The upsert is
// idempotent on (tenant, source, target): concurrent identical links
// collapse to one row, and kind/mode follow the latest call.
func (g *Graph) Link(ctx context.Context, source, target Node, kind, mode string, demandID *uint, createdBy uint) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	if source.Type == "" || target.Type == "" || source.ID == 0 || target.ID == 0 {
		return apperr.New(apperr.KindValidation, "source and target must carry type and id")
	}
	switch mode {
	case model.RelationModePush, model.RelationModePull, model.RelationModeManual:
	default:
		return apperr.Newf(apperr.KindValidation, "unknown relation mode %q", mode)
	}

	relation := model.DocumentRelation{
		TenantID:     tenantID,
		SourceType:   source.Type,
		SourceID:     source.ID,
		TargetType:   target.Type,
		TargetID:     target.ID,
		RelationKind: kind,
		RelationMode: mode,
		DemandID:     demandID,
		CreatedBy:    createdBy,
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "source_type"}, {Name: "source_id"},
			{Name: "target_type"}, {Name: "target_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"relation_kind", "relation_mode", "updated_at"}),
	}).Create(&relation).Error
}

// Upstream returns every edge pointing at node.
func (g *Graph) Upstream(ctx context.Context, node Node) ([]model.DocumentRelation, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	var relations []model.DocumentRelation
	err = g.db.WithContext(ctx).
		Where("tenant_id = ? AND target_type = ? AND target_id = ?", tenantID, node.Type, node.ID).
		Order("id").
		Find(&relations).Error
	return relations, err
}

// Downstream returns every edge leaving node.
func (g *Graph) Downstream(ctx context.Context, node Node) ([]model.DocumentRelation, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	var relations []model.DocumentRelation
	err = g.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, node.Type, node.ID).
		Order("id").
		Find(&relations).Error
	return relations, err
}

// Trace returns the nodes reachable from node in one direction, breadth
// first, bounded by maxDepth levels. The graph may carry semantic cycles;
// visited tracking keeps the traversal finite either way.
func (g *Graph) Trace(ctx context.Context, node Node, downstream bool, maxDepth int) ([]Node, error) {
	if _, err := tenantctx.Require(ctx); err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		maxDepth = DefaultTraceDepth
	}

	visited := map[Node]bool{node: true}
	frontier := []Node{node}
	var result []Node

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []Node
		for _, current := range frontier {
			var edges []model.DocumentRelation
			var err error
			if downstream {
				edges, err = g.Downstream(ctx, current)
			} else {
				edges, err = g.Upstream(ctx, current)
			}
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				neighbor := Node{Type: edge.SourceType, ID: edge.SourceID}
				if downstream {
					neighbor = Node{Type: edge.TargetType, ID: edge.TargetID}
				}
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				result = append(result, neighbor)
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return result, nil
}
