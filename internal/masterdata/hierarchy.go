package masterdata

import (
	"math"

	"platform-service/pkg/apperr"
)

// MaxHierarchyDepth bounds classification trees (material categories, BOM
// nesting). Deeper chains are rejected rather than silently truncated.
const MaxHierarchyDepth = 10

// CheckHierarchy validates assigning parentID as the parent of id within
// the id -> parent relation given by parents. It rejects self-parenting,
// cycles, and chains deeper than MaxHierarchyDepth.
func CheckHierarchy(id uint, parentID *uint, parents map[uint]*uint) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return apperr.New(apperr.KindValidation, "record cannot be its own parent")
	}

	depth := 1
	current := parentID
	for current != nil {
		if *current == id {
			return apperr.New(apperr.KindValidation, "parent assignment would create a cycle")
		}
		depth++
		if depth > MaxHierarchyDepth {
			return apperr.Newf(apperr.KindValidation, "hierarchy exceeds maximum depth of %d", MaxHierarchyDepth)
		}
		next, ok := parents[*current]
		if !ok {
			return apperr.New(apperr.KindReferentialIntegrity, "parent record not found")
		}
		current = next
	}
	return nil
}

// percentageTolerance absorbs float accumulation when quantities are
// interpreted as percentages.
const percentageTolerance = 1e-6

// ValidateBOMItems checks component line invariants: positive quantities,
// waste rates in [0, 100), levels consistent with parent lines, and, when
// percentageMode is set, required top level quantities summing to 100.
// Lines reference each other by slice index through parentIdx (-1 for top
// level).
func ValidateBOMItems(items []BOMItemInput, percentageMode bool) error {
	if len(items) == 0 {
		return apperr.New(apperr.KindValidation, "bill of materials requires at least one item")
	}

	var topSum float64
	for i, item := range items {
		if item.Quantity <= 0 {
			return apperr.Newf(apperr.KindValidation, "item %d: quantity must be positive", i+1)
		}
		if item.WasteRate < 0 || item.WasteRate >= 100 {
			return apperr.Newf(apperr.KindValidation, "item %d: waste rate must be in [0, 100)", i+1)
		}
		if item.ParentIdx >= len(items) || item.ParentIdx < -1 {
			return apperr.Newf(apperr.KindValidation, "item %d: invalid parent reference", i+1)
		}
		if item.ParentIdx == i {
			return apperr.Newf(apperr.KindValidation, "item %d: item cannot be its own parent", i+1)
		}
		if item.ParentIdx >= 0 && item.ParentIdx > i {
			return apperr.Newf(apperr.KindValidation, "item %d: parent must precede the item", i+1)
		}
		if item.ParentIdx == -1 && item.IsRequired {
			topSum += item.Quantity
		}
	}

	if percentageMode && math.Abs(topSum-100) > percentageTolerance {
		return apperr.Newf(apperr.KindValidation,
			"percentage mode requires required top level quantities to sum to 100, got %g", topSum)
	}
	return nil
}

// itemLevel derives the nesting depth of item i, top level being 1.
func itemLevel(items []BOMItemInput, i int) int {
	level := 1
	for items[i].ParentIdx >= 0 {
		level++
		i = items[i].ParentIdx
	}
	return level
}
