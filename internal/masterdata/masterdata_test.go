package masterdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/model"
	"platform-service/pkg/apperr"
)

func TestStockTransitionMatrix(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{model.StockStatusInStock, model.StockStatusOutStock, true},
		{model.StockStatusInStock, model.StockStatusExpired, true},
		{model.StockStatusInStock, model.StockStatusScrapped, true},
		{model.StockStatusInStock, model.StockStatusSold, false},
		{model.StockStatusOutStock, model.StockStatusSold, true},
		{model.StockStatusOutStock, model.StockStatusInStock, false},
		{model.StockStatusSold, model.StockStatusReturned, true},
		{model.StockStatusReturned, model.StockStatusInStock, true},
		{model.StockStatusReturned, model.StockStatusSold, false},
		{model.StockStatusExpired, model.StockStatusScrapped, true},
		{model.StockStatusExpired, model.StockStatusInStock, false},
		{model.StockStatusScrapped, model.StockStatusInStock, false},
	}
	for _, tc := range cases {
		err := CheckStockTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.True(t, apperr.IsIllegalTransition(err), "%s -> %s should be refused", tc.from, tc.to)
		}
	}
}

func TestStockTransitionUnknownStatus(t *testing.T) {
	err := CheckStockTransition(model.StockStatusInStock, "teleported")
	assert.True(t, apperr.IsValidation(err))

	err = CheckStockTransition("limbo", model.StockStatusInStock)
	assert.True(t, apperr.IsValidation(err))
}

func uptr(v uint) *uint { return &v }

func TestCheckHierarchy(t *testing.T) {
	// 1 <- 2 <- 3, 4 standalone.
	parents := map[uint]*uint{
		1: nil,
		2: uptr(1),
		3: uptr(2),
		4: nil,
	}

	assert.NoError(t, CheckHierarchy(4, uptr(3), parents))
	assert.NoError(t, CheckHierarchy(5, nil, parents))

	err := CheckHierarchy(3, uptr(3), parents)
	assert.True(t, apperr.IsValidation(err), "self parent")

	err = CheckHierarchy(1, uptr(3), parents)
	assert.True(t, apperr.IsValidation(err), "cycle through descendants")

	err = CheckHierarchy(4, uptr(99), parents)
	assert.Equal(t, apperr.KindReferentialIntegrity, apperr.KindOf(err))
}

func TestCheckHierarchyDepthBound(t *testing.T) {
	parents := map[uint]*uint{1: nil}
	for id := uint(2); id <= MaxHierarchyDepth+1; id++ {
		parent := id - 1
		parents[id] = &parent
	}

	// Node ids equal their depth; a new child lands one level below its
	// parent.
	err := CheckHierarchy(100, uptr(MaxHierarchyDepth), parents)
	assert.True(t, apperr.IsValidation(err))

	assert.NoError(t, CheckHierarchy(100, uptr(MaxHierarchyDepth-1), parents))
}

func bomLine(parentIdx int, qty, waste float64, required bool) BOMItemInput {
	return BOMItemInput{MaterialID: 10, ParentIdx: parentIdx, Quantity: qty, WasteRate: waste, IsRequired: required}
}

func TestValidateBOMItems(t *testing.T) {
	err := ValidateBOMItems(nil, false)
	assert.True(t, apperr.IsValidation(err), "empty item list")

	items := []BOMItemInput{
		bomLine(-1, 2, 0, true),
		bomLine(0, 4, 5, true),
		bomLine(0, 1, 0, false),
	}
	assert.NoError(t, ValidateBOMItems(items, false))

	bad := []BOMItemInput{bomLine(-1, 0, 0, true)}
	assert.True(t, apperr.IsValidation(ValidateBOMItems(bad, false)), "zero quantity")

	bad = []BOMItemInput{bomLine(-1, 1, 100, true)}
	assert.True(t, apperr.IsValidation(ValidateBOMItems(bad, false)), "waste rate 100 out of range")

	bad = []BOMItemInput{bomLine(-1, 1, -0.5, true)}
	assert.True(t, apperr.IsValidation(ValidateBOMItems(bad, false)), "negative waste rate")

	bad = []BOMItemInput{bomLine(2, 1, 0, true)}
	assert.True(t, apperr.IsValidation(ValidateBOMItems(bad, false)), "parent index out of range")

	bad = []BOMItemInput{bomLine(-1, 1, 0, true), bomLine(1, 1, 0, true)}
	assert.True(t, apperr.IsValidation(ValidateBOMItems(bad, false)), "item as its own parent")
}

func TestValidateBOMItemsPercentageMode(t *testing.T) {
	items := []BOMItemInput{
		bomLine(-1, 60, 0, true),
		bomLine(-1, 40, 0, true),
		bomLine(-1, 15, 0, false), // optional lines excluded from the sum
		bomLine(0, 3, 0, true),    // nested lines excluded from the sum
	}
	assert.NoError(t, ValidateBOMItems(items, true))
	assert.NoError(t, ValidateBOMItems(items, false))

	short := []BOMItemInput{
		bomLine(-1, 60, 0, true),
		bomLine(-1, 30, 0, true),
	}
	assert.NoError(t, ValidateBOMItems(short, false))
	err := ValidateBOMItems(short, true)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestItemLevel(t *testing.T) {
	items := []BOMItemInput{
		bomLine(-1, 1, 0, true),
		bomLine(0, 1, 0, true),
		bomLine(1, 1, 0, true),
		bomLine(-1, 1, 0, true),
	}
	assert.Equal(t, 1, itemLevel(items, 0))
	assert.Equal(t, 2, itemLevel(items, 1))
	assert.Equal(t, 3, itemLevel(items, 2))
	assert.Equal(t, 1, itemLevel(items, 3))
}

func TestListOptionsNormalize(t *testing.T) {
	offset, limit := ListOptions{}.normalize(20)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 20, limit)

	offset, limit = ListOptions{Page: 3, PageSize: 50}.normalize(20)
	assert.Equal(t, 100, offset)
	assert.Equal(t, 50, limit)
}

func TestNewRegistryPageSize(t *testing.T) {
	assert.Equal(t, 50, NewRegistry(nil, nil, 50).pageSize)
	assert.Equal(t, defaultPageSize, NewRegistry(nil, nil, 0).pageSize, "unset size falls back")
	assert.Equal(t, defaultPageSize, NewRegistry(nil, nil, -1).pageSize)
}
