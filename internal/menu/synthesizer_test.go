package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/appregistry"
	"platform-service/internal/model"
)

func intp(v int) *int { return &v }
func uintp(v uint) *uint { return &v }

func manufacturingMenu() []appregistry.MenuNode {
	return []appregistry.MenuNode{
		{Title: "生产管理", Icon: "factory", Children: []appregistry.MenuNode{
			{Title: "工单管理", Path: "/wo", SortOrder: intp(1), Permission: "work_order:read"},
			{Title: "报工", Path: "/rp", SortOrder: intp(2), Permission: "reporting:write"},
		}},
		{Title: "看板", Path: "/dashboard"},
	}
}

func TestFlattenOrderAndParents(t *testing.T) {
	flat := Flatten(manufacturingMenu())
	require.Len(t, flat, 4)

	assert.Equal(t, "生产管理", flat[0].Title)
	assert.Equal(t, -1, flat[0].ParentIndex)

	assert.Equal(t, "工单管理", flat[1].Title)
	assert.Equal(t, 0, flat[1].ParentIndex)
	assert.Equal(t, 1, flat[1].SortOrder, "explicit sort order wins")

	assert.Equal(t, "报工", flat[2].Title)
	assert.Equal(t, 0, flat[2].ParentIndex)

	assert.Equal(t, "看板", flat[3].Title)
	assert.Equal(t, -1, flat[3].ParentIndex)
	assert.Equal(t, 3, flat[3].SortOrder, "missing sort order falls back to traversal index")
}

func TestFlattenEmpty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
}

func TestFlattenTitleFallback(t *testing.T) {
	flat := Flatten([]appregistry.MenuNode{{Path: "/bare"}})
	require.Len(t, flat, 1)
	assert.Equal(t, "/bare", flat[0].Title)
}

func TestFlatNodeKeys(t *testing.T) {
	flat := Flatten(manufacturingMenu())
	keys := make([]string, len(flat))
	for i := range flat {
		keys[i] = flat[i].key(keys)
	}

	assert.Equal(t, "t:/生产管理", keys[0], "branches key by parent chain and title")
	assert.Equal(t, "p:/wo", keys[1], "leaves key by path")
	assert.Equal(t, "p:/dashboard", keys[3])

	// Keys are stable across re-synthesis of an identical manifest.
	again := Flatten(manufacturingMenu())
	for i := range again {
		assert.Equal(t, keys[i], again[i].key(keys))
	}
}

func menuRows() []model.Menu {
	rows := []model.Menu{
		{TenantID: 1, ApplicationID: 1, Title: "生产管理", SortOrder: 0, IsActive: true},
		{TenantID: 1, ApplicationID: 1, Title: "工单管理", Path: "/wo", PermissionCode: "work_order:read", SortOrder: 1, IsActive: true},
		{TenantID: 1, ApplicationID: 1, Title: "报工", Path: "/rp", PermissionCode: "reporting:write", SortOrder: 2, IsActive: true},
		{TenantID: 1, ApplicationID: 1, Title: "看板", Path: "/dashboard", SortOrder: 3, IsActive: true},
	}
	for i := range rows {
		rows[i].ID = uint(i + 1)
	}
	rows[1].ParentID = uintp(1)
	rows[2].ParentID = uintp(1)
	return rows
}

func TestBuildTreeFullPermissions(t *testing.T) {
	forest := BuildTree(menuRows(), func(string) bool { return true })
	require.Len(t, forest, 2)

	assert.Equal(t, "生产管理", forest[0].Title)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, "工单管理", forest[0].Children[0].Title)
	assert.Equal(t, "报工", forest[0].Children[1].Title)
	assert.Equal(t, "看板", forest[1].Title)
}

func TestBuildTreePermissionFilter(t *testing.T) {
	allowed := func(code string) bool { return code == "" || code == "work_order:read" }
	forest := BuildTree(menuRows(), allowed)
	require.Len(t, forest, 2)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "工单管理", forest[0].Children[0].Title)
}

func TestBuildTreeSuppressesEmptyParents(t *testing.T) {
	// Deny everything carrying a permission: the branch has no intrinsic
	// path, so it vanishes; the dashboard leaf stays.
	forest := BuildTree(menuRows(), func(code string) bool { return code == "" })
	require.Len(t, forest, 1)
	assert.Equal(t, "看板", forest[0].Title)
}

func TestBuildTreeKeepsEmptyParentWithPath(t *testing.T) {
	rows := menuRows()
	rows[0].Path = "/production"
	forest := BuildTree(rows, func(code string) bool { return code == "" })
	require.Len(t, forest, 2)
	assert.Equal(t, "/production", forest[0].Path)
	assert.Empty(t, forest[0].Children)
}

func TestBuildTreeSiblingOrdering(t *testing.T) {
	rows := []model.Menu{
		{Title: "b", Path: "/b", SortOrder: 2, IsActive: true},
		{Title: "a", Path: "/a", SortOrder: 1, IsActive: true},
		{Title: "c", Path: "/c", SortOrder: 2, IsActive: true},
	}
	for i := range rows {
		rows[i].ID = uint(i + 1)
	}
	forest := BuildTree(rows, func(string) bool { return true })
	require.Len(t, forest, 3)
	assert.Equal(t, "a", forest[0].Title)
	assert.Equal(t, "b", forest[1].Title, "equal sort orders keep insertion order")
	assert.Equal(t, "c", forest[2].Title)
}

func TestCacheKeySuffix(t *testing.T) {
	a := cacheKeySuffix(false, map[string]bool{"x:read": true, "y:write": true})
	b := cacheKeySuffix(false, map[string]bool{"y:write": true, "x:read": true})
	assert.Equal(t, a, b, "suffix is order independent")

	c := cacheKeySuffix(false, map[string]bool{"x:read": true})
	assert.NotEqual(t, a, c)

	assert.Equal(t, "admin", cacheKeySuffix(true, nil))
}
