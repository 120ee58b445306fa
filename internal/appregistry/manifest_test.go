package appregistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manufacturingManifest = `{
	"code": "kuaizhizao",
	"name": "制造管理",
	"version": "1.2.0",
	"route_path": "/kuaizhizao",
	"entry_point": "index",
	"sort_order": 2,
	"menu_config": [
		{"title": "工单管理", "path": "/wo", "sort_order": 1},
		{"title": "报工", "path": "/rp", "sort_order": 2}
	],
	"permissions": [
		{"code": "work_order:read", "description": "view work orders"},
		{"code": "work_order:write"}
	],
	"unknown_field": "ignored"
}`

func TestParseManifest(t *testing.T) {
	manifest, err := ParseManifest([]byte(manufacturingManifest))
	require.NoError(t, err)

	assert.Equal(t, "kuaizhizao", manifest.Code)
	assert.Equal(t, "制造管理", manifest.Name)
	assert.Equal(t, "1.2.0", manifest.Version)
	require.Len(t, manifest.MenuConfig, 2)
	assert.Equal(t, "工单管理", manifest.MenuConfig[0].Title)
	assert.Equal(t, "/wo", manifest.MenuConfig[0].Path)
	require.Len(t, manifest.Permissions, 2)
}

func TestParseManifestMissingRequiredField(t *testing.T) {
	cases := map[string]string{
		"missing code":    `{"name": "App", "version": "1.0"}`,
		"missing name":    `{"code": "app", "version": "1.0"}`,
		"missing version": `{"code": "app", "name": "App"}`,
		"invalid json":    `{`,
	}
	for name, raw := range cases {
		_, err := ParseManifest([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestParseManifestEmptyMenu(t *testing.T) {
	manifest, err := ParseManifest([]byte(`{"code": "bare", "name": "Bare", "version": "0.1"}`))
	require.NoError(t, err)
	assert.Empty(t, manifest.MenuConfig)
}

func TestValidateRejectsBlankMenuNode(t *testing.T) {
	manifest := &Manifest{
		Code: "app", Name: "App", Version: "1.0",
		MenuConfig: []MenuNode{{Title: "ok", Children: []MenuNode{{}}}},
	}
	assert.Error(t, manifest.Validate())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	appDir := filepath.Join(dir, "kuaizhizao")
	require.NoError(t, os.Mkdir(appDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, ManifestFileName), []byte(manufacturingManifest), 0o644))

	// Loose manifest file directly under the search path.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crm.json"),
		[]byte(`{"code": "kuaicrm", "name": "CRM", "version": "0.9.0", "sort_order": 1}`), 0o644))

	// Invalid manifest is skipped, not fatal.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name": "no code"}`), 0o644))

	// Directory without a manifest is not an application.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o755))

	discovered := Discover([]string{dir, filepath.Join(dir, "missing")})
	require.Len(t, discovered, 2)

	codes := map[string]bool{}
	for _, m := range discovered {
		codes[m.Code] = true
	}
	assert.True(t, codes["kuaizhizao"])
	assert.True(t, codes["kuaicrm"])
}

func TestDiscoverDuplicateCodeKeepsFirst(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(first, "app.json"),
		[]byte(`{"code": "dup", "name": "First", "version": "1.0"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "app.json"),
		[]byte(`{"code": "dup", "name": "Second", "version": "2.0"}`), 0o644))

	discovered := Discover([]string{first, second})
	require.Len(t, discovered, 1)
	assert.Equal(t, "First", discovered[0].Name)
}

func TestRouteTable(t *testing.T) {
	table := NewRouteTable()

	_, ok := table.Lookup("kuaizhizao")
	assert.False(t, ok)

	table.Register("kuaizhizao", func(g *echo.Group) {})
	_, ok = table.Lookup("kuaizhizao")
	assert.True(t, ok)
	assert.Contains(t, table.Codes(), "kuaizhizao")
}
