package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"platform-service/internal/appregistry"
	"platform-service/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Application{}, &model.Menu{}, &model.User{}, &model.UserRole{}, &model.RolePermission{}))
	return db
}

func seedApp(t *testing.T, db *gorm.DB) *model.Application {
	t.Helper()
	app := &model.Application{
		TenantID:    1,
		Code:        "kuaizhizao",
		Name:        "快智造",
		Version:     "1.0.0",
		IsInstalled: true,
		IsActive:    true,
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

func activeRows(t *testing.T, db *gorm.DB, app *model.Application) []model.Menu {
	t.Helper()
	var rows []model.Menu
	require.NoError(t, db.Where("tenant_id = ? AND application_id = ?", app.TenantID, app.ID).
		Order("sort_order, id").Find(&rows).Error)
	return rows
}

func TestSynthesizePersistsTree(t *testing.T) {
	db := testDB(t)
	app := seedApp(t, db)
	s := NewSynthesizer(db, nil)

	require.NoError(t, s.Synthesize(context.Background(), nil, app, manufacturingMenu()))

	rows := activeRows(t, db, app)
	require.Len(t, rows, 4)

	byTitle := make(map[string]*model.Menu, len(rows))
	for i := range rows {
		byTitle[rows[i].Title] = &rows[i]
	}
	require.Contains(t, byTitle, "生产管理")
	assert.Nil(t, byTitle["生产管理"].ParentID)
	require.Contains(t, byTitle, "工单管理")
	require.NotNil(t, byTitle["工单管理"].ParentID)
	assert.Equal(t, byTitle["生产管理"].ID, *byTitle["工单管理"].ParentID)
	assert.Equal(t, "work_order:read", byTitle["工单管理"].PermissionCode)
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	db := testDB(t)
	app := seedApp(t, db)
	s := NewSynthesizer(db, nil)

	require.NoError(t, s.Synthesize(context.Background(), nil, app, manufacturingMenu()))
	before := activeRows(t, db, app)

	require.NoError(t, s.Synthesize(context.Background(), nil, app, manufacturingMenu()))
	after := activeRows(t, db, app)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID, "re-synchronization keeps row identity")
	}
}

func TestSynthesizeUpdatesAndRetires(t *testing.T) {
	db := testDB(t)
	app := seedApp(t, db)
	s := NewSynthesizer(db, nil)

	require.NoError(t, s.Synthesize(context.Background(), nil, app, manufacturingMenu()))
	var woBefore model.Menu
	require.NoError(t, db.Where("path = ?", "/wo").First(&woBefore).Error)

	// The dashboard leaf vanishes from the manifest; the work order leaf
	// changes its icon.
	changed := []appregistry.MenuNode{
		{Title: "生产管理", Icon: "factory", Children: []appregistry.MenuNode{
			{Title: "工单管理", Path: "/wo", Icon: "clipboard", SortOrder: intp(1), Permission: "work_order:read"},
			{Title: "报工", Path: "/rp", SortOrder: intp(2), Permission: "reporting:write"},
		}},
	}
	require.NoError(t, s.Synthesize(context.Background(), nil, app, changed))

	rows := activeRows(t, db, app)
	require.Len(t, rows, 3)
	for i := range rows {
		assert.NotEqual(t, "/dashboard", rows[i].Path)
	}

	var woAfter model.Menu
	require.NoError(t, db.Where("path = ?", "/wo").First(&woAfter).Error)
	assert.Equal(t, woBefore.ID, woAfter.ID)
	assert.Equal(t, "clipboard", woAfter.Icon)

	var total int64
	require.NoError(t, db.Unscoped().Model(&model.Menu{}).Count(&total).Error)
	assert.Equal(t, int64(4), total, "retired rows soft-delete")
}

func TestSynthesizeJoinsCallerTransaction(t *testing.T) {
	db := testDB(t)
	app := seedApp(t, db)
	s := NewSynthesizer(db, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := s.Synthesize(context.Background(), tx, app, manufacturingMenu()); err != nil {
			return err
		}
		return errors.New("reconciliation failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Menu{}).Count(&count).Error)
	assert.Zero(t, count, "rolled back reconciliation leaves no menu rows")
}
