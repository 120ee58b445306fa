package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
)

func adminTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	return db
}

func adminGateContext(t *testing.T, tenantID, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(tenantctx.Set(req.Context(), tenantID))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(KeyUserID, userID)
	return c, rec
}

func TestRequireTenantAdmin(t *testing.T) {
	db := adminTestDB(t)
	require.NoError(t, db.Create(&model.User{TenantID: 1, Username: "boss", Password: "x", IsAdmin: true}).Error)
	require.NoError(t, db.Create(&model.User{TenantID: 1, Username: "clerk", Password: "x"}).Error)
	var boss, clerk model.User
	require.NoError(t, db.Where("username = ?", "boss").First(&boss).Error)
	require.NoError(t, db.Where("username = ?", "clerk").First(&clerk).Error)

	InitAuth(nil, db)
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	handler := RequireTenantAdmin(next)

	t.Run("admin passes", func(t *testing.T) {
		c, rec := adminGateContext(t, 1, boss.ID)
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		c, rec := adminGateContext(t, 1, clerk.ID)
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown user rejected", func(t *testing.T) {
		c, rec := adminGateContext(t, 1, 999)
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong tenant rejected", func(t *testing.T) {
		c, rec := adminGateContext(t, 2, boss.ID)
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing tenant context rejected", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(KeyUserID, boss.ID)
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
