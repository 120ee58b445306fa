package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/pkg/database"
)

func tenantTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Tenant{}))

	require.NoError(t, db.Create(&model.Tenant{Name: "Acme Manufacturing", Domain: "acme", Status: model.TenantStatusActive}).Error)
	require.NoError(t, db.Create(&model.Tenant{Name: "Acme Legacy", Domain: "acme-old", Status: model.TenantStatusSuspended}).Error)
	require.NoError(t, db.Create(&model.Tenant{Name: "Acme Trading", Domain: "acme-trading", Status: model.TenantStatusActive}).Error)
	require.NoError(t, db.Create(&model.Tenant{Name: "Umbrella", Domain: "umbrella", Status: model.TenantStatusActive}).Error)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
}

func getRequest(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSearchTenantsByKeyword(t *testing.T) {
	tenantTestDB(t)

	c, rec := getRequest(t, "/tenants/search?keyword=acme")
	require.NoError(t, SearchTenants(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	results := body["tenants"].([]any)
	require.Len(t, results, 2, "suspended tenants stay hidden")
	first := results[0].(map[string]any)
	assert.Equal(t, "Acme Manufacturing", first["name"])
	assert.Equal(t, "acme", first["domain"])
	assert.Equal(t, "Acme Trading", results[1].(map[string]any)["name"])
}

func TestSearchTenantsCaseInsensitive(t *testing.T) {
	tenantTestDB(t)

	c, rec := getRequest(t, "/tenants/search?keyword=ACME")
	require.NoError(t, SearchTenants(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["tenants"].([]any), 2)
}

func TestSearchTenantsPaging(t *testing.T) {
	tenantTestDB(t)

	c, rec := getRequest(t, "/tenants/search?keyword=acme&page=2&page_size=1")
	require.NoError(t, SearchTenants(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Two active tenants match; page 2 of size 1 holds the second by
	// name order.
	results := decodeMap(t, rec)["tenants"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "Acme Trading", results[0].(map[string]any)["name"])
}

func TestSearchTenantsShortKeyword(t *testing.T) {
	tenantTestDB(t)

	c, rec := getRequest(t, "/tenants/search?keyword=a")
	require.NoError(t, SearchTenants(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckDomain(t *testing.T) {
	tenantTestDB(t)

	c, rec := getRequest(t, "/tenants/check-domain/acme")
	c.SetParamNames("domain")
	c.SetParamValues("acme")
	require.NoError(t, CheckDomain(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, "acme", body["domain"])

	c, rec = getRequest(t, "/tenants/check-domain/fresh")
	c.SetParamNames("domain")
	c.SetParamValues("fresh")
	require.NoError(t, CheckDomain(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeMap(t, rec)["exists"])
}
