package coderule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and
	// serializes concurrent transactions.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.CodeRule{}, &model.CodeCounter{}))
	return db
}

func seedMaterialRule(t *testing.T, db *gorm.DB, resetCycle string) *model.CodeRule {
	t.Helper()
	rule := &model.CodeRule{
		TenantID: 1,
		Code:     "material",
		Name:     "物料编码",
		Components: `[{"kind":"fixed_text","text":"M-"},` +
			`{"kind":"date","format":"YYYYMM"},` +
			`{"kind":"fixed_text","text":"-"},` +
			`{"kind":"auto_counter","digits":4,"fixed_width":true,"initial_value":1}]`,
		ResetCycle: resetCycle,
		IsActive:   true,
	}
	require.NoError(t, db.Create(rule).Error)
	return rule
}

func tenantCtx(id uint) context.Context {
	return tenantctx.Set(context.Background(), id)
}

func TestGenerateSequence(t *testing.T) {
	db := testDB(t)
	seedMaterialRule(t, db, model.ResetCycleNever)
	engine := NewEngine(db, time.UTC)
	ctx := tenantCtx(1)

	month := time.Now().UTC().Format("200601")
	for i := 1; i <= 3; i++ {
		code, err := engine.Generate(ctx, "material", nil)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("M-%s-%04d", month, i), code)
	}

	var counter model.CodeCounter
	require.NoError(t, db.Where("tenant_id = ? AND cycle_key = ?", 1, model.CycleKeyNever).First(&counter).Error)
	assert.Equal(t, int64(3), counter.Current)
}

func TestGenerateConcurrentClaimsAreDistinct(t *testing.T) {
	db := testDB(t)
	seedMaterialRule(t, db, model.ResetCycleNever)
	engine := NewEngine(db, time.UTC)

	const claims = 20
	codes := make([]string, claims)
	errs := make([]error, claims)
	var wg sync.WaitGroup
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = engine.Generate(tenantCtx(1), "material", nil)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, claims)
	for i := 0; i < claims; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[codes[i]], "code %q issued twice", codes[i])
		seen[codes[i]] = true
	}

	// Every value in [1, claims] was issued exactly once.
	month := time.Now().UTC().Format("200601")
	for i := 1; i <= claims; i++ {
		assert.True(t, seen[fmt.Sprintf("M-%s-%04d", month, i)], "value %d never issued", i)
	}

	var counter model.CodeCounter
	require.NoError(t, db.Where("tenant_id = ?", 1).First(&counter).Error)
	assert.Equal(t, int64(claims), counter.Current)
}

func TestPreviewDoesNotAdvanceCounter(t *testing.T) {
	db := testDB(t)
	seedMaterialRule(t, db, model.ResetCycleNever)
	engine := NewEngine(db, time.UTC)
	ctx := tenantCtx(1)

	first, err := engine.Preview(ctx, "material", nil)
	require.NoError(t, err)
	second, err := engine.Preview(ctx, "material", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated previews are stable")

	var counters int64
	require.NoError(t, db.Model(&model.CodeCounter{}).Count(&counters).Error)
	assert.Zero(t, counters, "preview must not create counter rows")

	issued, err := engine.Generate(ctx, "material", nil)
	require.NoError(t, err)
	assert.Equal(t, first, issued, "generate issues the previewed value")

	after, err := engine.Preview(ctx, "material", nil)
	require.NoError(t, err)
	assert.NotEqual(t, issued, after)
}

func TestGenerateCycleKeyByResetCycle(t *testing.T) {
	db := testDB(t)
	seedMaterialRule(t, db, model.ResetCycleMonthly)
	engine := NewEngine(db, time.UTC)

	_, err := engine.Generate(tenantCtx(1), "material", nil)
	require.NoError(t, err)

	var counter model.CodeCounter
	require.NoError(t, db.Where("tenant_id = ?", 1).First(&counter).Error)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), counter.CycleKey)
}

func TestGenerateUnknownRule(t *testing.T) {
	db := testDB(t)
	engine := NewEngine(db, time.UTC)

	_, err := engine.Generate(tenantCtx(1), "nonexistent", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGenerateWithoutTenant(t *testing.T) {
	db := testDB(t)
	engine := NewEngine(db, time.UTC)

	_, err := engine.Generate(context.Background(), "material", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsNoTenantContext(err))
}
