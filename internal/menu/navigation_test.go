package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
)

func TestNavigationForVanishedUser(t *testing.T) {
	db := testDB(t)
	s := NewSynthesizer(db, nil)

	// A token can outlive its user row; the lookup must fail as an auth
	// error, not an internal one.
	_, err := s.Navigation(tenantctx.Set(context.Background(), 1), 99)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthFailure(err))
}

func TestNavigationMergesActiveApplications(t *testing.T) {
	db := testDB(t)
	app := seedApp(t, db)
	require.NoError(t, db.Create(&model.User{TenantID: 1, Username: "operator", Password: "x", IsAdmin: true}).Error)
	var user model.User
	require.NoError(t, db.Where("username = ?", "operator").First(&user).Error)

	s := NewSynthesizer(db, nil)
	require.NoError(t, s.Synthesize(context.Background(), nil, app, manufacturingMenu()))

	ctx := tenantctx.Set(context.Background(), 1)
	forest, err := s.Navigation(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, "生产管理", forest[0].Title)

	// Disabling the application empties the navigation.
	require.NoError(t, db.Model(app).Update("is_active", false).Error)
	forest, err = s.Navigation(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, forest)
}
