package tenantctx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/pkg/apperr"
)

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()

	_, ok := Get(ctx)
	assert.False(t, ok, "fresh context must carry no tenant")

	ctx = Set(ctx, 7)
	id, ok := Get(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(7), id)
}

func TestRequireFailsClosed(t *testing.T) {
	_, err := Require(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsNoTenantContext(err))

	id, err := Require(Set(context.Background(), 3))
	require.NoError(t, err)
	assert.Equal(t, uint(3), id)
}

func TestClearShadowsParent(t *testing.T) {
	ctx := Set(context.Background(), 9)
	cleared := Clear(ctx)

	_, ok := Get(cleared)
	assert.False(t, ok, "cleared context must not expose the parent tenant")

	// The parent is untouched.
	id, ok := Get(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(9), id)
}

func TestWithScopesRestoration(t *testing.T) {
	ctx := Set(context.Background(), 1)

	err := With(ctx, 2, func(inner context.Context) error {
		id, ok := Get(inner)
		require.True(t, ok)
		assert.Equal(t, uint(2), id)
		return errors.New("boom")
	})
	assert.Error(t, err)

	// Caller's context still holds the original tenant after the error path.
	id, ok := Get(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(1), id)
}

func TestConcurrentOperationsAreIsolated(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup

	for i := uint(1); i <= 50; i++ {
		wg.Add(1)
		go func(tenant uint) {
			defer wg.Done()
			ctx := Set(base, tenant)
			id, ok := Get(ctx)
			assert.True(t, ok)
			assert.Equal(t, tenant, id)
		}(i)
	}
	wg.Wait()
}
