package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := NewRoleCache(nil)

	require.NoError(t, c.Set(ctx, "alice@x.com", "admin"))
	_, ok, err := c.Get(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, "alice@x.com"))

	var nilCache *RoleCache
	_, ok, err = nilCache.Get(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
