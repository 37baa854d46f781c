package inmemcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubanco/recursos/core"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func Test_Cache_GetSet(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	var got payload
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Count: 3}, time.Minute))

	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "a", Count: 3}, got)
}

func Test_Cache_expiry(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a"}, -time.Second))

	var got payload
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func Test_Cache_Invalidate_byPrefix(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	keys := []string{
		core.MaterialKey("m1"),
		core.MaterialListKey("page=1"),
		core.MaterialListKey("page=2"),
		core.MaterialStatsKey(),
		core.UserMaterialsKey("u1", 1),
		core.GeneratedContentKey("u1", "m1"),
		core.UserMaterialsKey("u2", 1),
	}
	for _, k := range keys {
		require.NoError(t, c.Set(ctx, k, payload{Name: k}, time.Minute))
	}

	// a mutation on m1 by u1 drops its views but leaves u2 alone
	require.NoError(t, c.Invalidate(ctx,
		core.MaterialKey("m1"),
		core.MaterialListKeyPrefix(),
		core.MaterialStatsKey(),
		core.UserKeyPrefix("u1"),
	))

	var got payload
	for _, k := range keys[:6] {
		found, err := c.Get(ctx, k, &got)
		require.NoError(t, err)
		assert.False(t, found, "key %q should have been dropped", k)
	}
	found, err := c.Get(ctx, core.UserMaterialsKey("u2", 1), &got)
	require.NoError(t, err)
	assert.True(t, found, "another user's views survive")
}

func Test_Cache_Invalidate_exactKeyIsItsOwnPrefix(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, core.MaterialStatsKey(), payload{}, time.Minute))
	require.NoError(t, c.Invalidate(ctx, core.MaterialStatsKey()))

	var got payload
	found, err := c.Get(ctx, core.MaterialStatsKey(), &got)
	require.NoError(t, err)
	assert.False(t, found)
}
