package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type menuEntry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	c := NewCache(rdb, "shop:", time.Minute)

	var got []menuEntry
	found, err := c.Get(ctx, "menu", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "menu", []menuEntry{{ID: 7, Name: "Books"}}))
	assert.True(t, mr.Exists("shop:menu"))

	found, err = c.Get(ctx, "menu", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []menuEntry{{ID: 7, Name: "Books"}}, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "menu", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	c := NewCache(rdb, "shop:", time.Minute)
	require.NoError(t, c.Set(ctx, "menu", 1))
	require.NoError(t, c.Delete(ctx, "menu"))
	assert.False(t, mr.Exists("shop:menu"))
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	var v int
	found, err := c.Get(ctx, "k", &v)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Set(ctx, "k", 1))
	assert.NoError(t, c.Delete(ctx, "k"))
}
