package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v1"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	ok, err := c.SetNX(ctx, "k", []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.SetNX(ctx, "latch", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	taken, err := c.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), taken)
	_, err = c.Take(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Delete(ctx, "latch"))
	ok, err = c.SetNX(ctx, "latch", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.DeleteIfValue(ctx, "latch", []byte("2"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = c.Get(ctx, "latch")
	assert.NoError(t, err)

	ok, err = c.DeleteIfValue(ctx, "latch", []byte("1"))
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = c.Get(ctx, "latch")
	assert.ErrorIs(t, err, ErrCacheMiss)

	ok, err = c.DeleteIfValue(ctx, "latch", []byte("1"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "latch", []byte("1"), time.Minute))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	exerciseCache(t, c)
}

func TestRedisCache(t *testing.T) {
	c, mr := newRedisCache(t)
	exerciseCache(t, c)
	assert.True(t, mr.Exists("test:latch"))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "code", []byte("x"), time.Minute))
	now = now.Add(2 * time.Minute)

	_, err := c.Get(ctx, "code")
	assert.ErrorIs(t, err, ErrCacheMiss)

	ok, err := c.SetNX(ctx, "code", []byte("y"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	require.NoError(t, c.Set(ctx, "code", []byte("x"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "code")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
