package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-backend/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := testStruct{Name: "Alice", Age: 30}
	err := cache.Set("user:1", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get("user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out testStruct
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("user:2", testStruct{Name: "Bob"}, time.Minute))
	require.NoError(t, cache.Invalidate("user:2"))

	var out testStruct
	found, err := cache.Get("user:2", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDenylistToken(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	denied, err := cache.IsTokenDenylisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)

	require.NoError(t, cache.DenylistToken(ctx, "jti-1", time.Minute))

	denied, err = cache.IsTokenDenylisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, denied)
}

func TestDenylistTokenExpiredTTL(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	// Токен с истёкшим сроком записывать бессмысленно.
	require.NoError(t, cache.DenylistToken(ctx, "jti-2", -time.Second))

	denied, err := cache.IsTokenDenylisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, denied)
}
