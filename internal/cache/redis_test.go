package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourls/yourls-cli/internal/cache"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisBackend_PutGet(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	b := cache.NewRedisBackend(client, "https://sho.rt", time.Minute)

	b.Put(ctx, "expand:abc", map[string]string{"longurl": "https://example.com"})

	var got map[string]string
	require.True(t, b.Get(ctx, "expand:abc", &got))
	assert.Equal(t, "https://example.com", got["longurl"])

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "yourls:")
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestRedisBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	b := cache.NewRedisBackend(client, "https://sho.rt", time.Second)

	b.Put(ctx, "k", "v")
	mr.FastForward(2 * time.Second)

	var got string
	assert.False(t, b.Get(ctx, "k", &got))
}

func TestRedisBackend_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	b := cache.NewRedisBackend(client, "https://sho.rt", time.Minute)
	other := cache.NewRedisBackend(client, "https://other.example", time.Minute)

	b.Put(ctx, "a", 1)
	b.Put(ctx, "b", 2)
	other.Put(ctx, "a", 3)

	require.NoError(t, b.Delete(ctx, "a"))
	var n int
	assert.False(t, b.Get(ctx, "a", &n))

	require.NoError(t, b.Clear(ctx))
	assert.False(t, b.Get(ctx, "b", &n))
	require.True(t, other.Get(ctx, "a", &n))
	assert.Equal(t, 3, n)
	assert.Len(t, mr.Keys(), 1)
}

func TestRedisBackend_DisabledByEnv(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	t.Setenv("YOURLS_NO_CACHE", "1")
	b := cache.NewRedisBackend(client, "https://sho.rt", time.Minute)

	b.Put(ctx, "k", "v")
	assert.Empty(t, mr.Keys())
}

func TestRedisBackend_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	b := cache.NewRedisBackend(client, "https://sho.rt", time.Minute)
	mr.Close()

	b.Put(ctx, "k", "v")
	var got string
	assert.False(t, b.Get(ctx, "k", &got))
}

func TestOpenRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := cache.OpenRedis(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = cache.OpenRedis(ctx, "not a url")
	assert.Error(t, err)
}
