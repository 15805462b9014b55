package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	redisclient "github.com/zatekoja/gymscheduler/internal/infrastructure/clients/redis"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisAdapter(redisclient.NewClientFromRedis(client), "gym")
}

func TestRedisAdapter_SetGet(t *testing.T) {
	mr, adapter := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "settings:system_week", []byte("2030-01-07"), time.Hour))

	got, err := adapter.Get(ctx, "settings:system_week")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-07", string(got))
	assert.True(t, mr.Exists("gym:settings:system_week"))
	assert.Equal(t, time.Hour, mr.TTL("gym:settings:system_week"))
}

func TestRedisAdapter_MissAndExpiry(t *testing.T) {
	mr, adapter := setupRedis(t)
	ctx := context.Background()

	_, err := adapter.Get(ctx, "missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, "report", []byte("{}"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err = adapter.Get(ctx, "report")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_Delete(t *testing.T) {
	_, adapter := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, adapter.Delete(ctx, "k"))

	_, err := adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_ServerDown(t *testing.T) {
	mr, adapter := setupRedis(t)
	mr.Close()

	_, err := adapter.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	got, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))

	require.NoError(t, c.Delete(ctx, "b"))
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
