package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis creates a backend wired to an in-process Redis server.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisBackend) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := newRedisBackend(client, zerolog.Nop())
	t.Cleanup(func() { _ = backend.Close() })
	return mr, backend
}

func TestRedisBackend_AddGet(t *testing.T) {
	ctx := context.Background()
	_, c := setupMiniRedis(t)

	added, err := c.Add(ctx, "movie:1", []byte(`{"id":1}`), time.Minute)
	require.NoError(t, err)
	require.True(t, added)

	val, err := c.Get(ctx, "movie:1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1}`, string(val))

	stats := c.Stats()
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 1, stats.Adds)
	require.Equal(t, 1, stats.CurrentSize)
}

func TestRedisBackend_GetMissing(t *testing.T) {
	_, c := setupMiniRedis(t)

	val, err := c.Get(context.Background(), "nonexistent")
	require.ErrorIs(t, err, ErrMiss)
	require.Nil(t, val)
	require.EqualValues(t, 1, c.Stats().Misses)
}

func TestRedisBackend_AddIsSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	_, c := setupMiniRedis(t)

	_, err := c.Add(ctx, "top_movies", []byte("first"), time.Minute)
	require.NoError(t, err)
	added, err := c.Add(ctx, "top_movies", []byte("second"), time.Minute)
	require.NoError(t, err)
	require.False(t, added)

	val, err := c.Get(ctx, "top_movies")
	require.NoError(t, err)
	require.Equal(t, "first", string(val))
}

func TestRedisBackend_TTL(t *testing.T) {
	ctx := context.Background()
	mr, c := setupMiniRedis(t)

	_, err := c.Add(ctx, "ttl-key", []byte("v"), 30*time.Second)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, mr.TTL("ttl-key"))

	mr.FastForward(31 * time.Second)

	_, err = c.Get(ctx, "ttl-key")
	require.ErrorIs(t, err, ErrMiss)
}

func TestRedisBackend_Delete(t *testing.T) {
	ctx := context.Background()
	mr, c := setupMiniRedis(t)

	_, err := c.Add(ctx, "delete-key", []byte("v"), time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "delete-key"))
	require.False(t, mr.Exists("delete-key"))
	require.NoError(t, c.Delete(ctx, "delete-key"))
}

func TestRedisBackend_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, c := setupMiniRedis(t)
	mr.Close()

	_, err := c.Get(ctx, "k")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrMiss), "transport failures are not plain misses")

	_, err = c.Add(ctx, "k", []byte("v"), time.Minute)
	require.Error(t, err)
	require.Error(t, c.Delete(ctx, "k"))
	require.Error(t, c.HealthCheck(ctx))
}

func TestNewRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisBackend(context.Background(), RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.HealthCheck(context.Background()))
}
