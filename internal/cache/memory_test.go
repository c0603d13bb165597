package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestMemory(t *testing.T) (*MemoryBackend, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryBackend(0)
	c.now = clock.Now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemoryBackend_AddGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)

	added, err := c.Add(ctx, "k", []byte("v1"), time.Minute)
	require.NoError(t, err)
	require.True(t, added)

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v1", string(val))

	stats := c.Stats()
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 1, stats.Misses)
	require.EqualValues(t, 1, stats.Adds)
	require.Equal(t, 1, stats.CurrentSize)
}

func TestMemoryBackend_AddDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	_, err := c.Add(ctx, "k", []byte("first"), time.Minute)
	require.NoError(t, err)
	added, err := c.Add(ctx, "k", []byte("second"), time.Minute)
	require.NoError(t, err)
	require.False(t, added)

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "first", string(val))
}

func TestMemoryBackend_TTL(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t)

	_, err := c.Add(ctx, "k", []byte("v"), 30*time.Second)
	require.NoError(t, err)

	clock.Advance(29 * time.Second)
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = c.Get(ctx, "k")
	require.True(t, errors.Is(err, ErrMiss))

	added, err := c.Add(ctx, "k", []byte("fresh"), 30*time.Second)
	require.NoError(t, err)
	require.True(t, added, "expired entries must not block Add")

	clock.Advance(time.Minute)
	require.Equal(t, 1, c.deleteExpired())
	require.EqualValues(t, 1, c.Stats().Evictions)
}

func TestMemoryBackend_Delete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	_, err := c.Add(ctx, "k", []byte("v"), time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "missing"))

	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemoryBackend_StoresCopy(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	payload := []byte("abc")
	_, err := c.Add(ctx, "k", payload, time.Minute)
	require.NoError(t, err)
	payload[0] = 'x'

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(val))
}

func TestMemoryBackend_CloseIdempotent(t *testing.T) {
	c := NewMemoryBackend(time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.NoError(t, c.HealthCheck(context.Background()))
}
