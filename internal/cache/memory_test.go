package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, m.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Second)

	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok, "entry should expire after its ttl")
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok, "zero ttl never expires")
}

func TestMemoryCleanup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set(ctx, "a", []byte("1"), time.Second)
	m.Set(ctx, "b", []byte("2"), time.Hour)
	now = now.Add(time.Minute)

	m.Cleanup()
	assert.Equal(t, 1, m.Len())
}

func TestMemoryGeneration(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	gen, err := m.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, m.Invalidate(ctx, 1))
	require.NoError(t, m.Invalidate(ctx, 1))

	gen, _ = m.Generation(ctx, 1)
	assert.Equal(t, int64(2), gen)
	other, _ := m.Generation(ctx, 2)
	assert.Equal(t, int64(0), other, "invalidation is per room")
}

func TestMemoryInvalidateDropsRoomViews(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, ViewKey(1, 0, "dashboard"), []byte("a"), 0))
	require.NoError(t, m.Set(ctx, ViewKey(1, 0, "stats"), []byte("b"), 0))
	require.NoError(t, m.Set(ctx, ViewKey(10, 0, "stats"), []byte("c"), 0))
	require.Equal(t, 3, m.Len())

	require.NoError(t, m.Invalidate(ctx, 1))
	assert.Equal(t, 1, m.Len(), "only room 1 views should be dropped")
	_, ok, _ := m.Get(ctx, ViewKey(10, 0, "stats"))
	assert.True(t, ok, "room 10 shares a key prefix with room 1 but must survive")

	for range 5 {
		require.NoError(t, m.Set(ctx, ViewKey(1, 1, "stats"), []byte("d"), 0))
		require.NoError(t, m.Invalidate(ctx, 1))
	}
	assert.Equal(t, 1, m.Len(), "repeated invalidation must not accumulate stale views")
}

func TestViewKey(t *testing.T) {
	assert.Equal(t, "room:3:gen:0:dashboard", ViewKey(3, 0, "dashboard"))
	assert.Equal(t, "room:3:gen:2:todo:7:2024-01-10", ViewKey(3, 2, "todo", int64(7), "2024-01-10"))
	assert.NotEqual(t, ViewKey(3, 1, "stats"), ViewKey(3, 2, "stats"))
}
