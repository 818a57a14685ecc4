package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func exerciseCache(t *testing.T, c *Cache) {
	t.Helper()
	ctx := context.Background()

	var got payload
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "report:a", payload{Name: "a", Count: 3}, time.Minute))
	found, err = c.Get(ctx, "report:a", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, payload{Name: "a", Count: 3}, got)

	require.NoError(t, c.Clear(ctx))
	found, err = c.Get(ctx, "report:a", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemory(t *testing.T) {
	c := NewInMemory()
	assert.Equal(t, ModeInMemory, c.Mode())
	exerciseCache(t, c)
	assert.NoError(t, c.Close())
}

func TestInMemoryExpiry(t *testing.T) {
	c := NewInMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, 10*time.Second))

	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(10 * time.Second)
	found, err = c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemorySweepsOnSet(t *testing.T) {
	c := NewInMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("report:%d", i), i, time.Minute))
	}
	assert.Equal(t, 50, c.Len())

	// Old keys are never read again; the next write drops them.
	now = now.Add(time.Minute)
	require.NoError(t, c.Set(ctx, "report:new", 1, time.Minute))
	assert.Equal(t, 1, c.Len())
}

func TestInMemoryCapped(t *testing.T) {
	c := NewInMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < MaxMemEntries+10; i++ {
		now = now.Add(time.Millisecond)
		require.NoError(t, c.Set(ctx, fmt.Sprintf("report:%d", i), i, time.Hour))
	}
	assert.Equal(t, MaxMemEntries, c.Len())

	var v int
	found, err := c.Get(ctx, "report:0", &v)
	require.NoError(t, err)
	assert.False(t, found, "earliest entry should be evicted")

	found, err = c.Get(ctx, fmt.Sprintf("report:%d", MaxMemEntries+9), &v)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMarshalError(t *testing.T) {
	c := NewInMemory()
	err := c.Set(context.Background(), "bad", make(chan int), time.Minute)
	assert.Error(t, err)
}

func TestUnmarshalError(t *testing.T) {
	c := NewInMemory()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "text", time.Minute))

	var n int
	_, err := c.Get(ctx, "k", &n)
	assert.Error(t, err)
}

func TestUnreachableRedisFallsBack(t *testing.T) {
	c := New(context.Background(), Options{Address: "127.0.0.1:1"})
	defer c.Close()
	assert.Equal(t, ModeInMemory, c.Mode())
	exerciseCache(t, c)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
	}
	c := New(context.Background(), Options{Address: addr, Prefix: "jpx-test:"})
	defer c.Close()
	if c.Mode() != ModeRedis {
		t.Skip("No Redis connection available")
	}
	exerciseCache(t, c)
}
