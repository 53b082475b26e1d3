package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "tags")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "tags", []byte(`["AI"]`), time.Minute))
	val, ok, err := c.Get(ctx, "tags")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["AI"]`, string(val))

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "tags")
	assert.False(t, ok, "expired entry must miss")

	require.NoError(t, c.Set(ctx, "tags", []byte(`[]`), time.Minute))
	require.NoError(t, c.Delete(ctx, "tags"))
	_, ok, _ = c.Get(ctx, "tags")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	c := NewRedisCache(client, "test:"+uuid.NewString()+":")

	_, ok, err := c.Get(ctx, "tags")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "tags", []byte(`["AI","Art"]`), time.Minute))
	val, ok, err := c.Get(ctx, "tags")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["AI","Art"]`, string(val))

	require.NoError(t, c.Delete(ctx, "tags"))
	_, ok, err = c.Get(ctx, "tags")
	require.NoError(t, err)
	assert.False(t, ok)
}
