package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidon/assetmarket/common/logger"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryLimiter(time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := m.Check(ctx, "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, int64(i), res.CurrentCount)
	}

	res, err := m.Check(ctx, "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(20), res.RetryAfterSeconds)

	// other keys are independent
	res, err = m.Check(ctx, "ip:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// one token refills after window/limit
	now = now.Add(20 * time.Second)
	res, err = m.Check(ctx, "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_NoLimit(t *testing.T) {
	m := NewMemoryLimiter(time.Minute)
	res, err := m.Check(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryLimiter(time.Minute)
	m.now = func() time.Time { return now }

	_, err := m.Check(context.Background(), "a", 5, time.Minute)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 0, m.Cleanup())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.Cleanup())
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	l := NewRedisLimiter(client, logger.Discard())
	key := "rate_limit:test:" + uuid.NewString()
	t.Cleanup(func() { l.Reset(ctx, key) })

	for i := 1; i <= 2; i++ {
		res, err := l.Check(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(i), res.CurrentCount)
	}

	res, err := l.Check(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfterSeconds, int64(0))
}
