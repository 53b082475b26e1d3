package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the result of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Requests counted in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until a request would be allowed (0 if allowed)
}

// Limiter counts requests per key within a window
type Limiter interface {
	Check(ctx context.Context, key string, limit int64, window time.Duration) (*Result, error)
}

// RedisLimiter is a fixed window limiter shared by every replica,
// implemented as a single Lua script so INCR and EXPIRE are atomic.
type RedisLimiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// NewRedisLimiter creates a limiter with the embedded Lua script
func NewRedisLimiter(redisClient *redis.Client, logger Logger) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// Check increments the counter for key and reports whether it is within limit
func (r *RedisLimiter) Check(ctx context.Context, key string, limit int64, window time.Duration) (*Result, error) {
	if limit <= 0 {
		return &Result{Allowed: true}, nil
	}

	windowSec := int64(window / time.Second)
	if windowSec < 1 {
		windowSec = 1
	}

	raw, err := r.script.Run(ctx, r.redis, []string{key}, limit, windowSec).Result()
	if err != nil {
		r.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// {allowed, current_count, limit, retry_after}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	ints := make([]int64, 4)
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected script result type %T", v)
		}
		ints[i] = n
	}

	result := &Result{
		Allowed:           ints[0] == 1,
		CurrentCount:      ints[1],
		Limit:             ints[2],
		RetryAfterSeconds: ints[3],
	}

	if !result.Allowed {
		r.logger.Warn("rate limit exceeded",
			"key", key,
			"current", result.CurrentCount,
			"limit", limit,
			"retry_after", result.RetryAfterSeconds)
	}

	return result, nil
}

// Reset clears a counter
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.redis.Del(ctx, key).Err()
}
