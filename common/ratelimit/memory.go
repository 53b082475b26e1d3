package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter keeps a token bucket per key in process. Used when Redis
// is not configured; limits are then per replica.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	idleTTL  time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	limit    int64
	lastSeen time.Time
}

// NewMemoryLimiter creates an in-process limiter. Buckets idle for longer
// than idleTTL are dropped by Cleanup.
func NewMemoryLimiter(idleTTL time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Check takes one token from the bucket for key. A bucket holds limit
// tokens and refills at limit per window.
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int64, window time.Duration) (*Result, error) {
	if limit <= 0 {
		return &Result{Allowed: true}, nil
	}

	now := m.now()
	lim := m.bucket(key, limit, window, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return &Result{Allowed: false, CurrentCount: limit, Limit: limit, RetryAfterSeconds: int64(window / time.Second)}, nil
	}

	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return &Result{
			Allowed:           false,
			CurrentCount:      limit,
			Limit:             limit,
			RetryAfterSeconds: int64(math.Ceil(delay.Seconds())),
		}, nil
	}

	used := limit - int64(math.Floor(lim.TokensAt(now)))
	return &Result{Allowed: true, CurrentCount: used, Limit: limit}, nil
}

func (m *MemoryLimiter) bucket(key string, limit int64, window time.Duration, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.visitors[key]
	if !ok || v.limit != limit {
		every := window / time.Duration(limit)
		v = &visitor{
			limiter: rate.NewLimiter(rate.Every(every), int(limit)),
			limit:   limit,
		}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup drops idle buckets
func (m *MemoryLimiter) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := m.now()
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idleTTL {
			delete(m.visitors, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
