package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidon/assetmarket/common/ratelimit"
)

type stubLimiter struct {
	result *ratelimit.Result
	err    error
	keys   []string
}

func (s *stubLimiter) Check(ctx context.Context, key string, limit int64, window time.Duration) (*ratelimit.Result, error) {
	s.keys = append(s.keys, key)
	return s.result, s.err
}

func serve(t *testing.T, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, mw)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware_Allows(t *testing.T) {
	lim := &stubLimiter{result: &ratelimit.Result{Allowed: true}}
	rec := serve(t, GlobalRateLimitMiddleware(lim, 10))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"rate_limit:global:203.0.113.7"}, lim.keys)
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	lim := &stubLimiter{result: &ratelimit.Result{Allowed: false, Limit: 10, RetryAfterSeconds: 42}}
	rec := serve(t, UploadRateLimitMiddleware(lim, 10))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.Equal(t, float64(42), body["retry_after_seconds"])
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	lim := &stubLimiter{err: errors.New("redis down")}
	rec := serve(t, GlobalRateLimitMiddleware(lim, 10))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	rec := serve(t, GlobalRateLimitMiddleware(nil, 10))
	assert.Equal(t, http.StatusOK, rec.Code)
}
