package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/common/ratelimit"
)

// Window is the counting window for every limit in this package
const Window = time.Minute

// RateLimitMiddleware limits requests per client IP under scope. Limiter
// errors let the request through so a Redis outage never takes the API
// down with it.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || limit <= 0 {
				return next(c)
			}

			key := "rate_limit:" + scope + ":" + c.RealIP()
			result, err := limiter.Check(c.Request().Context(), key, limit, Window)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":               "rate_limit_exceeded",
					"message":             "Too many requests. Please try again later.",
					"limit":               result.Limit,
					"retry_after_seconds": result.RetryAfterSeconds,
				})
			}

			return next(c)
		}
	}
}

// GlobalRateLimitMiddleware applies the service wide per-client limit
func GlobalRateLimitMiddleware(limiter ratelimit.Limiter, limit int64) echo.MiddlewareFunc {
	return RateLimitMiddleware(limiter, "global", limit)
}

// UploadRateLimitMiddleware applies the stricter upload limit
func UploadRateLimitMiddleware(limiter ratelimit.Limiter, limit int64) echo.MiddlewareFunc {
	return RateLimitMiddleware(limiter, "upload", limit)
}
