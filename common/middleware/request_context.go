package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/poseidon/assetmarket/common/clients"
	"github.com/poseidon/assetmarket/common/logger"
)

// RequestContext copies the request id set by echo's RequestID middleware
// into the request context, where the logger and outbound clients read it.
// Must run after middleware.RequestID.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if id != "" {
				ctx := logger.WithRequestID(c.Request().Context(), id)
				ctx = clients.WithRequestID(ctx, id)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// RequestLogger logs one line per request through log
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Round(time.Millisecond).Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				args = append(args, "error", v.Error.Error())
			}
			if v.Status >= 500 {
				log.Warn("request failed", args...)
				return nil
			}
			log.Info("request", args...)
			return nil
		},
	})
}
