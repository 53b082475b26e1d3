package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/cmd/api/routes"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/db"
	commonmw "github.com/poseidon/assetmarket/common/middleware"
	"github.com/poseidon/assetmarket/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap common components (DB, logger, redis, blob storage, telemetry)
	components, err := bootstrap.Setup(ctx, "api",
		bootstrap.WithDefaultPort(3001),
		bootstrap.WithDBInitHook(db.MigrateHook(ctx)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap api: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := NewServer(serviceContainer)

	port := components.Config.Service.Port
	components.Logger.Info("Starting api", "port", port)

	if err := server.New("api", port, e, components.Logger).Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// NewServer builds the echo instance with middleware and all routes
func NewServer(c *container.Container) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, c)
	setupHealthCheck(e, c)
	registerRoutes(e, c)

	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, c *container.Container) {
	cfg := c.Components.Config

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(commonmw.RequestContext())
	e.Use(commonmw.RequestLogger(c.Components.Logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAccept, "X-PAYMENT"},
		ExposeHeaders: []string{"X-PAYMENT-RESPONSE", echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(bodyLimit(cfg.Storage.UploadMaxBytes)))
	e.Use(commonmw.GlobalRateLimitMiddleware(c.Limiter, cfg.RateLimit.PerMinute))
}

// setupHealthCheck registers the health and status endpoints
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ec echo.Context) error {
		if err := c.Components.Health(ec.Request().Context()); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return ec.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "api",
		})
	})

	e.GET("/status", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]interface{}{
			"service":       "api",
			"paymentMode":   c.Gate.Mode(),
			"storage":       c.Components.Config.Storage.Backend,
			"rateLimit":     c.Limiter != nil,
			"agent":         c.Agent != nil,
			"autoProvision": c.Components.Config.Assets.AutoProvisionCreators,
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, c *container.Container) {
	routes.RegisterAssetRoutes(e, c)
	routes.RegisterCreatorRoutes(e, c)
	routes.RegisterTransactionRoutes(e, c)
	routes.RegisterAgentRoutes(e, c)
}

// bodyLimit leaves room for multipart overhead and base64 expansion
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		return "32M"
	}
	kb := (maxUpload*4/3)/1024 + 1024
	return fmt.Sprintf("%dK", kb)
}
