package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/cmd/mcp/handlers"
	"github.com/poseidon/assetmarket/cmd/mcp/routes"
	"github.com/poseidon/assetmarket/cmd/mcp/tools"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/db"
	commonmw "github.com/poseidon/assetmarket/common/middleware"
	"github.com/poseidon/assetmarket/common/server"
)

const version = "1.0.0"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Setup(ctx, "mcp",
		bootstrap.WithDefaultPort(3030),
		bootstrap.WithDBInitHook(db.MigrateHook(ctx)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap mcp: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Same services as the api, run in process against the same store
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e, err := NewServer(serviceContainer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register tools: %v\n", err)
		os.Exit(1)
	}

	port := components.Config.Service.Port
	components.Logger.Info("Starting mcp", "port", port)

	if err := server.New("mcp", port, e, components.Logger).Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// NewServer builds the echo instance serving the tool surface
func NewServer(c *container.Container) (*echo.Echo, error) {
	registry := tools.NewRegistry(c.Components.Logger, c.Components.Telemetry)
	if err := tools.RegisterMarketplace(registry, tools.Deps{
		Assets: c.AssetService,
		Gate:   c.Gate,
		Agent:  c.Agent,
	}); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, c)
	setupHealthCheck(e, c, registry)
	routes.RegisterMCPRoutes(e, handlers.NewMCPHandler(c.Components, registry, version))

	return e, nil
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
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAccept, "Mcp-Session-Id"},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", cfg.Storage.UploadMaxBytes*4/3/1024+64)))
	e.Use(commonmw.GlobalRateLimitMiddleware(c.Limiter, cfg.RateLimit.PerMinute))
}

// setupHealthCheck registers the health and status endpoints
func setupHealthCheck(e *echo.Echo, c *container.Container, registry *tools.Registry) {
	e.GET("/health", func(ec echo.Context) error {
		if err := c.Components.Health(ec.Request().Context()); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return ec.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "mcp",
		})
	})

	e.GET("/status", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]interface{}{
			"service":     "mcp",
			"version":     version,
			"paymentMode": c.Gate.Mode(),
			"tools":       registry.Names(),
		})
	})
}
