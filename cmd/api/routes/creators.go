package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/cmd/api/handlers"
)

// RegisterCreatorRoutes registers creator routes
func RegisterCreatorRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewCreatorHandler(c)

	creators := e.Group("/api/creators")
	{
		creators.POST("", h.CreateCreator) // POST /api/creators
		creators.GET("/:id", h.GetCreator) // GET /api/creators/{id}
	}
}
