package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/cmd/api/handlers"
)

// RegisterAgentRoutes registers the agent passthrough
func RegisterAgentRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAgentHandler(c)
	e.POST("/api/agent", h.Query) // POST /api/agent
}
