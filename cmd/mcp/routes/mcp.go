package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/mcp/handlers"
)

// RegisterMCPRoutes registers the JSON-RPC tool endpoint
func RegisterMCPRoutes(e *echo.Echo, h *handlers.MCPHandler) {
	e.POST("/mcp", h.Handle)          // POST /mcp (JSON-RPC 2.0)
	e.GET("/mcp", h.MethodNotAllowed) // GET /mcp (no SSE stream)
}
