package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/cmd/api/handlers"
)

// RegisterTransactionRoutes registers the ledger endpoint
func RegisterTransactionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTransactionHandler(c)
	e.POST("/api/transactions", h.RecordTransaction) // POST /api/transactions
}
