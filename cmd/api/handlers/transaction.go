package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/service"
)

// TransactionHandler exposes the delivery ledger
type TransactionHandler struct {
	components         *bootstrap.Components
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(c *container.Container) *TransactionHandler {
	return &TransactionHandler{
		components:         c.Components,
		transactionService: c.TransactionService,
	}
}

// RecordTransaction appends a ledger entry
// POST /api/transactions
func (h *TransactionHandler) RecordTransaction(c echo.Context) error {
	var req models.TransactionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tx, err := h.transactionService.Record(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"data": tx,
	})
}

// ListByAsset returns recent transactions for an asset
// GET /api/assets/:id/transactions
func (h *TransactionHandler) ListByAsset(c echo.Context) error {
	txs, err := h.transactionService.ListByAsset(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": txs,
	})
}
