package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/service"
)

// CreatorHandler handles creator registration
type CreatorHandler struct {
	components     *bootstrap.Components
	creatorService *service.CreatorService
}

// NewCreatorHandler creates a new creator handler
func NewCreatorHandler(c *container.Container) *CreatorHandler {
	return &CreatorHandler{
		components:     c.Components,
		creatorService: c.CreatorService,
	}
}

// CreateCreator registers a creator
// POST /api/creators
func (h *CreatorHandler) CreateCreator(c echo.Context) error {
	var req service.CreateCreatorInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	creator, err := h.creatorService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"data": creator,
	})
}

// GetCreator returns a creator
// GET /api/creators/:id
func (h *CreatorHandler) GetCreator(c echo.Context) error {
	creator, err := h.creatorService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": creator,
	})
}
