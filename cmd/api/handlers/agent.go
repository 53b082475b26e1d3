package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/clients"
)

// AgentHandler forwards queries to the external agent
type AgentHandler struct {
	components *bootstrap.Components
	agent      *clients.AgentClient
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(c *container.Container) *AgentHandler {
	return &AgentHandler{
		components: c.Components,
		agent:      c.Agent,
	}
}

// Query runs one agent query
// POST /api/agent
func (h *AgentHandler) Query(c echo.Context) error {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "Query string is required")
	}

	if h.agent == nil {
		return respondError(c, h.components.Logger, apperrors.ErrAgentUnavailable)
	}

	resp, err := h.agent.Invoke(c.Request().Context(), req.Query)
	if err != nil {
		return respondError(c, h.components.Logger,
			apperrors.Wrap(apperrors.ErrAgentUnavailable, "agent request failed", err))
	}

	return c.JSONBlob(http.StatusOK, resp)
}
