package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/cmd/mcp/tools"
	"github.com/poseidon/assetmarket/common/bootstrap"
)

// ProtocolVersion is the MCP revision this server speaks
const ProtocolVersion = "2025-03-26"

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request or notification (no id)
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a Response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type callParams struct {
	Name      string                     `json:"name"`
	Arguments json.RawMessage            `json:"arguments"`
	Meta      map[string]json.RawMessage `json:"_meta"`
}

// MCPHandler serves the tool surface over JSON-RPC
type MCPHandler struct {
	components *bootstrap.Components
	registry   *tools.Registry
	version    string
}

// NewMCPHandler creates a new MCP handler
func NewMCPHandler(components *bootstrap.Components, registry *tools.Registry, version string) *MCPHandler {
	return &MCPHandler{
		components: components,
		registry:   registry,
		version:    version,
	}
}

// Handle processes one JSON-RPC message
// POST /mcp
func (h *MCPHandler) Handle(c echo.Context) error {
	if !acceptsJSON(c.Request().Header.Get(echo.HeaderAccept)) {
		return c.JSON(http.StatusNotAcceptable, map[string]string{
			"error":   "not_acceptable",
			"message": "client must accept application/json",
		})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusOK, errorResponse(nil, codeParseError, "failed to read request body"))
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		return c.JSON(http.StatusOK, errorResponse(nil, codeInvalidRequest, "batch requests are not supported"))
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusOK, errorResponse(nil, codeParseError, "invalid JSON"))
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidRequest, "invalid JSON-RPC 2.0 request"))
	}

	// notifications get no response body
	if isNotification(req.ID) {
		h.components.Logger.Debug("mcp notification", "method", req.Method)
		return c.NoContent(http.StatusAccepted)
	}

	result, rpcErr := h.dispatch(c, req)
	if rpcErr != nil {
		return c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
	}
	return c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// MethodNotAllowed rejects the SSE stream; this server only answers POSTs
// GET /mcp
func (h *MCPHandler) MethodNotAllowed(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
	return c.JSON(http.StatusMethodNotAllowed, errorResponse(nil, codeInvalidRequest, "method not allowed"))
}

func (h *MCPHandler) dispatch(c echo.Context, req Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		var params struct {
			ProtocolVersion string `json:"protocolVersion"`
		}
		_ = json.Unmarshal(req.Params, &params)
		version := params.ProtocolVersion
		if version == "" {
			version = ProtocolVersion
		}
		return map[string]any{
			"protocolVersion": version,
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			"serverInfo": map[string]any{
				"name":    "assetmarket",
				"version": h.version,
			},
		}, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		return map[string]any{"tools": h.registry.List()}, nil

	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return nil, &RPCError{Code: codeInvalidParams, Message: "tools/call requires a tool name"}
		}
		result, err := h.registry.Call(c.Request().Context(), params.Name, tools.Call{
			Arguments: params.Arguments,
			Meta:      params.Meta,
		})
		if errors.Is(err, tools.ErrUnknownTool) {
			return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
		}
		if err != nil {
			return nil, &RPCError{Code: codeInternalError, Message: "tool call failed"}
		}
		return result, nil

	default:
		return nil, &RPCError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
}

func isNotification(id json.RawMessage) bool {
	id = bytes.TrimSpace(id)
	return len(id) == 0
}

// acceptsJSON normalizes the Accept header. Streamable HTTP clients send
// "application/json, text/event-stream"; a missing header means anything.
func acceptsJSON(accept string) bool {
	if strings.TrimSpace(accept) == "" {
		return true
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch strings.ToLower(mediaType) {
		case "application/json", "application/*", "*/*", "text/event-stream":
			return true
		}
	}
	return false
}
