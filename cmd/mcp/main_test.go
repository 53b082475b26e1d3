package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidon/assetmarket/cmd/api/container"
	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/config"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/service"
	"github.com/poseidon/assetmarket/common/service/servicetest"
	"github.com/poseidon/assetmarket/common/storage"
)

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type mcpEnv struct {
	e      *echo.Echo
	c      *container.Container
	assets *servicetest.AssetStore
}

func newMCPEnv(t *testing.T) *mcpEnv {
	t.Helper()

	facilitator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/verify":
			w.Write([]byte(`{"isValid":true,"payer":"buyer-wallet"}`))
		case "/settle":
			w.Write([]byte(`{"success":true,"transaction":"0xsettled","network":"solana-devnet"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(facilitator.Close)

	t.Setenv("STORAGE_PATH", t.TempDir())
	cfg, err := config.LoadWithDefaultPort("mcp", 3030)
	require.NoError(t, err)
	cfg.Payment.FacilitatorURL = facilitator.URL
	cfg.RateLimit.Enabled = false

	blobs, err := storage.NewFileStore(cfg.Storage.Path)
	require.NoError(t, err)

	creators := servicetest.NewCreatorStore(&models.Creator{
		ID:            "alice",
		Name:          "Alice",
		WalletAddress: "0xA1b2C3d4E5F6a7B8C9D0E1F2A3B4C5D6E7F8A9B0",
	})
	assets := servicetest.NewAssetStore()
	assets.Creators = creators

	components := &bootstrap.Components{Config: cfg, Logger: logger.Discard(), Blobs: blobs}
	c, err := container.Build(context.Background(), components, container.Stores{
		Assets:       assets,
		Creators:     creators,
		Transactions: servicetest.NewTransactionStore(),
	})
	require.NoError(t, err)

	e, err := NewServer(c)
	require.NoError(t, err)

	return &mcpEnv{e: e, c: c, assets: assets}
}

func (env *mcpEnv) post(t *testing.T, body string, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *mcpEnv) rpc(t *testing.T, body string) rpcResponse {
	t.Helper()
	rec := env.post(t, body, "application/json, text/event-stream")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

func TestInitialize(t *testing.T) {
	env := newMCPEnv(t)

	resp := env.rpc(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `1`, string(resp.ID))

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	assert.Equal(t, "assetmarket", result["serverInfo"].(map[string]any)["name"])
	assert.Contains(t, result["capabilities"], "tools")
}

func TestNotificationHasNoBody(t *testing.T) {
	env := newMCPEnv(t)

	rec := env.post(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestPing(t *testing.T) {
	env := newMCPEnv(t)

	resp := env.rpc(t, `{"jsonrpc":"2.0","id":"p","method":"ping"}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{}`, string(resp.Result))
}

func TestToolsList(t *testing.T) {
	env := newMCPEnv(t)

	resp := env.rpc(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Nil(t, resp.Error)

	var result struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 7)
	assert.Equal(t, "listAssets", result.Tools[0].Name)
	for _, tool := range result.Tools {
		assert.Equal(t, "object", tool.InputSchema["type"], tool.Name)
	}
}

func TestToolsCall_BadRequestNeverReachesStore(t *testing.T) {
	env := newMCPEnv(t)

	resp := env.rpc(t, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"getAsset","arguments":{"assetId":["x"]}}}`)
	require.Nil(t, resp.Error)

	var result struct {
		IsError           bool           `json:"isError"`
		StructuredContent map[string]any `json:"structuredContent"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	assert.Equal(t, "bad_request", result.StructuredContent["error"])
	assert.Equal(t, 0, env.assets.Calls())
}

func TestToolsCall_ChallengeForPricedAsset(t *testing.T) {
	env := newMCPEnv(t)
	asset, err := env.c.AssetService.CreateAsset(context.Background(), service.CreateAssetInput{
		Title:        "AI Explainer Video",
		Price:        "0.000001",
		Content:      []byte("video"),
		HasContent:   true,
		OriginalName: "explainer.mp4",
		MimeType:     "video/mp4",
		CreatorID:    "alice",
	})
	require.NoError(t, err)

	resp := env.rpc(t, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"getAsset","arguments":{"assetId":"`+asset.ID.String()+`"}}}`)
	require.Nil(t, resp.Error)

	var result struct {
		IsError           bool           `json:"isError"`
		StructuredContent map[string]any `json:"structuredContent"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	assert.Equal(t, float64(1), result.StructuredContent["x402Version"])
	assert.Len(t, result.StructuredContent["accepts"], 1)
}

func TestRPCErrors(t *testing.T) {
	env := newMCPEnv(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"parse error", `{not json`, -32700},
		{"batch", `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, -32600},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, -32600},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, -32601},
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`, -32602},
		{"missing tool name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, -32602},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.rpc(t, tc.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestAcceptHeaderNegotiation(t *testing.T) {
	env := newMCPEnv(t)
	ping := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	assert.Equal(t, http.StatusOK, env.post(t, ping, "").Code)
	assert.Equal(t, http.StatusOK, env.post(t, ping, "*/*").Code)
	assert.Equal(t, http.StatusOK, env.post(t, ping, "text/event-stream").Code)
	assert.Equal(t, http.StatusNotAcceptable, env.post(t, ping, "text/html").Code)
}

func TestGetMCPNotAllowed(t *testing.T) {
	env := newMCPEnv(t)

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get(echo.HeaderAllow))
}

func TestStatus(t *testing.T) {
	env := newMCPEnv(t)

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "mcp", body["service"])
	assert.Equal(t, config.PaymentModePriced, body["paymentMode"])
	assert.Len(t, body["tools"], 7)
}
