package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AgentClient forwards natural language queries to the agent service.
// The agent is opaque here: a query goes in, JSON comes out.
type AgentClient struct {
	url    string
	http   *HTTPClient
	logger Logger
}

// NewAgentClient creates a client posting to url
func NewAgentClient(url string, timeout time.Duration, logger Logger) *AgentClient {
	return &AgentClient{
		url:    url,
		http:   NewHTTPClient(&http.Client{Timeout: timeout}, logger),
		logger: logger,
	}
}

// Invoke sends {"query": query} and returns the raw JSON response
func (c *AgentClient) Invoke(ctx context.Context, query string) (json.RawMessage, error) {
	resp, err := c.http.PostJSON(ctx, c.url, map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("failed to call agent: %w", err)
	}
	defer resp.Body.Close()

	if err := CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent response: %w", err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("agent returned invalid JSON")
	}

	c.logger.Info("agent query completed", "bytes", len(body))
	return json.RawMessage(body), nil
}
