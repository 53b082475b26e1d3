package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/poseidon/assetmarket/common/models"
)

// ErrEndpointNotFound means the remote service has no transaction endpoint
var ErrEndpointNotFound = errors.New("transaction endpoint not found")

// TransactionClient posts transaction records to a remote API
type TransactionClient struct {
	baseURL string
	http    *HTTPClient
	logger  Logger
}

// NewTransactionClient creates a client for <baseURL>/api/transactions
func NewTransactionClient(baseURL string, timeout time.Duration, logger Logger) *TransactionClient {
	return &TransactionClient{
		baseURL: baseURL,
		http:    NewHTTPClient(&http.Client{Timeout: timeout}, logger),
		logger:  logger,
	}
}

// RecordTransaction sends one record. A 404 is reported as
// ErrEndpointNotFound so callers can skip it quietly.
func (c *TransactionClient) RecordTransaction(ctx context.Context, req models.TransactionRequest) error {
	url := c.baseURL + "/api/transactions"

	resp, err := c.http.PostJSON(ctx, url, req)
	if err != nil {
		return fmt.Errorf("failed to post transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Warn("transaction endpoint not found, skipping", "url", url)
		return ErrEndpointNotFound
	}

	if err := CheckStatus(resp); err != nil {
		return fmt.Errorf("transaction request failed: %w", err)
	}

	c.logger.Debug("transaction recorded remotely", "asset_id", req.AssetID)
	return nil
}
