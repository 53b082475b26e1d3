package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/clients"
)

// FacilitatorClient talks to an external x402 facilitator. All payment
// correctness lives there; this client only moves JSON.
type FacilitatorClient struct {
	baseURL string
	http    *clients.HTTPClient
	logger  clients.Logger
}

// NewFacilitatorClient creates a client for <baseURL>/verify and /settle
func NewFacilitatorClient(baseURL string, timeout time.Duration, logger clients.Logger) *FacilitatorClient {
	return &FacilitatorClient{
		baseURL: baseURL,
		http:    clients.NewHTTPClient(&http.Client{Timeout: timeout}, logger),
		logger:  logger,
	}
}

// Verify asks the facilitator whether proof satisfies req
func (c *FacilitatorClient) Verify(ctx context.Context, proof json.RawMessage, req PaymentRequirements) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.post(ctx, "/verify", proof, req, &out); err != nil {
		return nil, err
	}

	c.logger.Debug("payment verified", "valid", out.IsValid, "payer", out.Payer, "reason", out.InvalidReason)
	return &out, nil
}

// Settle asks the facilitator to execute the verified payment
func (c *FacilitatorClient) Settle(ctx context.Context, proof json.RawMessage, req PaymentRequirements) (*SettleResponse, error) {
	var out SettleResponse
	if err := c.post(ctx, "/settle", proof, req, &out); err != nil {
		return nil, err
	}

	c.logger.Debug("payment settled", "success", out.Success, "transaction", out.Transaction)
	return &out, nil
}

func (c *FacilitatorClient) post(ctx context.Context, path string, proof json.RawMessage, req PaymentRequirements, out any) error {
	body := facilitatorRequest{
		X402Version:         X402Version,
		PaymentPayload:      proof,
		PaymentRequirements: req,
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+path, body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrFacilitatorUnavailable, "payment facilitator unreachable", err)
	}
	defer resp.Body.Close()

	if err := clients.CheckStatus(resp); err != nil {
		return apperrors.Wrap(apperrors.ErrFacilitatorUnavailable, fmt.Sprintf("facilitator %s failed", path), err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrFacilitatorUnavailable, "invalid facilitator response", err)
	}

	return nil
}
