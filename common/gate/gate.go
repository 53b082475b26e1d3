package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/config"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/payment"
)

// State is where a delivery request ended up
type State string

const (
	StateChallenged State = "PAYMENT_CHALLENGED"
	StateDelivered  State = "DELIVERED"
)

// ChallengeReason is sent when a priced asset is requested without proof
const ChallengeReason = "X-PAYMENT header is required"

// AssetSource is the read side of the asset service
type AssetSource interface {
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	LoadContent(ctx context.Context, asset *models.Asset) ([]byte, error)
}

// Verifier is the external facilitator
type Verifier interface {
	Verify(ctx context.Context, proof json.RawMessage, req payment.PaymentRequirements) (*payment.VerifyResponse, error)
	Settle(ctx context.Context, proof json.RawMessage, req payment.PaymentRequirements) (*payment.SettleResponse, error)
}

// TransactionRecorder appends to the delivery ledger
type TransactionRecorder interface {
	RecordTransaction(ctx context.Context, req models.TransactionRequest) error
}

// ExemptionRule marks priced assets that are nevertheless delivered free
type ExemptionRule interface {
	Exempt(asset *models.Asset) (bool, error)
}

// Request is one delivery attempt
type Request struct {
	AssetID string
	// Proof is the raw X-PAYMENT value (base64 JSON); empty when absent
	Proof string
	// Resource identifies the paid resource in the requirement. Defaults
	// to the content endpoint of the asset.
	Resource string
}

// Outcome is the non-error result of Deliver. Rejections are errors.
type Outcome struct {
	State           State
	Asset           *models.Asset
	Content         []byte
	PaymentRequired *payment.PaymentRequired
	Settlement      *payment.SettleResponse
	Paid            bool
}

// Options configures a Gate
type Options struct {
	Mode         string
	PayTo        string
	Settle       bool
	Requirements payment.RequirementBuilder
}

// Gate releases asset content only after the facilitator has verified a
// payment for it. It owns no storage.
type Gate struct {
	assets   AssetSource
	verifier Verifier
	recorder TransactionRecorder
	exempt   ExemptionRule
	log      *logger.Logger

	mode   string
	payTo  string
	settle bool
	reqs   payment.RequirementBuilder
	now    func() time.Time
}

// New creates a gate. verifier may be nil only in disabled mode; recorder
// and exempt may be nil.
func New(assets AssetSource, verifier Verifier, recorder TransactionRecorder, exempt ExemptionRule, log *logger.Logger, opts Options) (*Gate, error) {
	switch opts.Mode {
	case config.PaymentModeAlways, config.PaymentModePriced, config.PaymentModeDisabled:
	case "":
		opts.Mode = config.PaymentModePriced
	default:
		return nil, fmt.Errorf("unknown payment mode: %s", opts.Mode)
	}

	if verifier == nil && opts.Mode != config.PaymentModeDisabled {
		return nil, fmt.Errorf("payment mode %s requires a facilitator", opts.Mode)
	}

	return &Gate{
		assets:   assets,
		verifier: verifier,
		recorder: recorder,
		exempt:   exempt,
		log:      log,
		mode:     opts.Mode,
		payTo:    opts.PayTo,
		settle:   opts.Settle,
		reqs:     opts.Requirements,
		now:      time.Now,
	}, nil
}

// Mode returns the enforced payment mode
func (g *Gate) Mode() string {
	return g.mode
}

// AllowsInlineBypass reports whether trusted inline retrieval may skip
// the gate. It never may when payment is always required.
func (g *Gate) AllowsInlineBypass() bool {
	return g.mode != config.PaymentModeAlways
}

// Info returns the metadata view of an asset without touching the gate
func (g *Gate) Info(ctx context.Context, id string) (*models.Asset, error) {
	asset, err := g.assets.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return asset.MetadataView(), nil
}

// Deliver runs one request through the gate
func (g *Gate) Deliver(ctx context.Context, req Request) (*Outcome, error) {
	log := g.log.WithContext(ctx).WithAssetID(req.AssetID)

	asset, err := g.assets.GetAsset(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}

	if asset.Price.IsNegative() {
		return nil, apperrors.Newf(apperrors.ErrInvalidPrice, "asset %s has invalid price %s", asset.ID, asset.Price)
	}

	if g.isFree(asset, log) {
		content, err := g.assets.LoadContent(ctx, asset)
		if err != nil {
			return nil, err
		}
		log.Debug("delivered free asset")
		return &Outcome{State: StateDelivered, Asset: asset, Content: content}, nil
	}

	resource := req.Resource
	if resource == "" {
		resource = "/api/assets/" + asset.ID.String() + "/content"
	}
	requirement := g.reqs.Build(asset, resource, g.payee(asset))

	if strings.TrimSpace(req.Proof) == "" {
		log.Info("payment required", "amount", requirement.MaxAmountRequired, "pay_to", requirement.PayTo)
		return &Outcome{
			State:           StateChallenged,
			PaymentRequired: payment.Challenge(requirement, ChallengeReason),
		}, nil
	}

	proof, err := payment.DecodeProof(req.Proof)
	if err != nil {
		return nil, err
	}

	verification, err := g.verifier.Verify(ctx, proof, requirement)
	if err != nil {
		return nil, err
	}
	if !verification.IsValid {
		reason := verification.InvalidReason
		if reason == "" {
			reason = "payment verification failed"
		}
		log.Warn("payment rejected", "reason", reason, "payer", verification.Payer)
		return nil, apperrors.New(apperrors.ErrPaymentInvalid, reason).WithDetails(map[string]any{
			"x402Version": payment.X402Version,
			"accepts":     []payment.PaymentRequirements{requirement},
		})
	}

	// Content is loaded before settling so a buyer is never charged for
	// something that cannot be delivered.
	content, err := g.assets.LoadContent(ctx, asset)
	if err != nil {
		return nil, err
	}

	var settlement *payment.SettleResponse
	if g.settle {
		settlement = g.trySettle(ctx, log, proof, requirement)
	}

	g.record(ctx, log, asset, requirement, verification, settlement)

	log.Info("delivered paid asset", "payer", verification.Payer, "amount", requirement.MaxAmountRequired)

	return &Outcome{
		State:      StateDelivered,
		Asset:      asset,
		Content:    content,
		Settlement: settlement,
		Paid:       true,
	}, nil
}

func (g *Gate) isFree(asset *models.Asset, log *logger.Logger) bool {
	if g.mode == config.PaymentModeDisabled || asset.IsFree() {
		return true
	}
	if g.exempt == nil {
		return false
	}
	exempt, err := g.exempt.Exempt(asset)
	if err != nil {
		log.Warn("free access rule failed, requiring payment", "error", err)
		return false
	}
	return exempt
}

func (g *Gate) payee(asset *models.Asset) string {
	if g.payTo != "" {
		return g.payTo
	}
	if asset.Creator != nil {
		return asset.Creator.WalletAddress
	}
	return ""
}

func (g *Gate) trySettle(ctx context.Context, log *logger.Logger, proof json.RawMessage, requirement payment.PaymentRequirements) *payment.SettleResponse {
	settlement, err := g.verifier.Settle(ctx, proof, requirement)
	if err != nil {
		log.Warn("settlement failed", "error", err)
		return nil
	}
	if !settlement.Success {
		log.Warn("settlement rejected", "reason", settlement.ErrorReason)
	}
	return settlement
}

// record appends the ledger entry. Failures never affect delivery.
func (g *Gate) record(ctx context.Context, log *logger.Logger, asset *models.Asset, requirement payment.PaymentRequirements, verification *payment.VerifyResponse, settlement *payment.SettleResponse) {
	if g.recorder == nil {
		return
	}

	payer := verification.Payer
	txHash := ""
	if settlement != nil {
		if payer == "" {
			payer = settlement.Payer
		}
		txHash = settlement.Transaction
	}
	if payer == "" {
		payer = "unknown"
	}

	payee := ""
	if asset.Creator != nil {
		payee = asset.Creator.WalletAddress
	}
	if payee == "" {
		payee = requirement.PayTo
	}
	if payee == "" {
		payee = "platform"
	}

	metadata := map[string]any{
		"deliveredAt": g.now().UTC().Format(time.RFC3339),
		"network":     requirement.Network,
	}
	if txHash != "" {
		metadata["transaction"] = txHash
	}

	err := g.recorder.RecordTransaction(ctx, models.TransactionRequest{
		AssetID:  asset.ID.String(),
		Payer:    payer,
		Payee:    payee,
		Amount:   asset.Price,
		Currency: g.reqs.Currency,
		Status:   models.TransactionCompleted,
		Metadata: metadata,
	})
	if err != nil {
		log.Warn("failed to record transaction", "error", err)
	}
}
