package gate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/config"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/payment"
)

type fakeAssets struct {
	assets  map[string]*models.Asset
	content map[string][]byte
	loadErr error
}

func (f *fakeAssets) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	if a, ok := f.assets[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, apperrors.Newf(apperrors.ErrNotFound, "asset %s not found", id)
}

func (f *fakeAssets) LoadContent(ctx context.Context, asset *models.Asset) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.content[asset.ID.String()], nil
}

type fakeVerifier struct {
	verify      *payment.VerifyResponse
	verifyErr   error
	settle      *payment.SettleResponse
	settleErr   error
	verifyCalls int
	settleCalls int
	lastReq     payment.PaymentRequirements
}

func (f *fakeVerifier) Verify(ctx context.Context, proof json.RawMessage, req payment.PaymentRequirements) (*payment.VerifyResponse, error) {
	f.verifyCalls++
	f.lastReq = req
	return f.verify, f.verifyErr
}

func (f *fakeVerifier) Settle(ctx context.Context, proof json.RawMessage, req payment.PaymentRequirements) (*payment.SettleResponse, error) {
	f.settleCalls++
	return f.settle, f.settleErr
}

type fakeRecorder struct {
	calls []models.TransactionRequest
	err   error
}

func (f *fakeRecorder) RecordTransaction(ctx context.Context, req models.TransactionRequest) error {
	f.calls = append(f.calls, req)
	return f.err
}

type exemptAll struct{ err error }

func (e exemptAll) Exempt(asset *models.Asset) (bool, error) {
	return e.err == nil, e.err
}

const creatorWallet = "0xA1b2C3d4E5F6a7B8C9D0E1F2A3B4C5D6E7F8A9B0"

func newAsset(price string) *models.Asset {
	key := "sha256:abc"
	return &models.Asset{
		ID:         uuid.New(),
		Title:      "Digital Sunrise",
		Type:       models.KindImage,
		MimeType:   "image/png",
		StorageKey: &key,
		Price:      decimal.RequireFromString(price),
		Tags:       []string{"art"},
		CreatorID:  "alice",
		Creator:    &models.CreatorSummary{ID: "alice", Name: "Alice", WalletAddress: creatorWallet},
	}
}

type harness struct {
	assets   *fakeAssets
	verifier *fakeVerifier
	recorder *fakeRecorder
	gate     *Gate
}

func newHarness(t *testing.T, mode string, exempt ExemptionRule, assets ...*models.Asset) *harness {
	t.Helper()

	h := &harness{
		assets: &fakeAssets{assets: map[string]*models.Asset{}, content: map[string][]byte{}},
		verifier: &fakeVerifier{
			verify: &payment.VerifyResponse{IsValid: true, Payer: "buyer-wallet"},
			settle: &payment.SettleResponse{Success: true, Transaction: "tx-1", Network: "solana-devnet"},
		},
		recorder: &fakeRecorder{},
	}
	for _, a := range assets {
		h.assets.assets[a.ID.String()] = a
		h.assets.content[a.ID.String()] = []byte("png-bytes")
	}

	g, err := New(h.assets, h.verifier, h.recorder, exempt, logger.Discard(), Options{
		Mode:   mode,
		Settle: true,
		Requirements: payment.RequirementBuilder{
			Network:        "solana-devnet",
			Asset:          "USDC-MINT",
			Decimals:       6,
			Currency:       "USDC",
			TimeoutSeconds: 60,
		},
	})
	require.NoError(t, err)
	h.gate = g
	return h
}

func proofHeader() string {
	return base64.StdEncoding.EncodeToString([]byte(`{"x402Version":1,"scheme":"exact","payload":{"signature":"sig"}}`))
}

func TestDeliver_FreeAssetNeverChallenged(t *testing.T) {
	asset := newAsset("0")
	h := newHarness(t, config.PaymentModePriced, nil, asset)

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, StateDelivered, out.State)
	assert.Nil(t, out.PaymentRequired)
	assert.Equal(t, []byte("png-bytes"), out.Content)
	assert.NotNil(t, out.Asset.StorageKey)
	assert.False(t, out.Paid)
	assert.Zero(t, h.verifier.verifyCalls)
	assert.Empty(t, h.recorder.calls)
}

func TestDeliver_DisabledModeDeliversPricedAsset(t *testing.T) {
	asset := newAsset("1.5")
	h := newHarness(t, config.PaymentModeDisabled, nil, asset)

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, out.State)
	assert.Zero(t, h.verifier.verifyCalls)
}

func TestDeliver_PricedAssetWithoutProofIsChallenged(t *testing.T) {
	asset := newAsset("0.000001")
	h := newHarness(t, config.PaymentModePriced, nil, asset)

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, StateChallenged, out.State)
	assert.Nil(t, out.Asset)
	assert.Nil(t, out.Content)
	require.NotNil(t, out.PaymentRequired)
	assert.Equal(t, payment.X402Version, out.PaymentRequired.X402Version)
	assert.Equal(t, ChallengeReason, out.PaymentRequired.Error)

	require.Len(t, out.PaymentRequired.Accepts, 1)
	req := out.PaymentRequired.Accepts[0]
	assert.Equal(t, "1", req.MaxAmountRequired)
	assert.Equal(t, creatorWallet, req.PayTo)
	assert.Equal(t, "/api/assets/"+asset.ID.String()+"/content", req.Resource)
	assert.Equal(t, "Access to asset: Digital Sunrise", req.Description)
	assert.Equal(t, "USDC-MINT", req.Asset)
	assert.Zero(t, h.verifier.verifyCalls)
}

func TestDeliver_PayToOverride(t *testing.T) {
	asset := newAsset("2")
	h := newHarness(t, config.PaymentModePriced, nil, asset)
	h.gate.payTo = "platform-wallet"

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Resource: "getAsset"})
	require.NoError(t, err)
	assert.Equal(t, "platform-wallet", out.PaymentRequired.Accepts[0].PayTo)
	assert.Equal(t, "getAsset", out.PaymentRequired.Accepts[0].Resource)
	assert.Equal(t, "2000000", out.PaymentRequired.Accepts[0].MaxAmountRequired)
}

func TestDeliver_InvalidProofRejected(t *testing.T) {
	asset := newAsset("1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)
	h.verifier.verify = &payment.VerifyResponse{IsValid: false, InvalidReason: "insufficient_funds"}

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Proof: proofHeader()})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentInvalid))

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "insufficient_funds", appErr.Message)
	assert.NotContains(t, err.Error(), "sha256:abc")

	assert.Zero(t, h.verifier.settleCalls)
	assert.Empty(t, h.recorder.calls)
}

func TestDeliver_MalformedProof(t *testing.T) {
	asset := newAsset("1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)

	_, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Proof: "%%% not base64"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPaymentProofFormat))
	assert.Zero(t, h.verifier.verifyCalls)
}

func TestDeliver_ValidProofDeliversAndRecordsOnce(t *testing.T) {
	asset := newAsset("0.000001")
	h := newHarness(t, config.PaymentModePriced, nil, asset)

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Proof: proofHeader()})
	require.NoError(t, err)

	assert.Equal(t, StateDelivered, out.State)
	assert.True(t, out.Paid)
	require.NotNil(t, out.Asset.StorageKey)
	assert.Equal(t, "sha256:abc", *out.Asset.StorageKey)
	assert.Equal(t, []byte("png-bytes"), out.Content)
	require.NotNil(t, out.Settlement)
	assert.Equal(t, "tx-1", out.Settlement.Transaction)

	assert.Equal(t, 1, h.verifier.verifyCalls)
	assert.Equal(t, 1, h.verifier.settleCalls)
	assert.Equal(t, "1", h.verifier.lastReq.MaxAmountRequired)

	require.Len(t, h.recorder.calls, 1)
	rec := h.recorder.calls[0]
	assert.Equal(t, asset.ID.String(), rec.AssetID)
	assert.Equal(t, "buyer-wallet", rec.Payer)
	assert.Equal(t, creatorWallet, rec.Payee)
	assert.Equal(t, "USDC", rec.Currency)
	assert.Equal(t, models.TransactionCompleted, rec.Status)
	assert.True(t, asset.Price.Equal(rec.Amount))
	assert.Equal(t, "tx-1", rec.Metadata["transaction"])
}

func TestDeliver_RecorderFailureDoesNotAffectDelivery(t *testing.T) {
	asset := newAsset("1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)
	h.recorder.err = errors.New("transaction endpoint not found")

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Proof: proofHeader()})
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, out.State)
	assert.Len(t, h.recorder.calls, 1)
}

func TestDeliver_SettlementFailureDoesNotRevertVerification(t *testing.T) {
	asset := newAsset("1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)
	h.verifier.settle = nil
	h.verifier.settleErr = apperrors.New(apperrors.ErrFacilitatorUnavailable, "down")

	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Proof: proofHeader()})
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, out.State)
	assert.Nil(t, out.Settlement)
	require.Len(t, h.recorder.calls, 1)
	assert.Equal(t, "buyer-wallet", h.recorder.calls[0].Payer)
}

func TestDeliver_ContentFailureSkipsSettlement(t *testing.T) {
	asset := newAsset("1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)
	h.assets.loadErr = errors.New("blob missing")

	_, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Proof: proofHeader()})
	require.Error(t, err)
	assert.Zero(t, h.verifier.settleCalls)
	assert.Empty(t, h.recorder.calls)
}

func TestDeliver_VerifierUnavailable(t *testing.T) {
	asset := newAsset("1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)
	h.verifier.verify = nil
	h.verifier.verifyErr = apperrors.New(apperrors.ErrFacilitatorUnavailable, "down")

	_, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String(), Proof: proofHeader()})
	assert.True(t, errors.Is(err, apperrors.ErrFacilitatorUnavailable))
	assert.Empty(t, h.recorder.calls)
}

func TestDeliver_NotFoundMakesNoFacilitatorCall(t *testing.T) {
	h := newHarness(t, config.PaymentModePriced, nil)

	_, err := h.gate.Deliver(context.Background(), Request{AssetID: uuid.NewString(), Proof: proofHeader()})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Zero(t, h.verifier.verifyCalls)
	assert.Zero(t, h.verifier.settleCalls)
}

func TestDeliver_NegativePrice(t *testing.T) {
	asset := newAsset("-1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)

	_, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String()})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPrice))
}

func TestDeliver_ExemptionRule(t *testing.T) {
	asset := newAsset("1")

	h := newHarness(t, config.PaymentModePriced, exemptAll{}, asset)
	out, err := h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, out.State)

	// a failing rule requires payment
	h = newHarness(t, config.PaymentModePriced, exemptAll{err: errors.New("boom")}, asset)
	out, err = h.gate.Deliver(context.Background(), Request{AssetID: asset.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, StateChallenged, out.State)
}

func TestInfo_StripsContentReference(t *testing.T) {
	asset := newAsset("1")
	h := newHarness(t, config.PaymentModePriced, nil, asset)

	info, err := h.gate.Info(context.Background(), asset.ID.String())
	require.NoError(t, err)
	assert.Nil(t, info.StorageKey)

	raw, err := json.Marshal(info)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "filePath")
	assert.Zero(t, h.verifier.verifyCalls)
}

func TestNew_Modes(t *testing.T) {
	_, err := New(&fakeAssets{}, nil, nil, nil, logger.Discard(), Options{Mode: config.PaymentModePriced})
	assert.Error(t, err)

	_, err = New(&fakeAssets{}, nil, nil, nil, logger.Discard(), Options{Mode: "sometimes"})
	assert.Error(t, err)

	g, err := New(&fakeAssets{}, nil, nil, nil, logger.Discard(), Options{Mode: config.PaymentModeDisabled})
	require.NoError(t, err)
	assert.True(t, g.AllowsInlineBypass())

	g, err = New(&fakeAssets{}, &fakeVerifier{}, nil, nil, logger.Discard(), Options{Mode: config.PaymentModeAlways})
	require.NoError(t, err)
	assert.False(t, g.AllowsInlineBypass())
}
