package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
)

const (
	defaultCurrency = "USDC"
	listLimit       = 100
)

// TransactionService keeps the best-effort delivery ledger
type TransactionService struct {
	repo TransactionStore
	log  *logger.Logger
	now  func() time.Time
}

// NewTransactionService creates a new transaction service
func NewTransactionService(repo TransactionStore, log *logger.Logger) *TransactionService {
	return &TransactionService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Record validates and stores a transaction. Caller metadata is merged
// over server defaults as an RFC 7386 merge patch, so a caller can
// override or remove (with null) a default key.
func (s *TransactionService) Record(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error) {
	assetID, err := uuid.Parse(strings.TrimSpace(req.AssetID))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrValidation, "assetId must be a UUID")
	}
	if req.Amount.IsNegative() {
		return nil, apperrors.New(apperrors.ErrValidation, "amount must not be negative")
	}
	if strings.TrimSpace(req.Payer) == "" || strings.TrimSpace(req.Payee) == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "payer and payee are required")
	}

	now := s.now().UTC()

	metadata, err := mergeMetadata(map[string]any{"recordedAt": now.Format(time.RFC3339)}, req.Metadata)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid metadata", err)
	}

	tx := &models.Transaction{
		ID:        uuid.New(),
		AssetID:   assetID,
		Payer:     req.Payer,
		Payee:     req.Payee,
		Amount:    req.Amount,
		Currency:  orDefault(req.Currency, defaultCurrency),
		Status:    orDefault(req.Status, models.TransactionCompleted),
		Metadata:  metadata,
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.log.Info("recorded transaction",
		"transaction_id", tx.ID,
		"asset_id", tx.AssetID,
		"amount", tx.Amount.String(),
		"currency", tx.Currency,
	)

	return tx, nil
}

// RecordTransaction lets the delivery gate log through this service
func (s *TransactionService) RecordTransaction(ctx context.Context, req models.TransactionRequest) error {
	_, err := s.Record(ctx, req)
	return err
}

// ListByAsset returns the most recent transactions for an asset
func (s *TransactionService) ListByAsset(ctx context.Context, assetID string) ([]*models.Transaction, error) {
	id, err := uuid.Parse(strings.TrimSpace(assetID))
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "asset %s not found", assetID)
	}
	return s.repo.ListByAsset(ctx, id, listLimit)
}

func mergeMetadata(defaults, overrides map[string]any) (map[string]any, error) {
	base, err := json.Marshal(defaults)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return defaults, nil
	}

	patch, err := json.Marshal(overrides)
	if err != nil {
		return nil, err
	}

	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
