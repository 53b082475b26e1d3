package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/service/servicetest"
)

func newTransactionService(store *servicetest.TransactionStore) *TransactionService {
	svc := NewTransactionService(store, logger.Discard())
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestRecord_DefaultsAndMerge(t *testing.T) {
	store := servicetest.NewTransactionStore()
	svc := newTransactionService(store)
	assetID := uuid.New()

	tx, err := svc.Record(context.Background(), models.TransactionRequest{
		AssetID: assetID.String(),
		Payer:   "buyer",
		Payee:   "seller",
		Amount:  decimal.RequireFromString("0.000001"),
		Metadata: map[string]any{
			"deliveredAt": "2026-01-02T03:04:05Z",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "USDC", tx.Currency)
	assert.Equal(t, models.TransactionCompleted, tx.Status)
	assert.Equal(t, assetID, tx.AssetID)
	assert.Equal(t, "2026-01-02T03:04:05Z", tx.Metadata["recordedAt"])
	assert.Equal(t, "2026-01-02T03:04:05Z", tx.Metadata["deliveredAt"])
	require.Len(t, store.All(), 1)
}

func TestRecord_MetadataNullRemovesDefault(t *testing.T) {
	svc := newTransactionService(servicetest.NewTransactionStore())

	tx, err := svc.Record(context.Background(), models.TransactionRequest{
		AssetID:  uuid.NewString(),
		Payer:    "a",
		Payee:    "b",
		Metadata: map[string]any{"recordedAt": nil, "note": "x"},
	})
	require.NoError(t, err)
	_, has := tx.Metadata["recordedAt"]
	assert.False(t, has)
	assert.Equal(t, "x", tx.Metadata["note"])
}

func TestRecord_Validation(t *testing.T) {
	svc := newTransactionService(servicetest.NewTransactionStore())

	tests := []models.TransactionRequest{
		{AssetID: "nope", Payer: "a", Payee: "b"},
		{AssetID: uuid.NewString(), Payer: "", Payee: "b"},
		{AssetID: uuid.NewString(), Payer: "a", Payee: "b", Amount: decimal.NewFromInt(-1)},
	}
	for _, req := range tests {
		_, err := svc.Record(context.Background(), req)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	}
}

func TestRecordTransaction_StoreFailure(t *testing.T) {
	svc := newTransactionService(&servicetest.TransactionStore{Err: errors.New("db down")})

	err := svc.RecordTransaction(context.Background(), models.TransactionRequest{
		AssetID: uuid.NewString(), Payer: "a", Payee: "b",
	})
	assert.Error(t, err)
}

func TestListByAsset(t *testing.T) {
	store := servicetest.NewTransactionStore()
	svc := newTransactionService(store)
	assetID := uuid.New()

	_, err := svc.Record(context.Background(), models.TransactionRequest{AssetID: assetID.String(), Payer: "a", Payee: "b"})
	require.NoError(t, err)

	txs, err := svc.ListByAsset(context.Background(), assetID.String())
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	_, err = svc.ListByAsset(context.Background(), "bad")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
