package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/poseidon/assetmarket/common/db"
	"github.com/poseidon/assetmarket/common/models"
)

// TransactionRepository handles database operations for transactions
type TransactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *db.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction record
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO asset_transaction (id, asset_id, payer, payee, amount, currency, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.AssetID,
		tx.Payer,
		tx.Payee,
		tx.Amount,
		tx.Currency,
		tx.Status,
		tx.Metadata,
		tx.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// ListByAsset returns transactions for an asset, newest first
func (r *TransactionRepository) ListByAsset(ctx context.Context, assetID uuid.UUID, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, asset_id, payer, payee, amount, currency, status, metadata, created_at
		FROM asset_transaction
		WHERE asset_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*models.Transaction, 0)
	for rows.Next() {
		tx := &models.Transaction{}
		err := rows.Scan(
			&tx.ID,
			&tx.AssetID,
			&tx.Payer,
			&tx.Payee,
			&tx.Amount,
			&tx.Currency,
			&tx.Status,
			&tx.Metadata,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}
