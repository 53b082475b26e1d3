package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	TransactionCompleted = "completed"
	TransactionPending   = "pending"
	TransactionFailed    = "failed"
)

// Transaction is an audit record of a paid delivery. Best effort only:
// a missing row never means the buyer did not receive the asset.
// Maps to: asset_transaction table
type Transaction struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	AssetID   uuid.UUID       `db:"asset_id" json:"assetId"`
	Payer     string          `db:"payer" json:"payer"`
	Payee     string          `db:"payee" json:"payee"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Currency  string          `db:"currency" json:"currency"`
	Status    string          `db:"status" json:"status"`
	Metadata  map[string]any  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// TransactionRequest is the payload accepted by the transaction log
// endpoint and produced by the delivery gate.
type TransactionRequest struct {
	AssetID  string          `json:"assetId"`
	Payer    string          `json:"payer"`
	Payee    string          `json:"payee"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}
