package models

import "time"

// Creator owns assets and receives payments for them.
// Maps to: creator table
type Creator struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	WalletAddress string    `db:"wallet_address" json:"walletAddress"`
	Email         *string   `db:"email" json:"email,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Summary returns the embedded form used in asset responses
func (c *Creator) Summary() *CreatorSummary {
	return &CreatorSummary{
		ID:            c.ID,
		Name:          c.Name,
		WalletAddress: c.WalletAddress,
	}
}
