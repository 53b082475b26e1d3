package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/db"
	"github.com/poseidon/assetmarket/common/models"
)

// CreatorRepository handles database operations for creators
type CreatorRepository struct {
	db *db.DB
}

// NewCreatorRepository creates a new creator repository
func NewCreatorRepository(db *db.DB) *CreatorRepository {
	return &CreatorRepository{db: db}
}

// Create inserts a new creator. Unique violations come back as
// ErrWalletTaken or ErrDuplicateID so callers can tell them apart.
func (r *CreatorRepository) Create(ctx context.Context, creator *models.Creator) error {
	query := `
		INSERT INTO creator (id, name, wallet_address, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		creator.ID,
		creator.Name,
		creator.WalletAddress,
		creator.Email,
		creator.CreatedAt,
	)

	if constraint, ok := uniqueViolation(err); ok {
		if strings.Contains(constraint, "wallet") {
			return fmt.Errorf("failed to create creator: %w", ErrWalletTaken)
		}
		return fmt.Errorf("failed to create creator: %w", ErrDuplicateID)
	}
	if err != nil {
		return fmt.Errorf("failed to create creator: %w", err)
	}

	return nil
}

// GetByID retrieves a creator by id
func (r *CreatorRepository) GetByID(ctx context.Context, id string) (*models.Creator, error) {
	query := `
		SELECT id, name, wallet_address, email, created_at
		FROM creator
		WHERE id = $1
	`

	creator := &models.Creator{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&creator.ID,
		&creator.Name,
		&creator.WalletAddress,
		&creator.Email,
		&creator.CreatedAt,
	)

	if isNoRows(err) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "creator %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}

	return creator, nil
}

// GetByWallet retrieves a creator by wallet address
func (r *CreatorRepository) GetByWallet(ctx context.Context, wallet string) (*models.Creator, error) {
	query := `
		SELECT id, name, wallet_address, email, created_at
		FROM creator
		WHERE wallet_address = $1
	`

	creator := &models.Creator{}
	err := r.db.QueryRow(ctx, query, wallet).Scan(
		&creator.ID,
		&creator.Name,
		&creator.WalletAddress,
		&creator.Email,
		&creator.CreatedAt,
	)

	if isNoRows(err) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "no creator with wallet %s", wallet)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get creator by wallet: %w", err)
	}

	return creator, nil
}
