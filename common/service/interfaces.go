package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/poseidon/assetmarket/common/models"
)

// AssetStore is the persistence the asset service needs.
// *repository.AssetRepository satisfies it.
type AssetStore interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Asset, error)
	ListTags(ctx context.Context) ([]string, error)
}

// CreatorStore is satisfied by *repository.CreatorRepository
type CreatorStore interface {
	Create(ctx context.Context, creator *models.Creator) error
	GetByID(ctx context.Context, id string) (*models.Creator, error)
	GetByWallet(ctx context.Context, wallet string) (*models.Creator, error)
}

// TransactionStore is satisfied by *repository.TransactionRepository
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ListByAsset(ctx context.Context, assetID uuid.UUID, limit int) ([]*models.Transaction, error)
}
