package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/repository"
)

// CreatorService handles creator lookup and provisioning
type CreatorService struct {
	repo          CreatorStore
	log           *logger.Logger
	autoProvision bool
}

// NewCreatorService creates a new creator service
func NewCreatorService(repo CreatorStore, log *logger.Logger, autoProvision bool) *CreatorService {
	return &CreatorService{
		repo:          repo,
		log:           log,
		autoProvision: autoProvision,
	}
}

// CreateCreatorInput is the payload for explicit creator registration
type CreateCreatorInput struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	WalletAddress string  `json:"walletAddress"`
	Email         *string `json:"email"`
}

// Get returns a creator by id
func (s *CreatorService) Get(ctx context.Context, id string) (*models.Creator, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a creator explicitly
func (s *CreatorService) Create(ctx context.Context, in CreateCreatorInput) (*models.Creator, error) {
	name := strings.TrimSpace(in.Name)
	wallet := strings.TrimSpace(in.WalletAddress)
	if name == "" || wallet == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "name and walletAddress are required")
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	creator := &models.Creator{
		ID:            id,
		Name:          name,
		WalletAddress: wallet,
		Email:         in.Email,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, creator); err != nil {
		switch {
		case errors.Is(err, repository.ErrWalletTaken):
			return nil, apperrors.New(apperrors.ErrConflict, "wallet address already registered")
		case errors.Is(err, repository.ErrDuplicateID):
			return nil, apperrors.New(apperrors.ErrConflict, "creator id already exists")
		}
		return nil, fmt.Errorf("failed to create creator: %w", err)
	}

	s.log.Info("created creator", "creator_id", creator.ID)
	return creator, nil
}

// Resolve finds the creator for an upload. An unknown id together with a
// wallet provisions a placeholder creator under that id; an unknown id
// without a wallet is a CreatorResolution error.
func (s *CreatorService) Resolve(ctx context.Context, creatorID, wallet string) (*models.Creator, error) {
	creator, isNew, err := s.lookup(ctx, creatorID, wallet)
	if err != nil || !isNew {
		return creator, err
	}
	return s.provision(ctx, creator)
}

// lookup returns the existing creator, or an unsaved placeholder when the id
// is unknown and may be provisioned. Nothing is written.
func (s *CreatorService) lookup(ctx context.Context, creatorID, wallet string) (*models.Creator, bool, error) {
	creatorID = strings.TrimSpace(creatorID)
	wallet = strings.TrimSpace(wallet)

	creator, err := s.repo.GetByID(ctx, creatorID)
	if err == nil {
		return creator, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up creator: %w", err)
	}

	if wallet == "" {
		return nil, false, apperrors.New(apperrors.ErrCreatorResolution, "invalid creatorId")
	}
	if !s.autoProvision {
		return nil, false, apperrors.New(apperrors.ErrCreatorResolution, "unknown creatorId and creator provisioning is disabled")
	}

	return &models.Creator{
		ID:            creatorID,
		Name:          placeholderName(creatorID),
		WalletAddress: wallet,
		CreatedAt:     time.Now().UTC(),
	}, true, nil
}

func (s *CreatorService) provision(ctx context.Context, creator *models.Creator) (*models.Creator, error) {
	if err := s.repo.Create(ctx, creator); err != nil {
		// a concurrent upload may have provisioned the same id
		if errors.Is(err, repository.ErrDuplicateID) {
			if existing, getErr := s.repo.GetByID(ctx, creator.ID); getErr == nil {
				return existing, nil
			}
		}
		s.log.Warn("failed to provision creator", "creator_id", creator.ID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrUserProvisioning, "Failed to create new user", err)
	}

	s.log.Info("auto-provisioned creator", "creator_id", creator.ID, "wallet", creator.WalletAddress)
	return creator, nil
}

func placeholderName(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "User-" + id
}
