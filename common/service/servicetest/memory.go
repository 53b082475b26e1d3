// Package servicetest provides in-memory stores for tests of the service
// layer and the transports built on it.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/repository"
)

// AssetStore is an in-memory service.AssetStore
type AssetStore struct {
	mu     sync.Mutex
	assets []*models.Asset
	calls  int

	// Creators, when set, fills Asset.Creator on reads the way the
	// repository join does.
	Creators *CreatorStore
}

// NewAssetStore returns an empty store
func NewAssetStore() *AssetStore {
	return &AssetStore{}
}

func (s *AssetStore) Create(ctx context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	cp := *asset
	cp.Creator = nil
	s.assets = append(s.assets, &cp)
	return nil
}

func (s *AssetStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, a := range s.assets {
		if a.ID == id {
			return s.withCreator(ctx, a), nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrNotFound, "asset %s not found", id)
}

func (s *AssetStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	q := strings.ToLower(filter.Query)
	out := make([]*models.Asset, 0)
	for _, a := range s.assets {
		text := strings.ToLower(a.Title + " " + a.Description + " " + a.OriginalName + " " + a.Filename)
		if q != "" && !strings.Contains(text, q) {
			continue
		}
		if filter.Tag != "" && !contains(a.Tags, filter.Tag) {
			continue
		}
		out = append(out, s.withCreator(ctx, a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return []*models.Asset{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *AssetStore) ListTags(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	set := map[string]struct{}{}
	for _, a := range s.assets {
		for _, t := range a.Tags {
			set[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *AssetStore) withCreator(ctx context.Context, a *models.Asset) *models.Asset {
	cp := *a
	if s.Creators != nil {
		if c, err := s.Creators.GetByID(ctx, a.CreatorID); err == nil {
			cp.Creator = c.Summary()
		}
	}
	return &cp
}

// Put inserts an asset directly, bypassing the service
func (s *AssetStore) Put(asset *models.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *asset
	s.assets = append(s.assets, &cp)
}

// Count returns the number of stored assets
func (s *AssetStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

// Calls returns the number of store operations performed
func (s *AssetStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// CreatorStore is an in-memory service.CreatorStore that enforces the
// id and wallet uniqueness of the creator table.
type CreatorStore struct {
	mu       sync.Mutex
	creators map[string]*models.Creator

	// CreateErr, when set, is returned by every Create
	CreateErr error
}

// NewCreatorStore returns a store holding creators
func NewCreatorStore(creators ...*models.Creator) *CreatorStore {
	s := &CreatorStore{creators: map[string]*models.Creator{}}
	for _, c := range creators {
		cp := *c
		s.creators[c.ID] = &cp
	}
	return s
}

func (s *CreatorStore) Create(ctx context.Context, c *models.Creator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.creators[c.ID]; ok {
		return fmt.Errorf("failed to create creator: %w", repository.ErrDuplicateID)
	}
	for _, existing := range s.creators {
		if existing.WalletAddress == c.WalletAddress {
			return fmt.Errorf("failed to create creator: %w", repository.ErrWalletTaken)
		}
	}
	cp := *c
	s.creators[c.ID] = &cp
	return nil
}

func (s *CreatorStore) GetByID(ctx context.Context, id string) (*models.Creator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.creators[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperrors.Newf(apperrors.ErrNotFound, "creator %s not found", id)
}

func (s *CreatorStore) GetByWallet(ctx context.Context, wallet string) (*models.Creator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creators {
		if c.WalletAddress == wallet {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrNotFound, "no creator with wallet %s", wallet)
}

// TransactionStore is an in-memory service.TransactionStore
type TransactionStore struct {
	mu  sync.Mutex
	txs []*models.Transaction

	// Err, when set, is returned by every Create
	Err error
}

// NewTransactionStore returns an empty store
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

func (s *TransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.txs = append(s.txs, tx)
	return nil
}

func (s *TransactionStore) ListByAsset(ctx context.Context, assetID uuid.UUID, limit int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Transaction, 0)
	for i := len(s.txs) - 1; i >= 0; i-- {
		if s.txs[i].AssetID == assetID {
			out = append(out, s.txs[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// All returns every recorded transaction in insertion order
func (s *TransactionStore) All() []*models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Transaction(nil), s.txs...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
