package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/cache"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/storage"
	"github.com/poseidon/assetmarket/common/validation"
)

// AssetService mediates between transports and the asset store
type AssetService struct {
	repo     AssetStore
	creators *CreatorService
	blobs    storage.Store
	urls     *validation.URLValidator
	log      *logger.Logger

	tagCache cache.Cache
	tagTTL   time.Duration

	defaultPageSize int
	maxPageSize     int
	maxUploadBytes  int64
}

// tagsCacheKey holds the sorted tag list
const tagsCacheKey = "tags"

// AssetServiceOptions holds listing and upload bounds
type AssetServiceOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxUploadBytes  int64

	// TagCache, when set, holds ListTags results for TagTTL. Every
	// CreateAsset drops the entry.
	TagCache cache.Cache
	TagTTL   time.Duration
}

// NewAssetService creates a new asset service
func NewAssetService(repo AssetStore, creators *CreatorService, blobs storage.Store, log *logger.Logger, opts AssetServiceOptions) *AssetService {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 100
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	if opts.TagTTL <= 0 {
		opts.TagTTL = time.Minute
	}
	return &AssetService{
		repo:            repo,
		creators:        creators,
		blobs:           blobs,
		urls:            validation.NewURLValidator(),
		log:             log,
		tagCache:        opts.TagCache,
		tagTTL:          opts.TagTTL,
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
		maxUploadBytes:  opts.MaxUploadBytes,
	}
}

// Page resolves zero-based page/pageSize into a bounded filter
func (s *AssetService) Page(query, tag string, page, pageSize int) (models.ListFilter, int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return models.ListFilter{
		Query:  query,
		Tag:    tag,
		Offset: page * pageSize,
		Limit:  pageSize,
	}, page, pageSize
}

// ListAssets returns assets newest first
func (s *AssetService) ListAssets(ctx context.Context, filter models.ListFilter) ([]*models.Asset, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// GetAsset returns the full asset record. Ids that are not UUIDs cannot
// exist, so they are reported as not found.
func (s *AssetService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	assetID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "asset %s not found", id)
	}
	return s.repo.GetByID(ctx, assetID)
}

// ListTags returns all distinct tags, sorted. Cache errors fall through
// to the store.
func (s *AssetService) ListTags(ctx context.Context) ([]string, error) {
	if s.tagCache != nil {
		if raw, ok, err := s.tagCache.Get(ctx, tagsCacheKey); err != nil {
			s.log.Warn("tag cache read failed", "error", err)
		} else if ok {
			var tags []string
			if err := json.Unmarshal(raw, &tags); err == nil {
				return tags, nil
			}
		}
	}

	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	if s.tagCache != nil {
		raw, _ := json.Marshal(tags)
		if err := s.tagCache.Set(ctx, tagsCacheKey, raw, s.tagTTL); err != nil {
			s.log.Warn("tag cache write failed", "error", err)
		}
	}
	return tags, nil
}

// LoadContent returns the stored bytes of an asset. LINK assets have none.
func (s *AssetService) LoadContent(ctx context.Context, asset *models.Asset) ([]byte, error) {
	if asset.Type.IsLink() || asset.StorageKey == nil {
		return nil, nil
	}
	data, err := s.blobs.Get(ctx, *asset.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load content for asset %s: %w", asset.ID, err)
	}
	return data, nil
}

// WithInlineContent returns a copy of asset with Base64Data populated
func (s *AssetService) WithInlineContent(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	data, err := s.LoadContent(ctx, asset)
	if err != nil {
		return nil, err
	}
	cp := *asset
	if data != nil {
		cp.Base64Data = base64.StdEncoding.EncodeToString(data)
	}
	return &cp, nil
}

// CreateAssetInput is a normalized upload from any transport
type CreateAssetInput struct {
	Title         string
	Description   string
	AssetType     string
	Price         string
	Tags          []string
	URL           string
	Content       []byte
	HasContent    bool
	OriginalName  string
	MimeType      string
	CreatorID     string
	CreatorWallet string
	Metadata      map[string]any
}

// CreateAsset validates an upload, resolves its creator, stores its content
// and persists the record. An unknown creator is only provisioned once the
// content is stored, so a rejected upload leaves no creator behind.
func (s *AssetService) CreateAsset(ctx context.Context, in CreateAssetInput) (*models.Asset, error) {
	creatorID := strings.TrimSpace(in.CreatorID)
	if creatorID == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "creatorId is required")
	}

	kind, err := s.resolveKind(in)
	if err != nil {
		return nil, err
	}

	var linkURL string
	if kind.IsLink() {
		linkURL = strings.TrimSpace(in.URL)
		if linkURL == "" {
			return nil, apperrors.New(apperrors.ErrValidation, "url is required for LINK assets")
		}
		if err := s.urls.Validate(linkURL); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid url", err)
		}
		if len(in.Content) > 0 {
			return nil, apperrors.New(apperrors.ErrValidation, "LINK assets cannot carry a file")
		}
	} else {
		if len(in.Content) == 0 {
			if in.HasContent {
				return nil, apperrors.New(apperrors.ErrValidation, "file is empty")
			}
			return nil, apperrors.New(apperrors.ErrValidation, "file is required")
		}
		if s.maxUploadBytes > 0 && int64(len(in.Content)) > s.maxUploadBytes {
			return nil, apperrors.Newf(apperrors.ErrValidation, "file exceeds %d bytes", s.maxUploadBytes)
		}
	}

	creator, isNew, err := s.creators.lookup(ctx, creatorID, in.CreatorWallet)
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		ID:          uuid.New(),
		Title:       titleFor(in),
		Description: strings.TrimSpace(in.Description),
		Type:        kind,
		Price:       ParsePrice(in.Price),
		Tags:        NormalizeTags(in.Tags),
		Metadata:    in.Metadata,
		CreatorID:   creator.ID,
		CreatedAt:   time.Now().UTC(),
	}

	if kind.IsLink() {
		asset.URL = &linkURL
		asset.MimeType = "text/uri-list"
	} else {
		mimeType := contentType(in)

		key, err := s.blobs.Put(ctx, in.Content, mimeType)
		if err != nil {
			return nil, fmt.Errorf("failed to store asset content: %w", err)
		}

		asset.StorageKey = &key
		asset.Filename = asset.ID.String() + strings.ToLower(filepath.Ext(in.OriginalName))
		asset.OriginalName = strings.TrimSpace(in.OriginalName)
		asset.MimeType = mimeType
		asset.Size = int64(len(in.Content))
	}

	if isNew {
		if creator, err = s.creators.provision(ctx, creator); err != nil {
			return nil, err
		}
		asset.CreatorID = creator.ID
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	if s.tagCache != nil {
		if err := s.tagCache.Delete(ctx, tagsCacheKey); err != nil {
			s.log.Warn("tag cache invalidation failed", "error", err)
		}
	}

	asset.Creator = creator.Summary()

	s.log.Info("created asset",
		"asset_id", asset.ID,
		"type", asset.Type,
		"creator_id", creator.ID,
		"price", asset.Price.String(),
	)

	return asset, nil
}

// resolveKind prefers an explicit type and otherwise infers one: a URL
// without content is a link, anything else follows the MIME type.
func (s *AssetService) resolveKind(in CreateAssetInput) (models.AssetKind, error) {
	if strings.TrimSpace(in.AssetType) != "" {
		kind, ok := models.ParseKind(in.AssetType)
		if !ok {
			return "", apperrors.Newf(apperrors.ErrValidation, "unknown assetType %q", in.AssetType)
		}
		return kind, nil
	}

	if strings.TrimSpace(in.URL) != "" && len(in.Content) == 0 {
		return models.KindLink, nil
	}

	return models.KindFromMimeType(contentType(in)), nil
}

// contentType is the declared MIME type, or the sniffed one when the client
// sent none or the generic multipart default.
func contentType(in CreateAssetInput) string {
	mimeType := strings.TrimSpace(in.MimeType)
	if len(in.Content) > 0 && (mimeType == "" || strings.EqualFold(mimeType, "application/octet-stream")) {
		return http.DetectContentType(in.Content)
	}
	return mimeType
}

func titleFor(in CreateAssetInput) string {
	if t := strings.TrimSpace(in.Title); t != "" {
		return t
	}
	if n := strings.TrimSpace(in.OriginalName); n != "" {
		return n
	}
	return "Untitled"
}
