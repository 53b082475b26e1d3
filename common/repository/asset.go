package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/db"
	"github.com/poseidon/assetmarket/common/models"
)

// AssetRepository handles database operations for assets
type AssetRepository struct {
	db *db.DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *db.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `
	a.id, a.title, a.description, a.kind, a.filename, a.original_name,
	a.mime_type, a.size_bytes, a.storage_key, a.url, a.price, a.tags,
	a.metadata, a.creator_id, a.created_at,
	c.id, c.name, c.wallet_address
`

// Create inserts a new asset
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO asset (
			id, title, description, kind, filename, original_name,
			mime_type, size_bytes, storage_key, url, price, tags,
			metadata, creator_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	tags := asset.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.Exec(ctx, query,
		asset.ID,
		asset.Title,
		asset.Description,
		string(asset.Type),
		asset.Filename,
		asset.OriginalName,
		asset.MimeType,
		asset.Size,
		asset.StorageKey,
		asset.URL,
		asset.Price,
		tags,
		asset.Metadata,
		asset.CreatorID,
		asset.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// GetByID retrieves an asset with its creator summary
func (r *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + `
		FROM asset a
		JOIN creator c ON c.id = a.creator_id
		WHERE a.id = $1
	`

	asset, err := scanAsset(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "asset %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return asset, nil
}

// List returns assets newest first. id breaks ties so that pages are
// stable when several rows share a timestamp.
func (r *AssetRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.Asset, error) {
	var (
		conds []string
		args  []any
	)

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(a.title ILIKE $%d OR a.description ILIKE $%d OR a.original_name ILIKE $%d OR a.filename ILIKE $%d)",
			n, n, n, n,
		))
	}

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		args = append(args, tag)
		conds = append(conds, fmt.Sprintf("$%d = ANY(a.tags)", len(args)))
	}

	query := `SELECT ` + assetColumns + `
		FROM asset a
		JOIN creator c ON c.id = a.creator_id
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, filter.Offset, filter.Limit)
	query += fmt.Sprintf(" ORDER BY a.created_at DESC, a.id DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

// ListTags returns every distinct tag in lexicographic order
func (r *AssetRepository) ListTags(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT t
		FROM asset, unnest(tags) AS t
		ORDER BY t COLLATE "C"
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}

func scanAsset(row pgx.Row) (*models.Asset, error) {
	asset := &models.Asset{}
	creator := &models.CreatorSummary{}
	var kind string

	err := row.Scan(
		&asset.ID,
		&asset.Title,
		&asset.Description,
		&kind,
		&asset.Filename,
		&asset.OriginalName,
		&asset.MimeType,
		&asset.Size,
		&asset.StorageKey,
		&asset.URL,
		&asset.Price,
		&asset.Tags,
		&asset.Metadata,
		&asset.CreatorID,
		&asset.CreatedAt,
		&creator.ID,
		&creator.Name,
		&creator.WalletAddress,
	)
	if err != nil {
		return nil, err
	}

	asset.Type = models.AssetKind(kind)
	asset.Creator = creator
	return asset, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
