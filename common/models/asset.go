package models

import (
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetKind is the declared type of an asset
type AssetKind string

const (
	KindImage    AssetKind = "IMAGE"
	KindVideo    AssetKind = "VIDEO"
	KindDocument AssetKind = "DOCUMENT"
	KindLink     AssetKind = "LINK"
)

// ParseKind accepts the kind names used by upload clients. PDF is an
// older alias for DOCUMENT.
func ParseKind(s string) (AssetKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IMAGE":
		return KindImage, true
	case "VIDEO":
		return KindVideo, true
	case "DOCUMENT", "PDF":
		return KindDocument, true
	case "LINK":
		return KindLink, true
	default:
		return "", false
	}
}

// KindFromMimeType guesses a kind from a content type. Anything that is
// not an image or a video is treated as a document.
func KindFromMimeType(mimeType string) AssetKind {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(mimeType)
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage
	case strings.HasPrefix(mediaType, "video/"):
		return KindVideo
	default:
		return KindDocument
	}
}

// IsLink reports whether assets of this kind carry a URL instead of content
func (k AssetKind) IsLink() bool {
	return k == KindLink
}

// Asset is a priced, taggable item in the catalog.
// Maps to: asset table
type Asset struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Type        AssetKind `db:"kind" json:"type"`

	// Stored file details. Empty for LINK assets.
	Filename     string `db:"filename" json:"filename"`
	OriginalName string `db:"original_name" json:"originalName"`
	MimeType     string `db:"mime_type" json:"mimeType"`
	Size         int64  `db:"size_bytes" json:"size"`

	// Content reference into the blob store (sha256:<hex>).
	// Exactly one of StorageKey and URL is set, depending on Type.
	StorageKey *string `db:"storage_key" json:"filePath,omitempty"`
	URL        *string `db:"url" json:"url,omitempty"`

	Price     decimal.Decimal `db:"price" json:"price"`
	Tags      []string        `db:"tags" json:"tags"`
	Metadata  map[string]any  `db:"metadata" json:"metadata,omitempty"`
	CreatorID string          `db:"creator_id" json:"creatorId"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`

	// Joined on read
	Creator *CreatorSummary `db:"-" json:"creator,omitempty"`

	// Inline content, only populated on delivery
	Base64Data string `db:"-" json:"base64Data,omitempty"`
}

// MetadataView returns a copy of the asset that is safe to show before
// payment: no content reference and no inline bytes.
func (a *Asset) MetadataView() *Asset {
	cp := *a
	cp.StorageKey = nil
	cp.Base64Data = ""
	if a.Tags != nil {
		cp.Tags = append([]string(nil), a.Tags...)
	}
	return &cp
}

// IsFree reports whether the asset can be delivered without payment
func (a *Asset) IsFree() bool {
	return a.Price.IsZero()
}

// CreatorSummary is the subset of a creator embedded in asset responses
type CreatorSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress"`
}

// ListFilter narrows an asset listing. Query matches title, description
// and both filenames case-insensitively; Tag is an exact membership test.
type ListFilter struct {
	Query  string
	Tag    string
	Offset int
	Limit  int
}
