package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/service"
)

// Stats counts what a Seed run did
type Stats struct {
	Creators int
	Assets   int
	Skipped  int
}

type sampleAsset struct {
	Title        string
	Description  string
	Type         models.AssetKind
	OriginalName string
	MimeType     string
	Tags         []string
	Metadata     map[string]any
	CreatorID    string
	Content      func() ([]byte, error)
}

const samplePrice = "0.000001"

func strPtr(s string) *string { return &s }

var sampleCreators = []service.CreateCreatorInput{
	{
		ID:            "alice",
		Name:          "Alice",
		WalletAddress: "0xA1b2C3d4E5F6a7B8C9D0E1F2A3B4C5D6E7F8A9B0",
		Email:         strPtr("alice@example.com"),
	},
	{
		ID:            "bob",
		Name:          "Bob",
		WalletAddress: "0xB1c2D3e4F5A6b7C8D9E0F1A2B3C4D5E6F7A8B9C0",
		Email:         strPtr("bob@example.com"),
	},
}

var sampleAssets = []sampleAsset{
	{
		Title:        "Digital Sunrise",
		Description:  "A beautiful AI-generated sunrise over the ocean.",
		Type:         models.KindImage,
		OriginalName: "nft_art_1.png",
		MimeType:     "image/png",
		Tags:         []string{"art", "sunrise", "AI"},
		Metadata:     map[string]any{"resolution": "4K", "format": "PNG"},
		CreatorID:    "alice",
		Content:      sunrisePNG,
	},
	{
		Title:        "AI Explainer Video",
		Description:  "Short video explaining how x402 payments work.",
		Type:         models.KindVideo,
		OriginalName: "video_demo.mp4",
		MimeType:     "video/mp4",
		Tags:         []string{"demo", "education", "AI"},
		Metadata:     map[string]any{"duration": "2m30s", "codec": "H.264"},
		CreatorID:    "bob",
		Content:      placeholderMP4,
	},
	{
		Title:        "Exploring Multi-Agent Systems",
		Description:  "A deep dive into MCP and x402 integrations.",
		Type:         models.KindDocument,
		OriginalName: "paper_ai_research.pdf",
		MimeType:     "application/pdf",
		Tags:         []string{"AI", "research", "paper"},
		Metadata:     map[string]any{"pages": 12, "format": "PDF"},
		CreatorID:    "alice",
		Content:      placeholderPDF,
	},
}

// Seed creates the sample creators and assets. Running it twice creates
// nothing new: existing creators are reused and assets are matched by title.
func Seed(ctx context.Context, creators *service.CreatorService, assets *service.AssetService, log *logger.Logger) (Stats, error) {
	var stats Stats

	for _, in := range sampleCreators {
		_, err := creators.Create(ctx, in)
		switch {
		case err == nil:
			stats.Creators++
		case errors.Is(err, apperrors.ErrConflict):
			if _, getErr := creators.Get(ctx, in.ID); getErr != nil {
				return stats, fmt.Errorf("creator %s conflicts with an existing record: %w", in.ID, err)
			}
			log.Debug("creator already exists", "creator_id", in.ID)
		default:
			return stats, fmt.Errorf("failed to create creator %s: %w", in.ID, err)
		}
	}

	for _, sample := range sampleAssets {
		exists, err := hasTitle(ctx, assets, sample.Title)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			log.Debug("asset already seeded", "title", sample.Title)
			continue
		}

		content, err := sample.Content()
		if err != nil {
			return stats, fmt.Errorf("failed to build content for %q: %w", sample.Title, err)
		}

		asset, err := assets.CreateAsset(ctx, service.CreateAssetInput{
			Title:        sample.Title,
			Description:  sample.Description,
			AssetType:    string(sample.Type),
			Price:        samplePrice,
			Tags:         sample.Tags,
			Content:      content,
			HasContent:   true,
			OriginalName: sample.OriginalName,
			MimeType:     sample.MimeType,
			CreatorID:    sample.CreatorID,
			Metadata:     sample.Metadata,
		})
		if err != nil {
			return stats, fmt.Errorf("failed to seed %q: %w", sample.Title, err)
		}
		stats.Assets++

		log.WithFields(map[string]any{
			"asset_id":   asset.ID,
			"title":      asset.Title,
			"creator_id": asset.CreatorID,
		}).Info("seeded asset")
	}

	return stats, nil
}

func hasTitle(ctx context.Context, assets *service.AssetService, title string) (bool, error) {
	filter, _, _ := assets.Page(title, "", 0, 0)
	found, err := assets.ListAssets(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to look up %q: %w", title, err)
	}
	for _, a := range found {
		if a.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// sunrisePNG draws a small orange-to-blue gradient
func sunrisePNG() ([]byte, error) {
	const size = 32
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := uint8(y * 255 / (size - 1))
			img.Set(x, y, color.RGBA{R: 255 - t/2, G: 140 - t/2, B: t, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// placeholderMP4 is a bare ftyp box
func placeholderMP4() ([]byte, error) {
	return []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00,
		'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}, nil
}

func placeholderPDF() ([]byte, error) {
	return []byte("%PDF-1.4\n1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
		"2 0 obj << /Type /Pages /Kids [] /Count 0 >> endobj\n" +
		"trailer << /Root 1 0 R >>\n%%EOF\n"), nil
}
