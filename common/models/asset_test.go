package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := map[string]AssetKind{
		"IMAGE":    KindImage,
		"image":    KindImage,
		" Video ":  KindVideo,
		"PDF":      KindDocument,
		"document": KindDocument,
		"LINK":     KindLink,
	}
	for in, want := range tests {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseKind("AUDIO")
	assert.False(t, ok)
}

func TestKindFromMimeType(t *testing.T) {
	assert.Equal(t, KindImage, KindFromMimeType("image/png"))
	assert.Equal(t, KindVideo, KindFromMimeType("video/mp4; codecs=avc1"))
	assert.Equal(t, KindDocument, KindFromMimeType("application/pdf"))
	assert.Equal(t, KindDocument, KindFromMimeType(""))
}

func TestMetadataViewStripsContentReference(t *testing.T) {
	key := "sha256:abc"
	asset := &Asset{
		ID:         uuid.New(),
		Title:      "Digital Sunrise",
		Type:       KindImage,
		StorageKey: &key,
		Base64Data: "aGVsbG8=",
		Price:      decimal.RequireFromString("0.5"),
		Tags:       []string{"art"},
	}

	view := asset.MetadataView()
	assert.Nil(t, view.StorageKey)
	assert.Empty(t, view.Base64Data)
	assert.Equal(t, asset.Title, view.Title)

	// original untouched
	require.NotNil(t, asset.StorageKey)
	assert.Equal(t, "aGVsbG8=", asset.Base64Data)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "filePath")
	assert.NotContains(t, string(raw), "base64Data")
}

func TestIsFree(t *testing.T) {
	assert.True(t, (&Asset{Price: decimal.Zero}).IsFree())
	assert.False(t, (&Asset{Price: decimal.RequireFromString("0.000001")}).IsFree())
}
