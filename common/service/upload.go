package service

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/poseidon/assetmarket/common/apperrors"
)

// FlexString accepts a JSON string or number. Agents send ids and prices
// either way.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return apperrors.New(apperrors.ErrValidation, "expected a string or a number")
	}
	*f = FlexString(n.String())
	return nil
}

// FlexTags accepts a JSON array of strings or a single string in either
// form ParseTags understands.
type FlexTags []string

func (f *FlexTags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return apperrors.New(apperrors.ErrValidation, "tags must be strings")
		}
		*f = NormalizeTags(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return apperrors.New(apperrors.ErrValidation, "tags must be an array or a string")
	}
	*f = ParseTags(s)
	return nil
}

// UploadPayload is the JSON form of an upload with inline base64 content
type UploadPayload struct {
	Filename      string         `json:"filename"`
	OriginalName  string         `json:"originalName"`
	Base64Data    string         `json:"base64Data"`
	MimeType      string         `json:"mimeType"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	AssetType     string         `json:"assetType"`
	URL           string         `json:"url"`
	Price         FlexString     `json:"price"`
	Tags          FlexTags       `json:"tags"`
	CreatorID     FlexString     `json:"creatorId"`
	CreatorWallet string         `json:"creatorWallet"`
	Metadata      map[string]any `json:"metadata"`
}

// Input decodes the inline content and returns the service input
func (p UploadPayload) Input() (CreateAssetInput, error) {
	in := CreateAssetInput{
		Title:         p.Title,
		Description:   p.Description,
		AssetType:     p.AssetType,
		Price:         string(p.Price),
		Tags:          []string(p.Tags),
		URL:           p.URL,
		OriginalName:  p.OriginalName,
		MimeType:      p.MimeType,
		CreatorID:     string(p.CreatorID),
		CreatorWallet: p.CreatorWallet,
		Metadata:      p.Metadata,
	}
	if in.OriginalName == "" {
		in.OriginalName = p.Filename
	}

	data, mimeType, err := DecodeInline(p.Base64Data)
	if err != nil {
		return CreateAssetInput{}, err
	}
	if in.MimeType == "" {
		in.MimeType = mimeType
	}
	in.Content = data
	in.HasContent = len(data) > 0
	return in, nil
}

// DecodeInline decodes base64 content, optionally wrapped as a data URL
// (data:<mime>;base64,<payload>). The MIME type of a data URL is returned.
func DecodeInline(raw string) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", nil
	}

	var mimeType string
	if strings.HasPrefix(raw, "data:") {
		header, payload, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", apperrors.New(apperrors.ErrValidation, "base64Data is not a base64 data URL")
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		raw = payload
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(raw); err == nil {
			return data, mimeType, nil
		}
	}
	return nil, "", apperrors.New(apperrors.ErrValidation, "base64Data is not valid base64")
}
