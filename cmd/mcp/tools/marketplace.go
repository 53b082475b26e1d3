package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/clients"
	"github.com/poseidon/assetmarket/common/gate"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/payment"
	"github.com/poseidon/assetmarket/common/service"
)

// _meta keys for the payment proof and the settlement receipt
const (
	MetaPayment         = "x402/payment"
	MetaPaymentResponse = "x402/payment-response"
)

// Deps are the services the marketplace tools call into
type Deps struct {
	Assets *service.AssetService
	Gate   *gate.Gate
	Agent  *clients.AgentClient
}

type marketplace struct {
	Deps
}

// RegisterMarketplace registers every marketplace tool on r
func RegisterMarketplace(r *Registry, deps Deps) error {
	m := &marketplace{Deps: deps}

	defs := []struct {
		name, description, schema string
		handler                   Handler
	}{
		{"listAssets", "List assets, newest first. Filters by substring query and exact tag; page is zero-based.", listAssetsSchema, m.listAssets},
		{"listTags", "List every tag in use, sorted.", listTagsSchema, m.listTags},
		{"getAssetInfo", "Get asset metadata without its content. Never requires payment.", assetIDOnlySchema, m.getAssetInfo},
		{"getAsset", "Get an asset with its content. Priced assets return an x402 payment requirement until a valid payment proof is supplied.", getAssetSchema, m.getAsset},
		{"getAssetBase64", "Get an asset's content inline as base64 for trusted callers.", assetIDOnlySchema, m.getAssetBase64},
		{"uploadAsset", "Upload an asset from base64 content, or register a LINK asset by url.", uploadAssetSchema, m.uploadAsset},
		{"runAgent", "Send a natural language query to the marketplace agent.", runAgentSchema, m.runAgent},
	}

	for _, d := range defs {
		if err := r.Register(d.name, d.description, d.schema, d.handler); err != nil {
			return err
		}
	}
	return nil
}

type listAssetsArgs struct {
	Query    string `json:"q"`
	Tag      string `json:"tag"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

func (m *marketplace) listAssets(ctx context.Context, call Call) (any, error) {
	var args listAssetsArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}

	filter, _, _ := m.Assets.Page(args.Query, args.Tag, args.Page, args.PageSize)
	assets, err := m.Assets.ListAssets(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]*models.Asset, 0, len(assets))
	for _, a := range assets {
		views = append(views, a.MetadataView())
	}
	return views, nil
}

func (m *marketplace) listTags(ctx context.Context, _ Call) (any, error) {
	tags, err := m.Assets.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

type assetArgs struct {
	AssetID service.FlexString `json:"assetId"`
	Payment json.RawMessage    `json:"payment"`
}

func (m *marketplace) getAssetInfo(ctx context.Context, call Call) (any, error) {
	var args assetArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	return m.Gate.Info(ctx, string(args.AssetID))
}

func (m *marketplace) getAsset(ctx context.Context, call Call) (any, error) {
	var args assetArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}

	proof, err := paymentProof(args.Payment, call.Meta[MetaPayment])
	if err != nil {
		return nil, err
	}

	out, err := m.Gate.Deliver(ctx, gate.Request{
		AssetID: string(args.AssetID),
		Proof:   proof,
	})
	if err != nil {
		return nil, err
	}

	if out.State == gate.StateChallenged {
		return challenge{required: out.PaymentRequired}, nil
	}

	asset := *out.Asset
	if len(out.Content) > 0 {
		asset.Base64Data = base64.StdEncoding.EncodeToString(out.Content)
	}
	if out.Settlement != nil {
		return settled{data: &asset, settlement: out.Settlement}, nil
	}
	return &asset, nil
}

func (m *marketplace) getAssetBase64(ctx context.Context, call Call) (any, error) {
	if !m.Gate.AllowsInlineBypass() {
		return nil, apperrors.New(apperrors.ErrForbidden, "inline retrieval is disabled while payment is always required")
	}

	var args assetArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}

	asset, err := m.Assets.GetAsset(ctx, string(args.AssetID))
	if err != nil {
		return nil, err
	}

	if asset.Type.IsLink() {
		url := ""
		if asset.URL != nil {
			url = *asset.URL
		}
		return map[string]any{"type": models.KindLink, "url": url}, nil
	}

	content, err := m.Assets.LoadContent(ctx, asset)
	if err != nil {
		return nil, err
	}
	mimeType := asset.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return map[string]any{
		"type":     asset.Type,
		"mimeType": mimeType,
		"base64":   base64.StdEncoding.EncodeToString(content),
	}, nil
}

func (m *marketplace) uploadAsset(ctx context.Context, call Call) (any, error) {
	var payload service.UploadPayload
	if err := decodeArgs(call.Arguments, &payload); err != nil {
		return nil, err
	}

	in, err := payload.Input()
	if err != nil {
		return nil, err
	}

	asset, err := m.Assets.CreateAsset(ctx, in)
	if err != nil {
		return nil, err
	}
	return asset.MetadataView(), nil
}

func (m *marketplace) runAgent(ctx context.Context, call Call) (any, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "Query string is required")
	}
	if m.Agent == nil {
		return nil, apperrors.ErrAgentUnavailable
	}

	resp, err := m.Agent.Invoke(ctx, args.Query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrAgentUnavailable, "agent request failed", err)
	}
	return resp, nil
}

// paymentProof picks the proof from the arguments, falling back to _meta.
// A proof may be the X-PAYMENT header value or the decoded JSON object.
func paymentProof(candidates ...json.RawMessage) (string, error) {
	for _, raw := range candidates {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		switch raw[0] {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return "", apperrors.Wrap(apperrors.ErrInvalidPaymentProofFormat, "payment must be a string or an object", err)
			}
			if strings.TrimSpace(s) != "" {
				return s, nil
			}
		case '{':
			return payment.EncodeProof(raw), nil
		default:
			return "", apperrors.New(apperrors.ErrInvalidPaymentProofFormat, "payment must be a string or an object")
		}
	}
	return "", nil
}

func decodeArgs(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return apperrors.Wrap(apperrors.ErrValidation, "invalid arguments", err)
	}
	return nil
}
