package payment

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/poseidon/assetmarket/common/apperrors"
)

// DecodeProof turns an X-PAYMENT header value into the JSON payload it
// carries. Both standard and URL-safe base64 are accepted, padded or not.
// The payload is opaque here; only the facilitator interprets it.
func DecodeProof(header string) (json.RawMessage, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, apperrors.New(apperrors.ErrInvalidPaymentProofFormat, "payment proof is empty")
	}

	raw, err := decodeBase64(header)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidPaymentProofFormat, "payment proof is not valid base64", err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidPaymentProofFormat, "payment proof is not a JSON object", err)
	}

	return json.RawMessage(raw), nil
}

// EncodeProof is the inverse of DecodeProof. Used by tools that receive
// the proof as a JSON object rather than a header.
func EncodeProof(payload json.RawMessage) string {
	return base64.StdEncoding.EncodeToString(payload)
}

// EncodeSettlement renders a settlement for the X-PAYMENT-RESPONSE header
func EncodeSettlement(resp *SettleResponse) (string, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		out, err := enc.DecodeString(s)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
