package payment

import (
	"github.com/shopspring/decimal"

	"github.com/poseidon/assetmarket/common/models"
)

// RequirementBuilder turns an asset price into x402 payment requirements
type RequirementBuilder struct {
	Network        string
	Asset          string
	Decimals       int32
	Currency       string
	TimeoutSeconds int
}

// Build creates the requirement for buying asset at resource, paid to payTo
func (b *RequirementBuilder) Build(asset *models.Asset, resource, payTo string) PaymentRequirements {
	mimeType := asset.MimeType
	if mimeType == "" {
		mimeType = "application/json"
	}

	return PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           b.Network,
		MaxAmountRequired: ToMinorUnits(asset.Price, b.Decimals),
		Resource:          resource,
		Description:       "Access to asset: " + asset.Title,
		MimeType:          mimeType,
		PayTo:             payTo,
		MaxTimeoutSeconds: b.TimeoutSeconds,
		Asset:             b.Asset,
		Extra: map[string]any{
			"name":    b.Currency,
			"assetId": asset.ID.String(),
		},
	}
}

// Challenge wraps a requirement in a 402 body
func Challenge(req PaymentRequirements, reason string) *PaymentRequired {
	return &PaymentRequired{
		X402Version: X402Version,
		Error:       reason,
		Accepts:     []PaymentRequirements{req},
	}
}

// ToMinorUnits converts a decimal price into an integer amount of the
// token's smallest unit, rounding half away from zero. A positive price
// never rounds down to zero.
func ToMinorUnits(price decimal.Decimal, decimals int32) string {
	units := price.Shift(decimals).Round(0)
	if units.IsZero() && price.IsPositive() {
		return "1"
	}
	return units.StringFixed(0)
}
