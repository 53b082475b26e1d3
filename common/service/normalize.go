package service

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrice is applied when an upload carries no usable price
var DefaultPrice = decimal.RequireFromString("0.01")

// priceScale matches the NUMERIC(20,6) column
const priceScale = 6

// ParsePrice reads a decimal price. Missing, malformed, zero and negative
// values all fall back to DefaultPrice so an upload is never free.
func ParsePrice(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPrice
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return DefaultPrice
	}
	price = price.Round(priceScale)
	if !price.IsPositive() {
		return DefaultPrice
	}
	return price
}

// ParseTags accepts a JSON array (`["AI","Art"]`) or a comma list
// (`AI, Art`) and returns normalized tags.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return NormalizeTags(list)
		}
	}

	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims, drops empties and removes duplicates, keeping the
// first occurrence of each tag.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
