package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := map[string]string{
		"":           "0.01",
		"abc":        "0.01",
		"0":          "0.01",
		"-3":         "0.01",
		"0.0000001":  "0.01",
		"0.000001":   "0.000001",
		" 2.50 ":     "2.5",
		"1.23456789": "1.234568",
	}

	for in, want := range tests {
		got := ParsePrice(in)
		assert.Equal(t, want, got.String(), in)
		assert.True(t, got.IsPositive(), in)
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"AI", "Art"}, ParseTags(`["AI","Art"]`))
	assert.Equal(t, []string{"AI", "Art"}, ParseTags(`AI, Art ,AI,,`))
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{"[broken"}, ParseTags(`[broken`))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, NormalizeTags([]string{" b", "a ", "b", "  "}))
	assert.Empty(t, NormalizeTags(nil))
}
