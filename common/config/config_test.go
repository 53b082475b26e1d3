package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PAYMENT_MODE", "")
	t.Setenv("FACILITATOR_URL", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load("api")
	require.NoError(t, err)

	assert.Equal(t, "api", cfg.Service.Name)
	assert.Equal(t, 3001, cfg.Service.Port)
	assert.Equal(t, PaymentModePriced, cfg.Payment.Mode)
	assert.Equal(t, int32(6), cfg.Payment.Decimals)
	assert.Equal(t, "USDC", cfg.Payment.Currency)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
}

func TestLoadWithDefaultPort(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := LoadWithDefaultPort("mcp", 3030)
	require.NoError(t, err)
	assert.Equal(t, 3030, cfg.Service.Port)
}

func TestEffectivePaymentMode_NoFacilitator(t *testing.T) {
	t.Setenv("PAYMENT_MODE", "always")
	t.Setenv("FACILITATOR_URL", "")

	cfg, err := Load("api")
	require.NoError(t, err)
	assert.Equal(t, PaymentModeAlways, cfg.Payment.Mode)
	assert.Equal(t, PaymentModeDisabled, cfg.EffectivePaymentMode())
}

func TestEffectivePaymentMode_WithFacilitator(t *testing.T) {
	t.Setenv("PAYMENT_MODE", "always")
	t.Setenv("FACILITATOR_URL", "https://facilitator.example.com/")

	cfg, err := Load("api")
	require.NoError(t, err)
	assert.Equal(t, "https://facilitator.example.com", cfg.Payment.FacilitatorURL)
	assert.Equal(t, PaymentModeAlways, cfg.EffectivePaymentMode())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Service.Port = 0 }, "invalid port"},
		{"unknown mode", func(c *Config) { c.Payment.Mode = "sometimes" }, "unknown payment mode"},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = StorageS3; c.Storage.Bucket = "" }, "S3_BUCKET"},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "ftp" }, "unknown storage backend"},
		{"unknown limiter", func(c *Config) { c.RateLimit.Backend = "etcd" }, "unknown rate limit backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("api")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
