package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "dexpricer", LogLevel: "info"},
		Ethereum: EthereumConfig{
			HTTPURL: "https://mainnet.base.org",
			ChainID: 8453,
		},
		Pricing: PricingConfig{
			QuoterAddress: "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a",
			QuoteTimeout:  5 * time.Second,
			FeeTiersToTry: []uint32{500, 3000, 10000},
			QuoteTokens: []QuoteTokenConfig{
				{
					Address:  "0x4200000000000000000000000000000000000006",
					Symbol:   "WETH",
					Decimals: 18,
					FeeTiers: []uint32{500, 3000},
				},
				{
					Address:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
					Symbol:   "USDC",
					Decimals: 6,
					Stable:   true,
					FeeTiers: []uint32{500, 3000, 10000},
				},
			},
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PRICER_ETH_HTTP_URL", "https://mainnet.base.org")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dexpricer", cfg.App.Name)
	assert.Equal(t, uint64(8453), cfg.Ethereum.ChainID)
	assert.Equal(t, "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a", cfg.Pricing.QuoterAddress)
	assert.Equal(t, 5*time.Second, cfg.Pricing.QuoteTimeout)

	// Wrapped native first, then the stable.
	require.Len(t, cfg.Pricing.QuoteTokens, 2)
	assert.Equal(t, "WETH", cfg.Pricing.QuoteTokens[0].Symbol)
	assert.False(t, cfg.Pricing.QuoteTokens[0].Stable)
	assert.Equal(t, "USDC", cfg.Pricing.QuoteTokens[1].Symbol)
	assert.True(t, cfg.Pricing.QuoteTokens[1].Stable)
}

func TestLoad_MissingRPCURL(t *testing.T) {
	t.Setenv("PRICER_ETH_HTTP_URL", "")
	t.Setenv("ETH_HTTP_URL", "")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing_rpc_url", func(c *Config) { c.Ethereum.HTTPURL = "" }, true},
		{"bad_quoter_address", func(c *Config) { c.Pricing.QuoterAddress = "not-an-address" }, true},
		{"zero_timeout", func(c *Config) { c.Pricing.QuoteTimeout = 0 }, true},
		{"no_quote_tokens", func(c *Config) { c.Pricing.QuoteTokens = nil }, true},
		{"no_stable_token", func(c *Config) {
			c.Pricing.QuoteTokens[1].Stable = false
		}, true},
		{"bad_token_address", func(c *Config) {
			c.Pricing.QuoteTokens[0].Address = "0xnope"
		}, true},
		{"unknown_fee_tier", func(c *Config) {
			c.Pricing.QuoteTokens[0].FeeTiers = []uint32{1234}
		}, true},
		{"unknown_global_fee_tier", func(c *Config) {
			c.Pricing.FeeTiersToTry = []uint32{42}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
