// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration. It is immutable after Load;
// components receive it (or a sub-struct) at construction.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds RPC node configuration.
type EthereumConfig struct {
	HTTPURL string `mapstructure:"http_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// QuoteTokenConfig describes one quote-token candidate, in priority order.
// Stable candidates have USD price 1.0 by definition.
type QuoteTokenConfig struct {
	Address  string   `mapstructure:"address"`
	Symbol   string   `mapstructure:"symbol"`
	Name     string   `mapstructure:"name"`
	Decimals uint8    `mapstructure:"decimals"`
	Stable   bool     `mapstructure:"stable"`
	FeeTiers []uint32 `mapstructure:"fee_tiers"`
}

// AddressHex returns the token address as common.Address.
func (c *QuoteTokenConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// PricingConfig holds quoter contract and resolution policy settings.
type PricingConfig struct {
	QuoterAddress  string             `mapstructure:"quoter_address"`
	QuoteTimeout   time.Duration      `mapstructure:"quote_timeout"`
	RateLimitRPS   float64            `mapstructure:"rate_limit_rps"`
	RateLimitBurst int                `mapstructure:"rate_limit_burst"`
	QuoteTokens    []QuoteTokenConfig `mapstructure:"quote_tokens"`
	FeeTiersToTry  []uint32           `mapstructure:"fee_tiers_to_try"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *PricingConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// allowedFeeTiers are the Uniswap V3 pool fee tiers, in hundredths of a bip.
var allowedFeeTiers = map[uint32]bool{
	100:   true,
	500:   true,
	3000:  true,
	10000: true,
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PRICER")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Config file is optional, env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "PRICER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "PRICER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "PRICER_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "PRICER_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "PRICER_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Pricing
	v.BindEnv("pricing.quoter_address", "PRICER_QUOTER_ADDRESS", "QUOTER_ADDRESS")
	v.BindEnv("pricing.quote_timeout", "PRICER_QUOTE_TIMEOUT")
	v.BindEnv("pricing.rate_limit_rps", "PRICER_RATE_LIMIT_RPS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "PRICER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "PRICER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "PRICER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "dexpricer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Base mainnet defaults
	v.SetDefault("ethereum.chain_id", 8453)

	// Uniswap V3 QuoterV2 on Base
	v.SetDefault("pricing.quoter_address", "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a")
	v.SetDefault("pricing.quote_timeout", "5s")
	v.SetDefault("pricing.rate_limit_rps", 20.0)
	v.SetDefault("pricing.rate_limit_burst", 5)
	v.SetDefault("pricing.fee_tiers_to_try", []uint32{500, 3000, 10000})

	// Fallback chain: wrapped native first, then the stable.
	v.SetDefault("pricing.quote_tokens", []map[string]any{
		{
			"address":   "0x4200000000000000000000000000000000000006",
			"symbol":    "WETH",
			"name":      "Wrapped Ether",
			"decimals":  18,
			"stable":    false,
			"fee_tiers": []uint32{500, 3000},
		},
		{
			"address":   "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			"symbol":    "USDC",
			"name":      "USD Coin",
			"decimals":  6,
			"stable":    true,
			"fee_tiers": []uint32{500, 3000, 10000},
		},
	})

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "dexpricer")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Pricing.QuoterAddress) {
		return fmt.Errorf("invalid pricing.quoter_address: %s", c.Pricing.QuoterAddress)
	}
	if c.Pricing.QuoteTimeout <= 0 {
		return fmt.Errorf("pricing.quote_timeout must be positive")
	}
	if len(c.Pricing.QuoteTokens) == 0 {
		return fmt.Errorf("pricing.quote_tokens cannot be empty")
	}

	haveStable := false
	for i, qt := range c.Pricing.QuoteTokens {
		if !common.IsHexAddress(qt.Address) {
			return fmt.Errorf("invalid pricing.quote_tokens[%d].address: %s", i, qt.Address)
		}
		if qt.Symbol == "" {
			return fmt.Errorf("pricing.quote_tokens[%d].symbol is required", i)
		}
		if qt.Decimals > 30 {
			return fmt.Errorf("pricing.quote_tokens[%d].decimals out of range: %d", i, qt.Decimals)
		}
		for _, tier := range qt.FeeTiers {
			if !allowedFeeTiers[tier] {
				return fmt.Errorf("pricing.quote_tokens[%d]: unknown fee tier %d", i, tier)
			}
		}
		if qt.Stable {
			haveStable = true
		}
	}
	if !haveStable {
		return fmt.Errorf("pricing.quote_tokens must include at least one stable token")
	}

	for _, tier := range c.Pricing.FeeTiersToTry {
		if !allowedFeeTiers[tier] {
			return fmt.Errorf("pricing.fee_tiers_to_try: unknown fee tier %d", tier)
		}
	}

	return nil
}
