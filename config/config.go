package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	RPCURL        string  // Solana JSON-RPC endpoint
	QuoteAPIURL   string  // Jupiter v6 quote/swap API base
	PriceAPIURL   string  // Jupiter price API base
	TokenListURL  string  // verified token list endpoint
	Commitment    string  // processed | confirmed | finalized
	SkipPreflight bool    // skip preflight simulation on broadcast
	MaxRetries    uint    // RPC-level retransmission attempts
	Slippage      float64 // default slippage tolerance in percent
	PriceCacheTTL int     // price cache TTL in seconds
	PrivateKey    string  // base58-encoded signing key, only needed for swap
	LogLevel      string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".solswap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("rpc_url", "https://api.devnet.solana.com")
	viper.SetDefault("quote_api_url", "https://quote-api.jup.ag/v6")
	viper.SetDefault("price_api_url", "https://api.jup.ag/price/v2")
	viper.SetDefault("token_list_url", "https://tokens.jup.ag/tokens?tags=verified")
	viper.SetDefault("commitment", "confirmed")
	viper.SetDefault("skip_preflight", true)
	viper.SetDefault("max_retries", 2)
	viper.SetDefault("slippage", 1.0)
	viper.SetDefault("price_cache_ttl", 30)
	viper.SetDefault("log_level", "info")

	// Read from environment variables
	viper.SetEnvPrefix("SOLSWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		RPCURL:        viper.GetString("rpc_url"),
		QuoteAPIURL:   viper.GetString("quote_api_url"),
		PriceAPIURL:   viper.GetString("price_api_url"),
		TokenListURL:  viper.GetString("token_list_url"),
		Commitment:    viper.GetString("commitment"),
		SkipPreflight: viper.GetBool("skip_preflight"),
		MaxRetries:    viper.GetUint("max_retries"),
		Slippage:      viper.GetFloat64("slippage"),
		PriceCacheTTL: viper.GetInt("price_cache_ttl"),
		PrivateKey:    viper.GetString("private_key"),
		LogLevel:      viper.GetString("log_level"),
	}

	if cfg.Slippage <= 0 || cfg.Slippage > 50 {
		return nil, fmt.Errorf("slippage must be between 0 and 50 percent, got %v", cfg.Slippage)
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
