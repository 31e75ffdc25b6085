// Package config loads the gateway configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full gateway configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// DatabaseURL is the postgres DSN. Empty selects the in-memory store.
	DatabaseURL string `yaml:"database_url"`
	// RedisAddr enables the approval cache when set.
	RedisAddr string `yaml:"redis_addr"`

	Chain ChainConfig `yaml:"chain"`

	// Tokens maps bearer tokens to the account identity they authenticate.
	Tokens map[string]string `yaml:"tokens"`
	// Notifier is the identity allowed to post transfer notifications.
	Notifier string `yaml:"notifier"`

	// RateLimit is the sustained per-caller request rate. 0 disables limiting.
	RateLimit int `yaml:"rate_limit"`
	// RateBurst is the per-caller burst allowance.
	RateBurst int `yaml:"rate_burst"`
	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `yaml:"cors_origins"`
}

// ChainConfig configures chain interaction.
type ChainConfig struct {
	// APIURL is the chain API endpoint. Empty disables chain interaction.
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Self is the account this ledger acts as.
	Self string `yaml:"self"`
	// FeeSink receives forwarded funds.
	FeeSink string `yaml:"fee_sink"`
	// NativeToken and SecondaryToken are the token contracts.
	NativeToken    string `yaml:"native_token"`
	SecondaryToken string `yaml:"secondary_token"`
	// System is the system contract handling RAM transfers.
	System string `yaml:"system"`
	// Msig is the multisig contract carrying approval records.
	Msig string `yaml:"msig"`
	// ApprovalCacheTTL bounds how long approval counts are cached.
	ApprovalCacheTTL time.Duration `yaml:"approval_cache_ttl"`
	// DispatchQueue is the outbound action queue capacity.
	DispatchQueue int `yaml:"dispatch_queue"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr:      ":8080",
		Notifier:  "notifier",
		RateLimit: 50,
		RateBurst: 100,
		Chain: ChainConfig{
			Timeout:          30 * time.Second,
			Self:             "bfp",
			FeeSink:          "eosio.fees",
			NativeToken:      "eosio.token",
			SecondaryToken:   "core.vaulta",
			System:           "eosio",
			Msig:             "eosio.msig",
			ApprovalCacheTTL: 30 * time.Second,
			DispatchQueue:    256,
		},
	}
}

// Load reads the configuration file at path, falling back to defaults when
// path is empty or missing, and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("BURNLEDGER_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("CHAIN_API_URL"); v != "" {
		cfg.Chain.APIURL = v
	}
	if v := os.Getenv("BURNLEDGER_SELF"); v != "" {
		cfg.Chain.Self = v
	}

	if cfg.Chain.Self == "" {
		return Config{}, fmt.Errorf("chain self account required")
	}
	return cfg, nil
}
