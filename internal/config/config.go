// Package config loads application configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default devnet endpoints and program addresses.
const (
	DefaultRPCEndpoint = "https://api.devnet.solana.com"
	DefaultWSEndpoint  = "wss://api.devnet.solana.com"

	DefaultProgramID      = "6sdzY6VnDyJAZmEMUmMEe4BNUhEmSQc8mL2mnXiFMSJ9"
	DefaultStablebondMint = "DUSTawucrTsGU8hcqRdHDCbuYhCPADMLM2VcCb8VnFnQ"

	DefaultListenAddr = ":8080"
)

// DefaultFeeds maps supported target currencies to devnet oracle feeds.
func DefaultFeeds() map[string]string {
	return map[string]string{
		"USD": "GvDMxPzN1sCj7L26YDK2HnMRXEQmQ2aemov8YBtPS7vR",
		"EUR": "HgTtcbcmp5BeThivXbkVXsBvFWxBhTLyPLe9apcxZNzh",
		"MXN": "8k7yyNgf3YoLYXsoGqLKM1jc5zRr6bE8bLWqXRm8RQdq",
	}
}

// Config is the application configuration.
type Config struct {
	RPCEndpoint string `yaml:"rpc_endpoint"`
	WSEndpoint  string `yaml:"ws_endpoint"`

	ProgramID      string `yaml:"program_id"`
	StablebondMint string `yaml:"stablebond_mint"`

	// KeypairPath points at a solana-cli style JSON keypair file.
	KeypairPath string `yaml:"keypair_path"`

	ListenAddr string `yaml:"listen_addr"`

	// Feeds maps target currency codes to oracle feed addresses. Currencies
	// without an entry are rejected at validation time.
	Feeds map[string]string `yaml:"feeds"`
}

// Load builds a Config from defaults, an optional YAML file, and environment
// overrides, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := &Config{
		RPCEndpoint:    DefaultRPCEndpoint,
		WSEndpoint:     DefaultWSEndpoint,
		ProgramID:      DefaultProgramID,
		StablebondMint: DefaultStablebondMint,
		ListenAddr:     DefaultListenAddr,
		Feeds:          DefaultFeeds(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STABLEFUN_RPC_ENDPOINT"); v != "" {
		c.RPCEndpoint = v
	}
	if v := os.Getenv("STABLEFUN_WS_ENDPOINT"); v != "" {
		c.WSEndpoint = v
	}
	if v := os.Getenv("STABLEFUN_PROGRAM_ID"); v != "" {
		c.ProgramID = v
	}
	if v := os.Getenv("STABLEFUN_STABLEBOND_MINT"); v != "" {
		c.StablebondMint = v
	}
	if v := os.Getenv("STABLEFUN_KEYPAIR"); v != "" {
		c.KeypairPath = v
	}
	if v := os.Getenv("STABLEFUN_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if c.ProgramID == "" {
		return fmt.Errorf("program_id is required")
	}
	if c.StablebondMint == "" {
		return fmt.Errorf("stablebond_mint is required")
	}
	if len(c.Feeds) == 0 {
		return fmt.Errorf("at least one currency feed is required")
	}
	for currency, feed := range c.Feeds {
		if feed == "" {
			return fmt.Errorf("feed for currency %s is empty", currency)
		}
	}
	return nil
}
