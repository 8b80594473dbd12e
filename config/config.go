// Package config loads server configuration from an optional TOML file and
// environment variables. Environment values win over the file; everything is
// handed to constructors explicitly so no package reads the environment on
// its own.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/JASSBR/invoice-usdc-base/types"
)

// Config holds all configuration for the server.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Chain   ChainConfig   `toml:"chain"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Verify  VerifyConfig  `toml:"verify"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int    `toml:"port"`
	Host         string `toml:"host"`
	ReadTimeout  int    `toml:"read_timeout"`  // seconds
	WriteTimeout int    `toml:"write_timeout"` // seconds
	IdleTimeout  int    `toml:"idle_timeout"`  // seconds
}

// ChainConfig holds the chain and token settings.
type ChainConfig struct {
	Network       string `toml:"network"`
	ChainID       int64  `toml:"chain_id"`
	RPCUrl        string `toml:"rpc_url"`
	TokenAddress  string `toml:"token_address"`
	TokenDecimals int    `toml:"token_decimals"`
	ExplorerURL   string `toml:"explorer_url"`
}

// StorageConfig holds invoice storage settings.
type StorageConfig struct {
	Type       string `toml:"type"` // "sqlite" or "memory"
	SQLitePath string `toml:"sqlite_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// VerifyConfig holds verification settings.
type VerifyConfig struct {
	TimeoutSeconds int  `toml:"timeout_seconds"`
	EnableMetrics  bool `toml:"enable_metrics"`
}

// Load builds the configuration: defaults, then the TOML file named by
// INVOICEPAY_CONFIG (if set), then environment overrides.
func Load() (*Config, error) {
	chain := types.DefaultBaseSepolia()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 8080),
			Host:         getEnv("HOST", "0.0.0.0"),
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
		},
		Chain: ChainConfig{
			Network:       chain.Network.String(),
			ChainID:       chain.ChainID,
			RPCUrl:        chain.RPCUrl,
			TokenAddress:  chain.TokenAddress,
			TokenDecimals: chain.TokenDecimals,
			ExplorerURL:   chain.ExplorerURL,
		},
		Storage: StorageConfig{
			Type:       "sqlite",
			SQLitePath: "./data/invoicepay.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Verify: VerifyConfig{
			TimeoutSeconds: 30,
			EnableMetrics:  true,
		},
	}

	if path := os.Getenv("INVOICEPAY_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	chainCfg := cfg.ChainConfig()
	if err := chainCfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Chain.RPCUrl = getEnv("RPC_URL", cfg.Chain.RPCUrl)
	cfg.Chain.TokenAddress = getEnv("TOKEN_ADDRESS", cfg.Chain.TokenAddress)
	cfg.Chain.TokenDecimals = getEnvInt("TOKEN_DECIMALS", cfg.Chain.TokenDecimals)
	cfg.Storage.Type = getEnv("STORAGE_TYPE", cfg.Storage.Type)
	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Verify.TimeoutSeconds = getEnvInt("VERIFY_TIMEOUT_SECONDS", cfg.Verify.TimeoutSeconds)
}

// ChainConfig converts the loaded chain section to the explicit value the
// verifier is constructed with.
func (c *Config) ChainConfig() types.ChainConfig {
	return types.ChainConfig{
		Network:       types.Network(c.Chain.Network),
		ChainID:       c.Chain.ChainID,
		RPCUrl:        c.Chain.RPCUrl,
		TokenAddress:  c.Chain.TokenAddress,
		TokenDecimals: c.Chain.TokenDecimals,
		ExplorerURL:   c.Chain.ExplorerURL,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
