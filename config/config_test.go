package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JASSBR/invoice-usdc-base/types"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, types.BaseSepoliaUSDCAddress, cfg.Chain.TokenAddress)
	assert.Equal(t, 6, cfg.Chain.TokenDecimals)
	assert.Equal(t, types.BaseSepoliaChainID, cfg.Chain.ChainID)

	chain := cfg.ChainConfig()
	require.NoError(t, chain.Validate())
	assert.Equal(t, types.NetworkBaseSepolia, chain.Network)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCUrl)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
port = 9999

[chain]
rpc_url = "http://node.internal:8545"
token_address = "0x1111111111111111111111111111111111111111"
token_decimals = 6

[storage]
type = "memory"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	t.Setenv("INVOICEPAY_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "http://node.internal:8545", cfg.Chain.RPCUrl)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Chain.TokenAddress)
	assert.Equal(t, "memory", cfg.Storage.Type)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9999\n"), 0644))
	t.Setenv("INVOICEPAY_CONFIG", path)
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_InvalidTokenAddress(t *testing.T) {
	t.Setenv("TOKEN_ADDRESS", "garbage")

	_, err := Load()
	require.Error(t, err)
}
