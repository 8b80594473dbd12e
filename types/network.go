package types

import "fmt"

// Network names supported by this deployment.
type Network string

const (
	NetworkBaseSepolia Network = "base-sepolia"
	NetworkBase        Network = "base"
)

func (n Network) String() string {
	return string(n)
}

// ChainConfig is the explicit chain configuration handed to the verifier at
// construction. No ambient environment lookups happen past this point.
type ChainConfig struct {
	Network       Network `json:"network"`
	ChainID       int64   `json:"chainId"`
	RPCUrl        string  `json:"rpcUrl"`
	TokenAddress  string  `json:"tokenAddress"`
	TokenDecimals int     `json:"tokenDecimals"`
	ExplorerURL   string  `json:"explorerUrl,omitempty"`
}

// Base Sepolia deployment defaults.
const (
	BaseSepoliaChainID     int64 = 84532
	BaseSepoliaRPCUrl            = "https://sepolia.base.org"
	BaseSepoliaUSDCAddress       = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	BaseSepoliaExplorer          = "https://sepolia.basescan.org"
	USDCDecimals                 = 6
)

// DefaultBaseSepolia returns the configuration for USDC on Base Sepolia.
func DefaultBaseSepolia() ChainConfig {
	return ChainConfig{
		Network:       NetworkBaseSepolia,
		ChainID:       BaseSepoliaChainID,
		RPCUrl:        BaseSepoliaRPCUrl,
		TokenAddress:  BaseSepoliaUSDCAddress,
		TokenDecimals: USDCDecimals,
		ExplorerURL:   BaseSepoliaExplorer,
	}
}

// Validate checks the chain configuration is complete.
func (c *ChainConfig) Validate() error {
	if c.RPCUrl == "" {
		return fmt.Errorf("chain config: rpcUrl is required")
	}
	if !IsHexAddress(c.TokenAddress) {
		return fmt.Errorf("chain config: invalid token address %q", c.TokenAddress)
	}
	if c.TokenDecimals <= 0 {
		return fmt.Errorf("chain config: tokenDecimals must be greater than 0")
	}
	return nil
}

// TxURL returns the explorer link for a transaction hash.
func (c *ChainConfig) TxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", c.ExplorerURL, txHash)
}

// AddressURL returns the explorer link for an account.
func (c *ChainConfig) AddressURL(address string) string {
	return fmt.Sprintf("%s/address/%s", c.ExplorerURL, address)
}
