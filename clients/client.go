// Package clients provides read-only ledger access for payment verification.
package clients

import (
	"context"
	"math/big"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Receipt is the ledger's record of a transaction's execution outcome.
// Available only once the transaction is mined.
type Receipt struct {
	// Success is true when on-chain execution did not revert.
	Success bool

	// To is the target contract address, empty for contract creation.
	To string

	BlockNumber *big.Int

	// Logs in receipt order.
	Logs []ethtypes.Log
}

// LedgerClient reads transaction receipts from the chain. Implementations
// must be safe for concurrent use.
type LedgerClient interface {
	GetTransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
	Close()
}
