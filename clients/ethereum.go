package clients

import (
	"context"
	"errors"
	"fmt"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/JASSBR/invoice-usdc-base/types"
)

var _ LedgerClient = (*EVMClient)(nil)

// EVMClient reads receipts over JSON-RPC via go-ethereum's ethclient.
type EVMClient struct {
	rpcURL  string
	network types.Network
	client  *ethclient.Client
}

func NewEVMClient(network types.Network, rpcURL string) (*EVMClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
	}

	return &EVMClient{
		network: network,
		rpcURL:  rpcURL,
		client:  client,
	}, nil
}

func (e *EVMClient) GetNetwork() types.Network {
	return e.network
}

func (e *EVMClient) Close() {
	e.client.Close()
}

// GetTransactionReceipt fetches the receipt and the transaction itself; the
// receipt alone does not carry the call target. A missing hash maps to
// tx_not_found (retryable, the transaction may simply not be mined yet);
// transport and timeout failures map to transient_read_error.
func (e *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	hash := common.HexToHash(txHash)

	rcpt, err := e.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, mapReadError(err)
	}

	tx, _, err := e.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, mapReadError(err)
	}

	to := ""
	if tx.To() != nil {
		to = tx.To().Hex()
	}

	logs := make([]ethtypes.Log, 0, len(rcpt.Logs))
	for _, l := range rcpt.Logs {
		logs = append(logs, *l)
	}

	return &Receipt{
		Success:     rcpt.Status == ethtypes.ReceiptStatusSuccessful,
		To:          to,
		BlockNumber: rcpt.BlockNumber,
		Logs:        logs,
	}, nil
}

func mapReadError(err error) error {
	if errors.Is(err, ethereum.NotFound) {
		return &types.PaymentError{
			Code:    types.ErrTxNotFound,
			Message: "transaction not found, it may not be mined yet",
		}
	}

	// Timeouts are read failures, never a verdict on the payment.
	return &types.PaymentError{
		Code:    types.ErrTransientRead,
		Message: fmt.Sprintf("failed to read transaction receipt: %v", err),
	}
}
