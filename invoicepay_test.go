package invoicepay

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JASSBR/invoice-usdc-base/clients"
	"github.com/JASSBR/invoice-usdc-base/invoices"
	"github.com/JASSBR/invoice-usdc-base/types"
)

const (
	transferTopicHex = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	payerAddress     = "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1"
	vendorAddress    = "0x384Aa214be0B279cbf211e9b2C992d8633F77848"
	testTxHash       = "0x9b1f122e235cb50e9a49f1f3ca18c0ffbf4fa38f07e85db12f42ab09e7e15a50"
)

type cannedLedger struct {
	receipts map[string]*clients.Receipt
}

func (c *cannedLedger) GetTransactionReceipt(ctx context.Context, txHash string) (*clients.Receipt, error) {
	if r, ok := c.receipts[strings.ToLower(txHash)]; ok {
		return r, nil
	}
	return nil, &types.PaymentError{Code: types.ErrTxNotFound, Message: "transaction not found"}
}

func (c *cannedLedger) Close() {}

func usdcTransferReceipt(value *big.Int) *clients.Receipt {
	return &clients.Receipt{
		Success:     true,
		To:          types.BaseSepoliaUSDCAddress,
		BlockNumber: big.NewInt(100),
		Logs: []ethtypes.Log{{
			Address: common.HexToAddress(types.BaseSepoliaUSDCAddress),
			Topics: []common.Hash{
				common.HexToHash(transferTopicHex),
				common.BytesToHash(common.HexToAddress(payerAddress).Bytes()),
				common.BytesToHash(common.HexToAddress(vendorAddress).Bytes()),
			},
			Data: common.LeftPadBytes(value.Bytes(), 32),
		}},
	}
}

func newPay(t *testing.T) *InvoicePay {
	t.Helper()

	ledger := &cannedLedger{receipts: map[string]*clients.Receipt{
		strings.ToLower(testTxHash): usdcTransferReceipt(big.NewInt(5000000)),
	}}

	pay, err := New(types.DefaultBaseSepolia(),
		WithLedgerClient(ledger),
		WithStore(invoices.NewMemoryStore()),
	)
	require.NoError(t, err)
	return pay
}

func request(invoiceID string) *types.VerificationRequest {
	return &types.VerificationRequest{
		TxHash:            testTxHash,
		ExpectedAmount:    "5000000",
		ExpectedRecipient: vendorAddress,
		InvoiceID:         invoiceID,
	}
}

func TestVerifyAndSettle(t *testing.T) {
	pay := newPay(t)
	defer pay.Close()
	ctx := context.Background()

	inv, err := pay.Invoices().CreateInvoice(ctx, vendorAddress, "5000000", "")
	require.NoError(t, err)

	result, err := pay.VerifyAndSettle(ctx, request(inv.ID))
	require.NoError(t, err)
	require.True(t, result.Verified)

	got, err := pay.Invoices().GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPaid, got.Status)
	assert.Equal(t, testTxHash, got.PaidTxHash)
}

func TestVerifyAndSettle_ReplayBlocked(t *testing.T) {
	pay := newPay(t)
	defer pay.Close()
	ctx := context.Background()

	first, err := pay.Invoices().CreateInvoice(ctx, vendorAddress, "5000000", "")
	require.NoError(t, err)
	second, err := pay.Invoices().CreateInvoice(ctx, vendorAddress, "5000000", "")
	require.NoError(t, err)

	_, err = pay.VerifyAndSettle(ctx, request(first.ID))
	require.NoError(t, err)

	_, err = pay.VerifyAndSettle(ctx, request(second.ID))
	assert.ErrorIs(t, err, invoices.ErrTxAlreadyConsumed)
}

func TestVerifyAndSettle_RejectionDoesNotWrite(t *testing.T) {
	pay := newPay(t)
	defer pay.Close()
	ctx := context.Background()

	inv, err := pay.Invoices().CreateInvoice(ctx, vendorAddress, "5000000", "")
	require.NoError(t, err)

	req := request(inv.ID)
	req.ExpectedAmount = "5000001"

	result, err := pay.VerifyAndSettle(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, types.ErrAmountMismatch, result.Code)

	got, err := pay.Invoices().GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDue, got.Status)
}
