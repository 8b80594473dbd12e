// Package invoices persists invoices and the txHash consumption ledger that
// keeps one transaction from settling two invoices.
package invoices

import (
	"context"
	"errors"

	"github.com/JASSBR/invoice-usdc-base/types"
)

var (
	// ErrNotFound is returned when an invoice id is unknown.
	ErrNotFound = errors.New("invoice not found")

	// ErrAlreadyPaid is returned when marking an invoice paid with a
	// transaction other than the one that already settled it.
	ErrAlreadyPaid = errors.New("invoice already paid")

	// ErrTxAlreadyConsumed is returned when a transaction hash has already
	// been used to settle a different invoice.
	ErrTxAlreadyConsumed = errors.New("transaction already consumed by another invoice")
)

// Store is the invoice persistence interface. MarkPaid must be atomic: the
// status transition and the txHash consumption record succeed or fail
// together, and calling it twice with the same (id, txHash) pair is a no-op.
type Store interface {
	CreateInvoice(ctx context.Context, vendorAddress, amountUsdc, description string) (*types.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*types.Invoice, error)
	ListInvoices(ctx context.Context) ([]*types.Invoice, error)

	// MarkPending moves a DUE invoice to PENDING_VERIFY while the payer's
	// transaction awaits confirmation.
	MarkPending(ctx context.Context, id string) error

	// MarkPaid transitions the invoice to PAID and consumes txHash.
	MarkPaid(ctx context.Context, id, txHash, blockNumber string) error

	// MarkInvalid flags an invoice whose claimed payment was rejected.
	MarkInvalid(ctx context.Context, id string) error

	Close() error
}

func validateInvoiceInput(vendorAddress, amountUsdc string) error {
	if !types.IsHexAddress(vendorAddress) {
		return errors.New("invalid vendor address")
	}
	if _, err := parseAmount(amountUsdc); err != nil {
		return err
	}
	return nil
}
