package types

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// InvoiceStatus tracks the lifecycle of an invoice.
type InvoiceStatus string

const (
	StatusDue           InvoiceStatus = "DUE"
	StatusPendingVerify InvoiceStatus = "PENDING_VERIFY"
	StatusPaid          InvoiceStatus = "PAID"
	StatusInvalid       InvoiceStatus = "INVALID"
)

// Invoice is a fixed-amount USDC invoice issued by a vendor.
type Invoice struct {
	// Opaque unique identifier.
	ID string `json:"id"`

	// Address the payment must be sent to.
	VendorAddress string `json:"vendorAddress"`

	// Amount in the token's smallest unit (6 decimals for USDC).
	// Represented as a string because Go does not support uint256.
	AmountUsdc string `json:"amountUsdc"`

	// Free-form description shown to the payer.
	Description string `json:"description,omitempty"`

	Status    InvoiceStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`

	// Hash of the transaction that settled the invoice, set once PAID.
	PaidTxHash  string `json:"paidTxHash,omitempty"`
	PaidAtBlock string `json:"paidAtBlock,omitempty"`
}

// VerificationRequest is the payment claim submitted for verification.
type VerificationRequest struct {
	TxHash            string `json:"txHash" validate:"required"`
	ExpectedAmount    string `json:"expectedAmount" validate:"required"`
	ExpectedRecipient string `json:"expectedRecipient" validate:"required"`
	InvoiceID         string `json:"invoiceId" validate:"required"`
}

// VerificationResult is the verdict for a single payment claim.
type VerificationResult struct {
	Verified bool `json:"verified"`

	// Populated on success.
	InvoiceID       string `json:"invoiceId,omitempty"`
	TxHash          string `json:"txHash,omitempty"`
	BlockNumber     string `json:"blockNumber,omitempty"`
	Recipient       string `json:"recipient,omitempty"`
	Amount          string `json:"amount,omitempty"`
	AmountFormatted string `json:"amountFormatted,omitempty"`
	Message         string `json:"message,omitempty"`

	// Populated on rejection.
	Code          string `json:"code,omitempty"`
	InvalidReason string `json:"invalidReason,omitempty"`
}

// TransferEvent is a decoded ERC-20 Transfer log entry.
type TransferEvent struct {
	From  string
	To    string
	Value *big.Int
}

// PaymentError carries a machine-readable code alongside the message.
type PaymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *PaymentError) Error() string {
	return e.Message
}

// Retryable reports whether the caller may retry the same request later.
// Only ledger visibility and transport failures qualify; every other code
// is a definitive verdict on the claim.
func (e *PaymentError) Retryable() bool {
	return e.Code == ErrTxNotFound || e.Code == ErrTransientRead
}

// Verification error codes.
const (
	ErrMissingFields     = "missing_fields"
	ErrInvalidInput      = "invalid_input"
	ErrTxNotFound        = "tx_not_found"
	ErrTransientRead     = "transient_read_error"
	ErrTxFailed          = "tx_failed"
	ErrWrongContract     = "wrong_contract"
	ErrNoTransferEvent   = "no_transfer_event"
	ErrRecipientMismatch = "recipient_mismatch"
	ErrAmountMismatch    = "amount_mismatch"
	ErrInternal          = "internal_error"
)

var (
	addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashRe  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// IsHexAddress reports whether s is a 20-byte hex account identifier.
func IsHexAddress(s string) bool {
	return addressRe.MatchString(s)
}

// IsTxHash reports whether s is a 32-byte hex transaction hash.
func IsTxHash(s string) bool {
	return txHashRe.MatchString(s)
}

// Validate checks presence and syntax of all request fields.
// The ledger is never consulted here.
func (r *VerificationRequest) Validate() error {
	if r.TxHash == "" || r.ExpectedAmount == "" || r.ExpectedRecipient == "" || r.InvoiceID == "" {
		return &PaymentError{Code: ErrMissingFields, Message: "Missing required fields"}
	}

	if !IsTxHash(r.TxHash) {
		return &PaymentError{
			Code:    ErrInvalidInput,
			Message: fmt.Sprintf("invalid transaction hash: %s", r.TxHash),
		}
	}

	if !IsHexAddress(r.ExpectedRecipient) {
		return &PaymentError{
			Code:    ErrInvalidInput,
			Message: fmt.Sprintf("invalid recipient address: %s", r.ExpectedRecipient),
		}
	}

	amount, ok := new(big.Int).SetString(r.ExpectedAmount, 10)
	if !ok {
		return &PaymentError{
			Code:    ErrInvalidInput,
			Message: fmt.Sprintf("expectedAmount is not a base-10 integer: %s", r.ExpectedAmount),
		}
	}
	if amount.Sign() < 0 {
		return &PaymentError{Code: ErrInvalidInput, Message: "expectedAmount cannot be negative"}
	}

	return nil
}

// ExpectedAmountInt parses the expected amount as an arbitrary-precision
// integer. Validate must have been called first.
func (r *VerificationRequest) ExpectedAmountInt() *big.Int {
	amount, _ := new(big.Int).SetString(r.ExpectedAmount, 10)
	return amount
}

// SameAddress compares two hex account identifiers ignoring letter casing.
// Checksummed and lowercase presentations of the same address must match.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
