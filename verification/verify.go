// Package verification decides whether an on-chain transaction constitutes
// valid, sufficient, final payment of an invoice.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JASSBR/invoice-usdc-base/clients"
	"github.com/JASSBR/invoice-usdc-base/logger"
	"github.com/JASSBR/invoice-usdc-base/metrics"
	"github.com/JASSBR/invoice-usdc-base/types"
	"github.com/JASSBR/invoice-usdc-base/utils"
)

const defaultTimeout = 30 * time.Second

// Verifier checks payment claims against ledger truth. It holds no mutable
// state: concurrent Verify calls need no locking, and the verifier itself
// never writes anything. Marking the invoice paid is the caller's job.
type Verifier struct {
	client  clients.LedgerClient
	chain   types.ChainConfig
	logger  logger.Logger
	metrics metrics.Recorder
	timeout time.Duration
}

type Option func(*Verifier)

func WithLogger(l logger.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(v *Verifier) { v.metrics = r }
}

// WithTimeout bounds the ledger read. Expiry surfaces as a retryable
// transient_read_error, never as a rejection of the payment.
func WithTimeout(t time.Duration) Option {
	return func(v *Verifier) { v.timeout = t }
}

// New creates a verifier for one fixed token contract on one fixed chain.
// The ledger client is injected so tests can substitute canned receipts.
func New(chain types.ChainConfig, client clients.LedgerClient, opts ...Option) (*Verifier, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("ledger client is required")
	}

	v := &Verifier{
		client:  client,
		chain:   chain,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify runs the fixed check sequence for a single payment claim:
// input validation, receipt fetch, execution status, contract target,
// transfer event scan, recipient, amount. Each step short-circuits with a
// specific rejection code; a verdict is always returned, rejections are not
// Go errors.
func (v *Verifier) Verify(ctx context.Context, req *types.VerificationRequest) (*types.VerificationResult, error) {
	start := time.Now()
	result := v.verify(ctx, req)
	v.metrics.ObserveLatency("verify", time.Since(start), nil)

	if result.Verified {
		v.metrics.IncCounter("verified", nil)
		v.logger.Info("payment verified", map[string]any{
			"invoiceId": result.InvoiceID,
			"txHash":    result.TxHash,
			"amount":    result.Amount,
			"recipient": result.Recipient,
			"block":     result.BlockNumber,
		})
	} else {
		v.metrics.IncCounter(result.Code, nil)
		v.logger.Info("payment rejected", map[string]any{
			"invoiceId": req.InvoiceID,
			"txHash":    req.TxHash,
			"code":      result.Code,
			"reason":    result.InvalidReason,
		})
	}

	return result, nil
}

func (v *Verifier) verify(ctx context.Context, req *types.VerificationRequest) *types.VerificationResult {
	if err := req.Validate(); err != nil {
		var pe *types.PaymentError
		if errors.As(err, &pe) {
			return reject(req, pe.Code, pe.Message)
		}
		return reject(req, types.ErrInvalidInput, err.Error())
	}

	// The only step with network I/O.
	readCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	receipt, err := v.client.GetTransactionReceipt(readCtx, req.TxHash)
	if err != nil {
		var pe *types.PaymentError
		if errors.As(err, &pe) {
			return reject(req, pe.Code, pe.Message)
		}
		return reject(req, types.ErrTransientRead, fmt.Sprintf("failed to read receipt: %v", err))
	}

	if !receipt.Success {
		return reject(req, types.ErrTxFailed, "Transaction failed onchain")
	}

	if !types.SameAddress(receipt.To, v.chain.TokenAddress) {
		return reject(req, types.ErrWrongContract, fmt.Sprintf(
			"Transaction does not target USDC contract. Expected: %s, Got: %s",
			v.chain.TokenAddress, receipt.To,
		))
	}

	transfer := v.findTransfer(receipt)
	if transfer == nil {
		return reject(req, types.ErrNoTransferEvent, "No USDC Transfer event found in transaction logs")
	}

	if !types.SameAddress(transfer.To, req.ExpectedRecipient) {
		return reject(req, types.ErrRecipientMismatch, fmt.Sprintf(
			"Recipient mismatch. Expected: %s, Got: %s",
			req.ExpectedRecipient, transfer.To,
		))
	}

	expected := req.ExpectedAmountInt()
	if transfer.Value.Cmp(expected) != 0 {
		return reject(req, types.ErrAmountMismatch, fmt.Sprintf(
			"Amount mismatch. Expected: %s, Got: %s",
			expected.String(), transfer.Value.String(),
		))
	}

	blockNumber := "0"
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.String()
	}

	return &types.VerificationResult{
		Verified:        true,
		InvoiceID:       req.InvoiceID,
		TxHash:          req.TxHash,
		BlockNumber:     blockNumber,
		Recipient:       transfer.To,
		Amount:          transfer.Value.String(),
		AmountFormatted: utils.FormatUnits(transfer.Value, v.chain.TokenDecimals),
		Message:         "Payment verified onchain successfully",
	}
}

// findTransfer scans the logs in receipt order and returns the first entry
// that originates from the token contract and decodes as a Transfer event.
// Entries that fail to decode are skipped; a transaction may carry approval
// events or transfers of other tokens alongside the one that matters.
func (v *Verifier) findTransfer(receipt *clients.Receipt) *types.TransferEvent {
	for _, entry := range receipt.Logs {
		if !types.SameAddress(entry.Address.Hex(), v.chain.TokenAddress) {
			continue
		}
		if transfer, ok := clients.TryDecodeTransfer(entry); ok {
			return transfer
		}
	}
	return nil
}

func reject(req *types.VerificationRequest, code, reason string) *types.VerificationResult {
	return &types.VerificationResult{
		Verified:      false,
		InvoiceID:     req.InvoiceID,
		TxHash:        req.TxHash,
		Code:          code,
		InvalidReason: reason,
	}
}

// BatchVerify verifies multiple payment claims concurrently. Results are
// returned in request order.
func (v *Verifier) BatchVerify(ctx context.Context, reqs []*types.VerificationRequest) ([]*types.VerificationResult, error) {
	if len(reqs) == 0 {
		return nil, &types.PaymentError{
			Code:    types.ErrInvalidInput,
			Message: "at least one verification request is required",
		}
	}

	type indexed struct {
		index  int
		result *types.VerificationResult
		err    error
	}

	resultChan := make(chan indexed, len(reqs))

	for i, req := range reqs {
		go func(index int, r *types.VerificationRequest) {
			result, err := v.Verify(ctx, r)
			resultChan <- indexed{index: index, result: result, err: err}
		}(i, req)
	}

	results := make([]*types.VerificationResult, len(reqs))
	for i := 0; i < len(reqs); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-resultChan:
			if res.err != nil {
				return nil, res.err
			}
			results[res.index] = res.result
		}
	}

	return results, nil
}

// VerifyWithRetry retries only retryable outcomes: a hash not yet visible or
// a failed ledger read. Definitive rejections return immediately; retrying
// them cannot change the verdict.
func (v *Verifier) VerifyWithRetry(
	ctx context.Context,
	req *types.VerificationRequest,
	maxRetries int,
	retryDelay time.Duration,
) (*types.VerificationResult, error) {
	var last *types.VerificationResult

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		result, err := v.Verify(ctx, req)
		if err != nil {
			return nil, err
		}

		if result.Verified || !isRetryable(result.Code) {
			return result, nil
		}
		last = result
	}

	return last, nil
}

func isRetryable(code string) bool {
	return code == types.ErrTxNotFound || code == types.ErrTransientRead
}

// Chain returns the chain configuration the verifier was built with.
func (v *Verifier) Chain() types.ChainConfig {
	return v.chain
}
