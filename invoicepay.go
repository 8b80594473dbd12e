// Package invoicepay verifies on-chain USDC payments against vendor
// invoices: a payer submits a transaction hash, and the verifier confirms
// from the ledger that the transfer really happened, targeted the right
// token contract, and moved the exact expected amount to the exact expected
// recipient before the invoice is marked paid.
package invoicepay

import (
	"context"
	"fmt"
	"time"

	"github.com/JASSBR/invoice-usdc-base/clients"
	"github.com/JASSBR/invoice-usdc-base/invoices"
	"github.com/JASSBR/invoice-usdc-base/logger"
	"github.com/JASSBR/invoice-usdc-base/metrics"
	"github.com/JASSBR/invoice-usdc-base/types"
	"github.com/JASSBR/invoice-usdc-base/verification"
)

// InvoicePay bundles the verifier, the ledger client and the invoice store
// for one token contract on one chain.
type InvoicePay struct {
	verifier *verification.Verifier
	store    invoices.Store
	client   clients.LedgerClient

	chain   types.ChainConfig
	logger  logger.Logger
	metrics metrics.Recorder
	timeout time.Duration
}

// New creates an InvoicePay instance. Without options it dials the chain's
// RPC endpoint and keeps invoices in memory.
func New(chain types.ChainConfig, opts ...Option) (*InvoicePay, error) {
	p := &InvoicePay{
		chain:   chain,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		client, err := clients.NewEVMClient(chain.Network, chain.RPCUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger client for %s: %w", chain.Network, err)
		}
		p.client = client
	}

	if p.store == nil {
		p.store = invoices.NewMemoryStore()
	}

	verifier, err := verification.New(chain, p.client,
		verification.WithLogger(p.logger),
		verification.WithMetrics(p.metrics),
		verification.WithTimeout(p.timeout),
	)
	if err != nil {
		return nil, err
	}
	p.verifier = verifier

	return p, nil
}

// Verify checks a payment claim against the ledger. It performs no writes.
func (p *InvoicePay) Verify(ctx context.Context, req *types.VerificationRequest) (*types.VerificationResult, error) {
	return p.verifier.Verify(ctx, req)
}

// VerifyWithRetry retries retryable outcomes, typically while waiting for
// the transaction to be mined.
func (p *InvoicePay) VerifyWithRetry(ctx context.Context, req *types.VerificationRequest, maxRetries int, retryDelay time.Duration) (*types.VerificationResult, error) {
	return p.verifier.VerifyWithRetry(ctx, req, maxRetries, retryDelay)
}

// BatchVerify verifies multiple payment claims concurrently.
func (p *InvoicePay) BatchVerify(ctx context.Context, reqs []*types.VerificationRequest) ([]*types.VerificationResult, error) {
	return p.verifier.BatchVerify(ctx, reqs)
}

// VerifyAndSettle verifies the claim and, on a positive verdict, marks the
// invoice paid. The write is idempotent per txHash: replaying the same
// transaction against a second invoice fails with ErrTxAlreadyConsumed.
func (p *InvoicePay) VerifyAndSettle(ctx context.Context, req *types.VerificationRequest) (*types.VerificationResult, error) {
	result, err := p.verifier.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	if !result.Verified {
		return result, nil
	}

	if err := p.store.MarkPaid(ctx, result.InvoiceID, result.TxHash, result.BlockNumber); err != nil {
		return nil, err
	}
	return result, nil
}

// Invoices exposes the invoice store.
func (p *InvoicePay) Invoices() invoices.Store {
	return p.store
}

// Verifier exposes the underlying verifier.
func (p *InvoicePay) Verifier() *verification.Verifier {
	return p.verifier
}

// Close releases the ledger client and the store.
func (p *InvoicePay) Close() {
	p.client.Close()
	p.store.Close()
}

const Version = "1.0.0"
