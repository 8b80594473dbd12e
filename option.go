package invoicepay

import (
	"time"

	"github.com/JASSBR/invoice-usdc-base/clients"
	"github.com/JASSBR/invoice-usdc-base/invoices"
	"github.com/JASSBR/invoice-usdc-base/logger"
	"github.com/JASSBR/invoice-usdc-base/metrics"
)

type Option func(*InvoicePay)

func WithLogger(l logger.Logger) Option {
	return func(p *InvoicePay) {
		p.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(p *InvoicePay) {
		p.metrics = r
	}
}

func WithTimeout(t time.Duration) Option {
	return func(p *InvoicePay) {
		p.timeout = t
	}
}

// WithStore substitutes the invoice store (sqlite in the server, memory by
// default).
func WithStore(s invoices.Store) Option {
	return func(p *InvoicePay) {
		p.store = s
	}
}

// WithLedgerClient substitutes the ledger client, e.g. a test double
// returning canned receipts.
func WithLedgerClient(c clients.LedgerClient) Option {
	return func(p *InvoicePay) {
		p.client = c
	}
}
