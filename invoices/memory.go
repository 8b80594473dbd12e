package invoices

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JASSBR/invoice-usdc-base/types"
)

// MemoryStore is an in-process Store for tests and single-node demos.
type MemoryStore struct {
	mu       sync.Mutex
	invoices map[string]*types.Invoice

	// consumed maps lowercased txHash to the invoice it settled.
	consumed map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string]*types.Invoice),
		consumed: make(map[string]string),
	}
}

func (s *MemoryStore) CreateInvoice(ctx context.Context, vendorAddress, amountUsdc, description string) (*types.Invoice, error) {
	if err := validateInvoiceInput(vendorAddress, amountUsdc); err != nil {
		return nil, err
	}

	inv := &types.Invoice{
		ID:            uuid.NewString(),
		VendorAddress: vendorAddress,
		AmountUsdc:    amountUsdc,
		Description:   description,
		Status:        types.StatusDue,
		CreatedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv

	cp := *inv
	return &cp, nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id string) (*types.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *MemoryStore) ListInvoices(ctx context.Context) ([]*types.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		cp := *inv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkPending(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return ErrNotFound
	}
	if inv.Status == types.StatusPaid {
		return ErrAlreadyPaid
	}
	inv.Status = types.StatusPendingVerify
	return nil
}

func (s *MemoryStore) MarkPaid(ctx context.Context, id, txHash, blockNumber string) error {
	key := strings.ToLower(txHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return ErrNotFound
	}

	if inv.Status == types.StatusPaid {
		if strings.EqualFold(inv.PaidTxHash, txHash) {
			return nil
		}
		return ErrAlreadyPaid
	}

	if owner, used := s.consumed[key]; used && owner != id {
		return ErrTxAlreadyConsumed
	}

	s.consumed[key] = id
	inv.Status = types.StatusPaid
	inv.PaidTxHash = txHash
	inv.PaidAtBlock = blockNumber
	return nil
}

func (s *MemoryStore) MarkInvalid(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return ErrNotFound
	}
	if inv.Status == types.StatusPaid {
		return ErrAlreadyPaid
	}
	inv.Status = types.StatusInvalid
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func parseAmount(amount string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, errors.New("amount must be a base-10 integer in smallest units")
	}
	if v.Sign() <= 0 {
		return nil, errors.New("amount must be positive")
	}
	return v, nil
}
