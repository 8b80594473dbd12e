package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JASSBR/invoice-usdc-base/logger"
	"github.com/JASSBR/invoice-usdc-base/types"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, log logger.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL for concurrent readers during the MarkPaid write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if log == nil {
		log = logger.NoopLogger{}
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		vendor_address TEXT NOT NULL,
		amount_usdc TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		paid_tx_hash TEXT,
		paid_at_block TEXT
	);

	-- Consumption ledger: a transaction settles at most one invoice.
	CREATE TABLE IF NOT EXISTS payments (
		tx_hash TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices(id),
		block_number TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateInvoice(ctx context.Context, vendorAddress, amountUsdc, description string) (*types.Invoice, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, vendor_address, amount_usdc, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.VendorAddress, inv.AmountUsdc, inv.Description, string(inv.Status),
		inv.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting invoice: %w", err)
	}
	return inv, nil
}

func (s *SQLiteStore) GetInvoice(ctx context.Context, id string) (*types.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vendor_address, amount_usdc, description, status, created_at, paid_tx_hash, paid_at_block
		FROM invoices WHERE id = ?`, id)
	return scanInvoice(row)
}

func (s *SQLiteStore) ListInvoices(ctx context.Context) ([]*types.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vendor_address, amount_usdc, description, status, created_at, paid_tx_hash, paid_at_block
		FROM invoices ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var out []*types.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkPending(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, types.StatusPendingVerify)
}

func (s *SQLiteStore) MarkInvalid(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, types.StatusInvalid)
}

// setStatus applies a non-PAID transition. PAID invoices never move back.
func (s *SQLiteStore) setStatus(ctx context.Context, id string, status types.InvoiceStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ? WHERE id = ? AND status != ?`,
		string(status), id, string(types.StatusPaid),
	)
	if err != nil {
		return fmt.Errorf("updating invoice status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetInvoice(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyPaid
	}
	return nil
}

// MarkPaid runs the PAID transition and the consumption-ledger insert in one
// transaction, so a replayed txHash can never settle a second invoice even
// under concurrent verify calls.
func (s *SQLiteStore) MarkPaid(ctx context.Context, id, txHash, blockNumber string) error {
	key := strings.ToLower(txHash)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status, paidTxHash string
	err = tx.QueryRowContext(ctx,
		`SELECT status, COALESCE(paid_tx_hash, '') FROM invoices WHERE id = ?`, id,
	).Scan(&status, &paidTxHash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading invoice: %w", err)
	}

	if types.InvoiceStatus(status) == types.StatusPaid {
		if strings.EqualFold(paidTxHash, txHash) {
			return nil
		}
		return ErrAlreadyPaid
	}

	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT invoice_id FROM payments WHERE tx_hash = ?`, key,
	).Scan(&owner)
	if err == nil && owner != id {
		return ErrTxAlreadyConsumed
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking payment ledger: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payments (tx_hash, invoice_id, block_number, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tx_hash) DO NOTHING`,
		key, id, blockNumber, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("recording payment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE invoices SET status = ?, paid_tx_hash = ?, paid_at_block = ?
		WHERE id = ?`,
		string(types.StatusPaid), txHash, blockNumber, id,
	); err != nil {
		return fmt.Errorf("marking invoice paid: %w", err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*types.Invoice, error) {
	var inv types.Invoice
	var status, createdAt string
	var paidTxHash, paidAtBlock sql.NullString

	err := row.Scan(&inv.ID, &inv.VendorAddress, &inv.AmountUsdc, &inv.Description,
		&status, &createdAt, &paidTxHash, &paidAtBlock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning invoice: %w", err)
	}

	inv.Status = types.InvoiceStatus(status)
	inv.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	inv.PaidTxHash = paidTxHash.String
	inv.PaidAtBlock = paidAtBlock.String
	return &inv, nil
}
