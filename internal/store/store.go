// Package store persists confirmed invoices in SQLite. A stored invoice is the
// source of truth for every export.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"factures/internal/logger"
	"factures/pkg/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrInvoiceNotFound is returned when no invoice has the requested id.
var ErrInvoiceNotFound = errors.New("invoice not found")

// migrations are applied in order; the index + 1 is the schema version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		invoice_number TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		invoice_date TEXT NOT NULL DEFAULT '',
		pre_tax_amount REAL,
		tax_amount REAL,
		total_amount REAL,
		tax_rate_percent REAL,
		verification_status TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_created_at ON invoices (created_at)`,
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const invoiceColumns = `id, invoice_number, vendor, description, category, invoice_date,
	pre_tax_amount, tax_amount, total_amount, tax_rate_percent,
	verification_status, reason, created_at, updated_at`

// Store is the SQLite invoice store.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// Open opens (and creates if needed) the database at path and migrates it.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	const op = "store.Open"

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	if path == ":memory:" {
		dsn = "file::memory:"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}
	// SQLite has a single writer; an in-memory database also exists only
	// within its connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	s := &Store{
		db:  db,
		now: time.Now,
		log: logger.WithComponent("store"),
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().Str("path", path).Msg("Invoice store ready")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			version, s.now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}
		s.log.Info().Int("version", version).Msg("Applied migration")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a new invoice. An empty id is replaced by a new UUID; the
// timestamps are set by the store.
func (s *Store) Save(ctx context.Context, inv *models.Invoice) error {
	const op = "store.Save"

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.InvoiceNumber,
		inv.Vendor,
		inv.Description,
		inv.Category,
		inv.InvoiceDate,
		nullable(inv.PreTaxAmount),
		nullable(inv.TaxAmount),
		nullable(inv.TotalAmount),
		nullable(inv.TaxRatePercent),
		inv.VerificationStatus,
		inv.Reason,
		formatTime(inv.CreatedAt),
		formatTime(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to insert invoice %s: %w", op, inv.ID, err)
	}

	s.log.Debug().Str("invoice_id", inv.ID).Msg("Invoice saved")
	return nil
}

// Update replaces the stored fields of an existing invoice.
func (s *Store) Update(ctx context.Context, inv *models.Invoice) error {
	const op = "store.Update"

	inv.UpdatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx, `UPDATE invoices SET
		invoice_number = ?, vendor = ?, description = ?, category = ?, invoice_date = ?,
		pre_tax_amount = ?, tax_amount = ?, total_amount = ?, tax_rate_percent = ?,
		verification_status = ?, reason = ?, updated_at = ?
		WHERE id = ?`,
		inv.InvoiceNumber,
		inv.Vendor,
		inv.Description,
		inv.Category,
		inv.InvoiceDate,
		nullable(inv.PreTaxAmount),
		nullable(inv.TaxAmount),
		nullable(inv.TotalAmount),
		nullable(inv.TaxRatePercent),
		inv.VerificationStatus,
		inv.Reason,
		formatTime(inv.UpdatedAt),
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to update invoice %s: %w", op, inv.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %s: %w", op, inv.ID, ErrInvoiceNotFound)
	}
	return nil
}

// Get returns the invoice with the given id.
func (s *Store) Get(ctx context.Context, id string) (*models.Invoice, error) {
	const op = "store.Get"

	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %s: %w", op, id, ErrInvoiceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read invoice %s: %w", op, id, err)
	}
	return inv, nil
}

// List returns every stored invoice, oldest first.
func (s *Store) List(ctx context.Context) ([]models.Invoice, error) {
	const op = "store.List"

	rows, err := s.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query invoices: %w", op, err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read invoice: %w", op, err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return invoices, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row scanner) (*models.Invoice, error) {
	var (
		inv                      models.Invoice
		preTax, tax, total, rate sql.NullFloat64
		createdAt, updatedAt     string
	)
	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.Vendor,
		&inv.Description,
		&inv.Category,
		&inv.InvoiceDate,
		&preTax,
		&tax,
		&total,
		&rate,
		&inv.VerificationStatus,
		&inv.Reason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.PreTaxAmount = fromNullable(preTax)
	inv.TaxAmount = fromNullable(tax)
	inv.TotalAmount = fromNullable(total)
	inv.TaxRatePercent = fromNullable(rate)
	inv.CreatedAt = parseTime(createdAt)
	inv.UpdatedAt = parseTime(updatedAt)
	return &inv, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
