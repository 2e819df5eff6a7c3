/*
Package sqlite provides the SQLite-backed implementation of billing.Store.

PURPOSE:
  Implements the persistence surface the statement engine operates on.
  The database is SHARED with the import/sync collaborators: they own the
  customers, invoices and payments tables; this package owns the tracking
  and statement tables and only reads the rest.

KEY TABLES:
  customers:          Customer master rows (written by importers)
  invoices:           Raw invoice rows, free-text dates and paid flags
  payments:           Raw payment rows, soft invoice references
  payment_tracking:   Per-invoice reconciliation metadata
  statement_tracking: Statement headers; totals are never stored here
  invoice_tracking:   Invoice-to-statement assignments (at most one each)
  settings:           Typed key/value configuration

STORED VALUES:
  Dates are stored exactly as the importers wrote them (heterogeneous
  free text) and normalized at read time in the billing package. Amounts
  are stored as decimal strings and parsed back through billing.Money so
  cents stay exact.

CONCURRENCY:
  Opened in WAL mode; multiple readers don't block and SQLite serializes
  the single writer. A busy/locked condition during someone else's write
  is mapped to billing.ErrStoreBusy so callers can retry with fresh
  reads. The sync.RWMutex guards the rare multi-statement writes within
  this process.

NUMBER ALLOCATION:
  AllocateStatementNumber inserts a placeholder header, reads the
  store-assigned row id and relabels the row to "S"+zero-padded id, all
  inside one transaction. Uniqueness follows from row id monotonicity.

SEE ALSO:
  - billing/store.go: Interface definitions
  - settings.go:      Typed settings accessors
  - seed.go:          Write helpers for importer-owned tables (tests, CLI)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cssswagchs/billing-engine/billing"
)

// Store implements billing.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if needed) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema. The importer-owned tables are created here
// too so a fresh database works end to end, but their columns mirror what
// the importers write, not what the engine would design.
func (s *Store) migrate() error {
	schema := `
	-- Customer master (importer-owned)
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY,
		first_name TEXT,
		last_name TEXT,
		company TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_customers_company
		ON customers(company);

	-- Raw invoices (importer-owned; dates and paid flags are free text)
	CREATE TABLE IF NOT EXISTS invoices (
		invoice_number TEXT PRIMARY KEY,
		customer_id INTEGER NOT NULL,
		invoice_date TEXT,
		total TEXT NOT NULL DEFAULT '0',
		paid TEXT,
		status TEXT,
		po_number TEXT,
		nickname TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_customer
		ON invoices(customer_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_status
		ON invoices(status);

	-- Raw payments (importer-owned; invoice_number is a soft reference)
	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payment_date TEXT,
		amount TEXT NOT NULL DEFAULT '0',
		invoice_number TEXT,
		method TEXT,
		reference TEXT,
		customer_id INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_payments_invoice
		ON payments(invoice_number);
	CREATE INDEX IF NOT EXISTS idx_payments_customer
		ON payments(customer_id);

	-- Reconciliation metadata (last write wins; engine reads only)
	CREATE TABLE IF NOT EXISTS payment_tracking (
		invoice_number TEXT PRIMARY KEY,
		reconciled TEXT,
		notes TEXT
	);

	-- Statement headers (engine-owned). No totals columns on purpose:
	-- totals are derived from the currently tagged invoices.
	CREATE TABLE IF NOT EXISTS statement_tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		statement_number TEXT UNIQUE,
		customer_id INTEGER,
		customer_ids_text TEXT,
		generated_on TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		company_label TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		voided_at TEXT,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_statement_tracking_customer
		ON statement_tracking(customer_id);

	-- Invoice-to-statement assignments (engine-owned).
	-- invoice_number PRIMARY KEY enforces at most one assignment per invoice.
	CREATE TABLE IF NOT EXISTS invoice_tracking (
		invoice_number TEXT PRIMARY KEY,
		statement_number TEXT,
		tagged_on TEXT,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_invoice_tracking_statement
		ON invoice_tracking(statement_number);

	-- Typed key/value settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT,
		value_type TEXT NOT NULL DEFAULT 'str'
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INVOICE STORE (billing.InvoiceStore interface)
// =============================================================================

const invoiceColumns = `invoice_number, customer_id, COALESCE(invoice_date, ''),
	COALESCE(total, '0'), COALESCE(paid, ''), COALESCE(status, ''),
	COALESCE(po_number, ''), COALESCE(nickname, '')`

// InvoicesByCustomers returns all invoices for the given customers.
func (s *Store) InvoicesByCustomers(ctx context.Context, ids []billing.CustomerID) ([]billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM invoices WHERE customer_id IN (%s) ORDER BY invoice_number",
		invoiceColumns, placeholders(len(ids)),
	)
	return s.queryInvoices(ctx, query, customerArgs(ids)...)
}

// InvoicesByNumbers returns the invoices with the given numbers.
func (s *Store) InvoicesByNumbers(ctx context.Context, nums []billing.InvoiceNumber) ([]billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(nums) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM invoices WHERE invoice_number IN (%s) ORDER BY invoice_number",
		invoiceColumns, placeholders(len(nums)),
	)
	return s.queryInvoices(ctx, query, invoiceArgs(nums)...)
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]billing.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("query invoices", err)
	}
	defer rows.Close()

	var invoices []billing.Invoice
	for rows.Next() {
		var inv billing.Invoice
		var total string
		if err := rows.Scan(&inv.Number, &inv.CustomerID, &inv.RawDate,
			&total, &inv.PaidFlag, &inv.Status, &inv.PONumber, &inv.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.Total = billing.MustParseMoney(total)
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// =============================================================================
// PAYMENT STORE (billing.PaymentStore interface)
// =============================================================================

const paymentColumns = `COALESCE(p.payment_date, ''), COALESCE(p.amount, '0'),
	COALESCE(p.invoice_number, ''), COALESCE(p.method, ''),
	COALESCE(p.reference, ''), COALESCE(p.customer_id, 0)`

// PaymentsByInvoices returns every payment applied to the given invoices,
// irrespective of date.
func (s *Store) PaymentsByInvoices(ctx context.Context, nums []billing.InvoiceNumber) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(nums) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM payments p WHERE p.invoice_number IN (%s) ORDER BY p.id",
		paymentColumns, placeholders(len(nums)),
	)
	return s.queryPayments(ctx, query, invoiceArgs(nums)...)
}

// PaymentsForCustomers returns payments for the given customers, excluding
// those applied to invoices carrying a non-billable status. An empty id
// list means no customer filter: every billable payment qualifies, which
// is how a date-driven reconciliation search sweeps the whole store. The
// status exclusion runs in SQL; the optional single-day filter runs in Go
// because payment_date is free text the importers wrote.
func (s *Store) PaymentsForCustomers(ctx context.Context, ids []billing.CustomerID, excludedStatuses []string, onDay *time.Time) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT %s
		FROM payments p
		LEFT JOIN invoices i ON i.invoice_number = p.invoice_number`,
		paymentColumns,
	)

	var conds []string
	var args []any
	if len(ids) > 0 {
		conds = append(conds, fmt.Sprintf("p.customer_id IN (%s)", placeholders(len(ids))))
		args = append(args, customerArgs(ids)...)
	}
	if len(excludedStatuses) > 0 {
		conds = append(conds, fmt.Sprintf("(i.status IS NULL OR LOWER(i.status) NOT IN (%s))",
			placeholders(len(excludedStatuses))))
		for _, st := range excludedStatuses {
			args = append(args, strings.ToLower(st))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.id"

	payments, err := s.queryPayments(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if onDay == nil {
		return payments, nil
	}

	var filtered []billing.Payment
	for _, p := range payments {
		d, ok := billing.ParseDate(p.RawDate)
		if ok && d.Equal(*onDay) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]billing.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("query payments", err)
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		var p billing.Payment
		var amount string
		if err := rows.Scan(&p.RawDate, &amount, &p.InvoiceNumber,
			&p.Method, &p.Reference, &p.CustomerID); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount = billing.MustParseMoney(amount)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// PaymentTrackingFor returns reconciliation metadata keyed by invoice number.
func (s *Store) PaymentTrackingFor(ctx context.Context, nums []billing.InvoiceNumber) (map[billing.InvoiceNumber]billing.PaymentTrackingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(nums) == 0 {
		return map[billing.InvoiceNumber]billing.PaymentTrackingEntry{}, nil
	}

	query := fmt.Sprintf(`
		SELECT invoice_number, COALESCE(reconciled, ''), COALESCE(notes, '')
		FROM payment_tracking
		WHERE invoice_number IN (%s)`,
		placeholders(len(nums)),
	)

	rows, err := s.db.QueryContext(ctx, query, invoiceArgs(nums)...)
	if err != nil {
		return nil, mapErr("query payment tracking", err)
	}
	defer rows.Close()

	entries := make(map[billing.InvoiceNumber]billing.PaymentTrackingEntry)
	for rows.Next() {
		var e billing.PaymentTrackingEntry
		if err := rows.Scan(&e.InvoiceNumber, &e.Reconciled, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan payment tracking: %w", err)
		}
		entries[e.InvoiceNumber] = e
	}
	return entries, rows.Err()
}

// =============================================================================
// TRACKING STORE (billing.TrackingStore interface)
// =============================================================================

// InvoiceTracking returns the tracking row for an invoice, or nil.
func (s *Store) InvoiceTracking(ctx context.Context, num billing.InvoiceNumber) (*billing.InvoiceTrackingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e billing.InvoiceTrackingEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT invoice_number, COALESCE(statement_number, ''),
		       COALESCE(tagged_on, ''), COALESCE(notes, '')
		FROM invoice_tracking WHERE invoice_number = ?`,
		string(num),
	).Scan(&e.InvoiceNumber, &e.StatementNumber, &e.TaggedOn, &e.Notes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("query invoice tracking", err)
	}
	return &e, nil
}

// InsertTracking creates a tracking row for a previously untracked invoice.
func (s *Store) InsertTracking(ctx context.Context, e billing.InvoiceTrackingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_tracking (invoice_number, statement_number, tagged_on, notes)
		VALUES (?, ?, ?, ?)`,
		string(e.InvoiceNumber), nullIfEmpty(string(e.StatementNumber)),
		nullIfEmpty(e.TaggedOn), nullIfEmpty(e.Notes),
	)
	return mapErr("insert invoice tracking", err)
}

// AssignStatement sets statement_number and tagged_on on an existing row.
func (s *Store) AssignStatement(ctx context.Context, num billing.InvoiceNumber, stmt billing.StatementNumber, taggedOn time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE invoice_tracking
		SET statement_number = ?, tagged_on = ?
		WHERE invoice_number = ?`,
		string(stmt), taggedOn.UTC().Format("2006-01-02"), string(num),
	)
	return mapErr("assign statement", err)
}

// ClearAssignments nulls statement_number and tagged_on, preserving notes.
func (s *Store) ClearAssignments(ctx context.Context, nums []billing.InvoiceNumber) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(nums) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		UPDATE invoice_tracking
		SET statement_number = NULL, tagged_on = NULL
		WHERE invoice_number IN (%s)`,
		placeholders(len(nums)),
	)

	res, err := s.db.ExecContext(ctx, query, invoiceArgs(nums)...)
	if err != nil {
		return 0, mapErr("clear assignments", err)
	}
	return res.RowsAffected()
}

// DeleteTrackingByStatement removes the tracking rows tagged to a statement.
func (s *Store) DeleteTrackingByStatement(ctx context.Context, stmt billing.StatementNumber) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM invoice_tracking WHERE statement_number = ?", string(stmt))
	if err != nil {
		return 0, mapErr("delete tracking", err)
	}
	return res.RowsAffected()
}

// TrackedInvoices returns the invoice numbers tagged to a statement.
func (s *Store) TrackedInvoices(ctx context.Context, stmt billing.StatementNumber) ([]billing.InvoiceNumber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_number FROM invoice_tracking
		WHERE statement_number = ?
		ORDER BY invoice_number`,
		string(stmt),
	)
	if err != nil {
		return nil, mapErr("query tracked invoices", err)
	}
	defer rows.Close()

	var nums []billing.InvoiceNumber
	for rows.Next() {
		var num billing.InvoiceNumber
		if err := rows.Scan(&num); err != nil {
			return nil, fmt.Errorf("failed to scan tracked invoice: %w", err)
		}
		nums = append(nums, num)
	}
	return nums, rows.Err()
}

// InvoiceNote returns the free-text note for an invoice ("" if none).
func (s *Store) InvoiceNote(ctx context.Context, num billing.InvoiceNumber) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var note string
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(notes, '') FROM invoice_tracking WHERE invoice_number = ?",
		string(num),
	).Scan(&note)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", mapErr("query invoice note", err)
	}
	return note, nil
}

// SetInvoiceNote upserts the note, creating the tracking row lazily.
// The assignment columns are never touched.
func (s *Store) SetInvoiceNote(ctx context.Context, num billing.InvoiceNumber, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_tracking (invoice_number, notes)
		VALUES (?, ?)
		ON CONFLICT(invoice_number) DO UPDATE SET
			notes = excluded.notes`,
		string(num), note,
	)
	return mapErr("set invoice note", err)
}

// =============================================================================
// HEADER STORE (billing.HeaderStore interface)
// =============================================================================

const headerColumns = `id, COALESCE(statement_number, ''), COALESCE(customer_id, 0),
	COALESCE(customer_ids_text, ''), generated_on, COALESCE(start_date, ''),
	COALESCE(end_date, ''), COALESCE(company_label, ''), status,
	COALESCE(voided_at, ''), COALESCE(notes, '')`

// AllocateStatementNumber inserts a placeholder header, reads the assigned
// row id and relabels the row, all in one transaction.
func (s *Store) AllocateStatementNumber(ctx context.Context, h billing.StatementHeader) (billing.StatementNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", mapErr("begin allocation", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO statement_tracking
		(statement_number, customer_id, customer_ids_text, generated_on,
		 start_date, end_date, company_label, status, notes)
		VALUES (NULL, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(h.CustomerID), nullIfEmpty(h.CustomerIDsText), h.GeneratedOn,
		nullIfEmpty(h.StartDate), nullIfEmpty(h.EndDate),
		nullIfEmpty(h.CompanyLabel), billing.StatementActive, nullIfEmpty(h.Notes),
	)
	if err != nil {
		return "", mapErr("insert header", err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read header row id: %w", err)
	}
	number := billing.FormatStatementNumber(rowID)

	if _, err := tx.ExecContext(ctx,
		"UPDATE statement_tracking SET statement_number = ? WHERE id = ?",
		string(number), rowID,
	); err != nil {
		return "", mapErr("label header", err)
	}

	if err := tx.Commit(); err != nil {
		return "", mapErr("commit allocation", err)
	}
	return number, nil
}

// StatementHeader returns the header for a statement number, or nil.
func (s *Store) StatementHeader(ctx context.Context, stmt billing.StatementNumber) (*billing.StatementHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(
		"SELECT %s FROM statement_tracking WHERE statement_number = ?", headerColumns)

	var h billing.StatementHeader
	err := s.db.QueryRowContext(ctx, query, string(stmt)).Scan(
		&h.ID, &h.Number, &h.CustomerID, &h.CustomerIDsText, &h.GeneratedOn,
		&h.StartDate, &h.EndDate, &h.CompanyLabel, &h.Status, &h.VoidedAt, &h.Notes,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("query header", err)
	}
	return &h, nil
}

// HeadersForCustomers returns headers whose customer scope intersects ids.
// The scope may live in customer_id or in the comma-joined
// customer_ids_text, so the match happens after parsing, not in SQL.
func (s *Store) HeadersForCustomers(ctx context.Context, ids []billing.CustomerID) ([]billing.StatementHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM statement_tracking ORDER BY id DESC", headerColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapErr("query headers", err)
	}
	defer rows.Close()

	want := make(map[billing.CustomerID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var headers []billing.StatementHeader
	for rows.Next() {
		var h billing.StatementHeader
		if err := rows.Scan(
			&h.ID, &h.Number, &h.CustomerID, &h.CustomerIDsText, &h.GeneratedOn,
			&h.StartDate, &h.EndDate, &h.CompanyLabel, &h.Status, &h.VoidedAt, &h.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan header: %w", err)
		}
		for _, id := range h.CustomerIDs() {
			if want[id] {
				headers = append(headers, h)
				break
			}
		}
	}
	return headers, rows.Err()
}

// MarkStatementVoid sets status=VOID, records when, and appends the audit
// note. The row is kept so register history shows the void.
func (s *Store) MarkStatementVoid(ctx context.Context, stmt billing.StatementNumber, at time.Time, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE statement_tracking
		SET status = ?, voided_at = ?,
		    notes = TRIM(COALESCE(notes, '') || CASE WHEN COALESCE(notes, '') = '' THEN '' ELSE '; ' END || ?)
		WHERE statement_number = ?`,
		billing.StatementVoid, at.UTC().Format("2006-01-02 15:04:05"), note, string(stmt),
	)
	return mapErr("void statement", err)
}

// DeleteHeadersForCustomers removes header rows for the given customers.
// Only the company reset uses this; voids keep their headers.
func (s *Store) DeleteHeadersForCustomers(ctx context.Context, ids []billing.CustomerID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		"DELETE FROM statement_tracking WHERE customer_id IN (%s)",
		placeholders(len(ids)),
	)
	res, err := s.db.ExecContext(ctx, query, customerArgs(ids)...)
	if err != nil {
		return 0, mapErr("delete headers", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// CUSTOMER STORE (billing.CustomerStore interface)
// =============================================================================

// Customers returns all customer rows.
func (s *Store) Customers(ctx context.Context) ([]billing.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(company, '')
		FROM customers ORDER BY id`,
	)
	if err != nil {
		return nil, mapErr("query customers", err)
	}
	defer rows.Close()

	var customers []billing.Customer
	for rows.Next() {
		var c billing.Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Company); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// CustomerIDsByCompany resolves customer ids by company name.
// Case-insensitive on trimmed values; fuzzy matches a prefix.
func (s *Store) CustomerIDsByCompany(ctx context.Context, company string, fuzzy bool) ([]billing.CustomerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id FROM customers WHERE LOWER(TRIM(company)) = LOWER(TRIM(?)) ORDER BY id"
	arg := company
	if fuzzy {
		query = "SELECT id FROM customers WHERE LOWER(TRIM(company)) LIKE LOWER(TRIM(?)) || '%' ORDER BY id"
	}

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, mapErr("query company customers", err)
	}
	defer rows.Close()

	var ids []billing.CustomerID
	for rows.Next() {
		var id billing.CustomerID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan customer id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func customerArgs(ids []billing.CustomerID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return args
}

func invoiceArgs(nums []billing.InvoiceNumber) []any {
	args := make([]any, len(nums))
	for i, n := range nums {
		args[i] = string(n)
	}
	return args
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// mapErr wraps store errors, surfacing busy/locked as the retryable
// billing.ErrStoreBusy.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%s: %w: %v", op, billing.ErrStoreBusy, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
