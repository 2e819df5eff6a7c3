/*
store.go - Persistence interfaces between the engine and the store

PURPOSE:
  Defines what the engine needs from the shared persistent store. One
  SQLite implementation exists (store/sqlite); the interfaces keep the
  domain logic free of SQL and make the components testable against any
  conforming store.

CONNECTION MODEL:
  Every method runs a bounded statement sequence on a short-lived
  connection and returns; no transaction spans user think-time. There is
  no application-level lock: correctness relies on the store's native
  single-writer serialization, and a busy/locked condition surfaces as
  the retryable ErrStoreBusy.

WRITE DISCIPLINE:
  Tagging uses read-then-decide, never insert-or-replace: the Tracker
  must observe an existing assignment and report it as a conflict, not
  have the store silently overwrite it.
*/
package billing

import (
	"context"
	"time"
)

// =============================================================================
// STATEMENT HEADER AND TRACKING RECORDS
// =============================================================================

// Statement header status values.
const (
	StatementActive = "ACTIVE"
	StatementVoid   = "VOID"
)

// StatementHeader is a statement_tracking row. Totals are NOT stored here;
// they are always derived from the currently tagged invoices (register.go).
type StatementHeader struct {
	ID              int64
	Number          StatementNumber
	CustomerID      CustomerID
	CustomerIDsText string // comma-joined ids for multi-customer companies
	GeneratedOn     string
	StartDate       string
	EndDate         string
	CompanyLabel    string
	Status          string // StatementActive or StatementVoid
	VoidedAt        string
	Notes           string
}

// CustomerIDs returns the full customer scope of the header: the parsed
// customer_ids_text when present, else the single customer_id.
func (h *StatementHeader) CustomerIDs() []CustomerID {
	ids := ParseCustomerIDs(h.CustomerIDsText)
	if len(ids) == 0 && h.CustomerID != 0 {
		ids = []CustomerID{h.CustomerID}
	}
	return ids
}

// InvoiceTrackingEntry is an invoice_tracking row. Invariant: at most one
// non-empty StatementNumber per invoice at any time. Clearing the
// assignment keeps the row so Notes survive voids and resets.
type InvoiceTrackingEntry struct {
	InvoiceNumber   InvoiceNumber
	StatementNumber StatementNumber // empty = untagged
	TaggedOn        string
	Notes           string
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// InvoiceStore fetches raw invoice rows.
type InvoiceStore interface {
	// InvoicesByCustomers returns all invoices for the given customers.
	InvoicesByCustomers(ctx context.Context, ids []CustomerID) ([]Invoice, error)

	// InvoicesByNumbers returns the invoices with the given numbers.
	InvoicesByNumbers(ctx context.Context, nums []InvoiceNumber) ([]Invoice, error)
}

// PaymentStore fetches raw payment rows and reconciliation metadata.
type PaymentStore interface {
	// PaymentsByInvoices returns ALL payments applied to the given
	// invoices, irrespective of date. A statement must show every payment
	// ever applied to a shown invoice or its balance would be wrong.
	PaymentsByInvoices(ctx context.Context, nums []InvoiceNumber) ([]Payment, error)

	// PaymentsForCustomers returns payments scoped to customers, joined to
	// invoice status so non-billable invoices are excluded in SQL, with an
	// optional single-day filter. Used only by the generic/reconcile mode
	// when no prior invoice filter exists.
	PaymentsForCustomers(ctx context.Context, ids []CustomerID, excludedStatuses []string, onDay *time.Time) ([]Payment, error)

	// PaymentTrackingFor returns reconciliation metadata for the given
	// invoices, keyed by invoice number. Missing entries are absent.
	PaymentTrackingFor(ctx context.Context, nums []InvoiceNumber) (map[InvoiceNumber]PaymentTrackingEntry, error)
}

// TrackingStore reads and writes invoice→statement assignments.
type TrackingStore interface {
	// InvoiceTracking returns the tracking row for an invoice, or nil.
	InvoiceTracking(ctx context.Context, num InvoiceNumber) (*InvoiceTrackingEntry, error)

	// InsertTracking creates a tracking row for a previously untracked
	// invoice. Fails on a duplicate primary key.
	InsertTracking(ctx context.Context, e InvoiceTrackingEntry) error

	// AssignStatement sets statement_number and tagged_on on an existing
	// row. Notes are untouched.
	AssignStatement(ctx context.Context, num InvoiceNumber, stmt StatementNumber, taggedOn time.Time) error

	// ClearAssignments nulls statement_number and tagged_on for the given
	// invoices, preserving notes. Returns the number of rows cleared.
	ClearAssignments(ctx context.Context, nums []InvoiceNumber) (int64, error)

	// DeleteTrackingByStatement removes the tracking rows tagged to a
	// statement, releasing those invoices. Returns rows deleted.
	DeleteTrackingByStatement(ctx context.Context, stmt StatementNumber) (int64, error)

	// TrackedInvoices returns the invoice numbers tagged to a statement.
	TrackedInvoices(ctx context.Context, stmt StatementNumber) ([]InvoiceNumber, error)

	// InvoiceNote returns the free-text note for an invoice ("" if none).
	InvoiceNote(ctx context.Context, num InvoiceNumber) (string, error)

	// SetInvoiceNote upserts the note, creating the tracking row lazily.
	// Never touches statement_number.
	SetInvoiceNote(ctx context.Context, num InvoiceNumber, note string) error
}

// HeaderStore manages statement_tracking header rows.
type HeaderStore interface {
	// AllocateStatementNumber inserts a placeholder header, derives the
	// "S"+zero-padded label from the store-assigned row id, and relabels
	// the row — all inside one transaction so two concurrent callers can
	// never observe the same unlabeled row id.
	AllocateStatementNumber(ctx context.Context, h StatementHeader) (StatementNumber, error)

	// StatementHeader returns the header for a statement number, or nil.
	StatementHeader(ctx context.Context, stmt StatementNumber) (*StatementHeader, error)

	// HeadersForCustomers returns headers whose customer_id is in ids or
	// whose customer_ids_text contains one of them.
	HeadersForCustomers(ctx context.Context, ids []CustomerID) ([]StatementHeader, error)

	// MarkStatementVoid sets status=VOID, records voided_at, and appends
	// an audit note. The header row is kept.
	MarkStatementVoid(ctx context.Context, stmt StatementNumber, at time.Time, note string) error

	// DeleteHeadersForCustomers removes header rows belonging to the given
	// customers. Returns rows deleted. Used only by the company reset.
	DeleteHeadersForCustomers(ctx context.Context, ids []CustomerID) (int64, error)
}

// CustomerStore reads customer master rows written by the importers.
type CustomerStore interface {
	// Customers returns all customer rows.
	Customers(ctx context.Context) ([]Customer, error)

	// CustomerIDsByCompany resolves customer ids by company name, exact
	// match or prefix match when fuzzy is true. Case-insensitive, trimmed.
	CustomerIDsByCompany(ctx context.Context, company string, fuzzy bool) ([]CustomerID, error)
}

// Store is the full persistence surface the engine operates on.
type Store interface {
	InvoiceStore
	PaymentStore
	TrackingStore
	HeaderStore
	CustomerStore
}
