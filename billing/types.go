/*
Package billing is the statement computation and reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms for turning raw
  invoice and payment rows into customer statements: ledger rows with
  derived totals, statement number allocation and tagging, voiding,
  aging buckets, and payment-flag integrity checks.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: an exact decimal dollar amount (never float64)
  - Invoice / Payment: raw rows as the import collaborators wrote them
  - Row: a merged invoice-or-payment statement line
  - Totals: billed/paid/balance, always recomputed from the row set

DESIGN PRINCIPLES:
  1. Derived totals: billed/paid/balance are computed from the rows a
     query actually returned, never accumulated separately.
  2. Precision: Money wraps decimal.Decimal to keep cents exact.
  3. Raw in, canonical out: dates and status strings arrive as free text
     from the import collaborators; normalization happens here, once.

SEE ALSO:
  - statement.go: the calculator producing rows and totals
  - dates.go:     date normalization
  - status.go:    billable/non-billable classification
*/
package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact decimal amounts
// =============================================================================

// Money is a dollar amount. Arithmetic stays in decimal space; the cent
// tolerance used for "effectively zero" comparisons lives in NearZero.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money      { return Money{Value: decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int64) Money { return Money{Value: decimal.NewFromInt(value)} }
func ZeroMoney() Money                  { return Money{Value: decimal.Zero} }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }
func (m Money) String() string           { return m.Value.StringFixed(2) }
func (m Money) Float64() float64         { f, _ := m.Value.Float64(); return f }

// centTolerance covers balances that round to $0.00 but carry sub-cent dust
// from REAL columns written by the importers.
var centTolerance = decimal.NewFromFloat(0.01)

// NearZero reports whether the amount is within a cent of zero.
func (m Money) NearZero() bool {
	return m.Value.Abs().LessThan(centTolerance)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CustomerID int64
type InvoiceNumber string
type StatementNumber string

// =============================================================================
// RAW ROWS - As written by the import/sync collaborators
// =============================================================================

// Invoice is a raw invoice row. The date and paid flag are free text; the
// engine normalizes them at read time and never writes them back.
type Invoice struct {
	Number     InvoiceNumber
	CustomerID CustomerID
	RawDate    string // heterogeneous formats, see dates.go
	Total      Money
	PaidFlag   string // free-text truthy value ("yes", "Paid", "1", ...)
	Status     string // free-text workflow status
	PONumber   string
	Nickname   string
}

// Payment is a raw payment row. InvoiceNumber is a soft reference; amounts
// are never negative in valid data but the engine sums whatever is stored.
type Payment struct {
	RawDate       string
	Amount        Money
	InvoiceNumber InvoiceNumber
	Method        string
	Reference     string
	CustomerID    CustomerID
}

// PaymentTrackingEntry carries per-invoice reconciliation metadata.
// Last write wins; the engine only reads it.
type PaymentTrackingEntry struct {
	InvoiceNumber InvoiceNumber
	Reconciled    string // free-text; "yes" means reconciled
	Notes         string
}

// Customer is the slice of the customer row the engine needs for grouping
// and company resolution. Master data is owned by the import collaborator.
type Customer struct {
	ID        CustomerID
	FirstName string
	LastName  string
	Company   string
}

// PaidFlagTruthy reports whether a free-text paid flag reads as "paid".
func PaidFlagTruthy(flag string) bool {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "yes", "true", "paid", "y", "1":
		return true
	}
	return false
}

// ReconciledTruthy reports whether a payment_tracking reconciled flag is set.
func ReconciledTruthy(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "yes")
}
