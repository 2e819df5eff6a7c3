/*
statement.go - Statement row derivation and totals

PURPOSE:
  StatementCalculator turns raw invoice and payment rows into the ordered
  ledger a statement displays, plus its totals. This is the heart of the
  engine and carries its central correctness property:

    TOTALS ALWAYS MATCH THE DISPLAYED ROWS.

  Billed, paid, and balance are recomputed strictly from the row set the
  query returns — never from a separately accumulated running total — so
  a statement can never show numbers its own rows do not add up to.

PIPELINE (Fetch):
  1. Select invoices for the customer scope; drop total == 0 invoices
     entirely (a zero-dollar invoice is never a bill).
  2. Classify status: Strict policy when unpaid_only, else Historical.
     When unpaid_only, also drop invoices whose paid flag reads truthy.
  3. Normalize the invoice date; when a range is given, drop rows outside
     it (unparseable dates fail closed, see dates.go).
  4. Fetch payments: ALL payments for the surviving invoice set,
     irrespective of date — a payment outside the window still moved the
     balance of a shown invoice. Only when the invoice set is empty
     (generic/reconcile mode) fall back to a customer/date-scoped payment
     query that excludes non-billable invoices in SQL. An empty customer
     scope widens that fallback to every customer, which is how the desk
     hunts down a payment knowing only its date.
  5. Merge reconciliation metadata; when unreconciled_only, drop payments
     already marked reconciled.
  6. Sort by (date, numeric substring of the invoice number) so "INV-9"
     sorts before "INV-10".
  7. Recompute totals from the merged rows.

EDGE CASES:
  Duplicate payment rows are summed as stored, not deduplicated.
  Zero-total invoices never appear under any filter combination.
*/
package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// ROWS AND TOTALS
// =============================================================================

type RowKind string

const (
	RowInvoice RowKind = "Invoice"
	RowPayment RowKind = "Payment"
)

// Row is one statement line: an invoice or a payment.
type Row struct {
	Date          *time.Time // nil when the stored date was unparseable
	Kind          RowKind
	InvoiceNumber InvoiceNumber
	Amount        Money

	// Invoice rows
	PaidFlag string
	PONumber string
	Nickname string

	// Payment rows
	Method     string
	Reference  string
	Note       string
	Reconciled bool
}

// Totals are derived from a row set. Balance == Billed - Paid, to the cent.
type Totals struct {
	Billed  Money
	Paid    Money
	Balance Money
}

// TotalsOf recomputes totals strictly from the given rows.
func TotalsOf(rows []Row) Totals {
	billed, paid := ZeroMoney(), ZeroMoney()
	for _, r := range rows {
		switch r.Kind {
		case RowInvoice:
			billed = billed.Add(r.Amount)
		case RowPayment:
			paid = paid.Add(r.Amount)
		}
	}
	return Totals{Billed: billed, Paid: paid, Balance: billed.Sub(paid)}
}

// =============================================================================
// QUERY AND CALCULATOR
// =============================================================================

// StatementQuery scopes a Fetch.
type StatementQuery struct {
	CustomerIDs      []CustomerID
	StartDate        *time.Time
	EndDate          *time.Time
	UnpaidOnly       bool // Strict status policy + truthy paid flag excluded
	UnreconciledOnly bool // drop payments already marked reconciled
}

// StatementCalculator derives statement rows and totals from the store.
type StatementCalculator struct {
	Store      Store
	Classifier *StatusClassifier
}

func NewStatementCalculator(store Store, classifier *StatusClassifier) *StatementCalculator {
	return &StatementCalculator{Store: store, Classifier: classifier}
}

// Fetch returns the ordered ledger rows and totals for the query scope.
// Calling it twice against an unchanged store returns identical results.
func (c *StatementCalculator) Fetch(ctx context.Context, q StatementQuery) ([]Row, Totals, error) {
	policy := PolicyHistorical
	if q.UnpaidOnly {
		policy = PolicyStrict
	}

	var rows []Row
	invoiceSet := make(map[InvoiceNumber]bool)

	if len(q.CustomerIDs) > 0 {
		invoices, err := c.Store.InvoicesByCustomers(ctx, q.CustomerIDs)
		if err != nil {
			return nil, Totals{}, fmt.Errorf("fetch invoices: %w", err)
		}

		for _, inv := range invoices {
			if inv.Total.IsZero() {
				continue // a $0 invoice is never a bill
			}
			if !c.Classifier.Include(inv.Status, policy) {
				continue
			}
			if q.UnpaidOnly && PaidFlagTruthy(inv.PaidFlag) {
				continue
			}

			d, ok := ParseDate(inv.RawDate)
			if q.StartDate != nil || q.EndDate != nil {
				if !InRange(d, ok, q.StartDate, q.EndDate) {
					continue
				}
			}

			row := Row{
				Kind:          RowInvoice,
				InvoiceNumber: inv.Number,
				Amount:        inv.Total,
				PaidFlag:      strings.ToLower(strings.TrimSpace(inv.PaidFlag)),
				PONumber:      inv.PONumber,
				Nickname:      inv.Nickname,
			}
			if ok {
				day := d
				row.Date = &day
			}
			rows = append(rows, row)
			invoiceSet[inv.Number] = true
		}
	}

	payments, err := c.fetchPayments(ctx, q, invoiceSet)
	if err != nil {
		return nil, Totals{}, err
	}

	tracking, err := c.Store.PaymentTrackingFor(ctx, paymentInvoiceNumbers(payments))
	if err != nil {
		return nil, Totals{}, fmt.Errorf("fetch payment tracking: %w", err)
	}

	for _, p := range payments {
		entry, tracked := tracking[p.InvoiceNumber]
		reconciled := tracked && ReconciledTruthy(entry.Reconciled)
		if q.UnreconciledOnly && reconciled {
			continue
		}

		row := Row{
			Kind:          RowPayment,
			InvoiceNumber: p.InvoiceNumber,
			Amount:        p.Amount,
			Method:        p.Method,
			Reference:     p.Reference,
			Note:          entry.Notes,
			Reconciled:    reconciled,
		}
		if d, ok := ParseDate(p.RawDate); ok {
			day := d
			row.Date = &day
		}
		rows = append(rows, row)
	}

	SortRows(rows)
	return rows, TotalsOf(rows), nil
}

// fetchPayments implements step 4: statement mode pulls every payment for
// the shown invoices; generic mode falls back to a customer/date scope.
func (c *StatementCalculator) fetchPayments(ctx context.Context, q StatementQuery, invoiceSet map[InvoiceNumber]bool) ([]Payment, error) {
	if len(invoiceSet) > 0 {
		nums := make([]InvoiceNumber, 0, len(invoiceSet))
		for n := range invoiceSet {
			nums = append(nums, n)
		}
		payments, err := c.Store.PaymentsByInvoices(ctx, nums)
		if err != nil {
			return nil, fmt.Errorf("fetch payments: %w", err)
		}
		return payments, nil
	}

	// Reconcile/generic mode. A single-day range filters the payment
	// date; an empty customer scope matches every customer.
	var onDay *time.Time
	if q.StartDate != nil && q.EndDate != nil && q.StartDate.Equal(*q.EndDate) {
		onDay = q.StartDate
	}
	payments, err := c.Store.PaymentsForCustomers(ctx, q.CustomerIDs, c.Classifier.NonBillableStatuses(), onDay)
	if err != nil {
		return nil, fmt.Errorf("fetch scoped payments: %w", err)
	}
	return payments, nil
}

func paymentInvoiceNumbers(payments []Payment) []InvoiceNumber {
	seen := make(map[InvoiceNumber]bool, len(payments))
	var nums []InvoiceNumber
	for _, p := range payments {
		if !seen[p.InvoiceNumber] {
			seen[p.InvoiceNumber] = true
			nums = append(nums, p.InvoiceNumber)
		}
	}
	return nums
}

// =============================================================================
// ORDERING
// =============================================================================

// SortRows orders rows by (date, numeric value embedded in the invoice
// number). Rows without a parseable date sort first, keeping them visible
// at the top of an unbounded statement rather than lost in the middle.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := rowSortTime(rows[i]), rowSortTime(rows[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return InvoiceSortValue(rows[i].InvoiceNumber) < InvoiceSortValue(rows[j].InvoiceNumber)
	})
}

func rowSortTime(r Row) time.Time {
	if r.Date == nil {
		return time.Time{}
	}
	return *r.Date
}

// InvoiceSortValue extracts the numeric substring of an invoice number for
// ordering, so "INV-9" sorts before "INV-10". Non-digits are stripped;
// a number with no digits sorts as zero.
func InvoiceSortValue(num InvoiceNumber) int64 {
	var v int64
	var any bool
	for _, r := range num {
		if r >= '0' && r <= '9' {
			any = true
			v = v*10 + int64(r-'0')
			if v < 0 { // overflow guard for pathological numbers
				return 1<<63 - 1
			}
		}
	}
	if !any {
		return 0
	}
	return v
}
