/*
register.go - Statement register: per-statement derived summaries and reprint

PURPOSE:
  The register view lists every statement issued for a company with its
  billed/paid/balance and a settlement status. Headers store NO totals:
  every number here is re-derived from the invoices currently tagged to
  the statement and the payments applied to them, so the register always
  agrees with what a reprint of the statement would show.

REPRINT:
  FetchStatement rebuilds the full row set of an issued statement from
  its tagging: the tagged invoices plus ALL payments ever applied to
  them, sorted and totaled the same way the calculator does it.
*/
package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Settlement status of a statement summary.
const (
	SummaryPaid   = "Paid"
	SummaryCredit = "Credit"
	SummaryDue    = "Due"
)

// StatementSummary is one register line. All money fields are derived.
type StatementSummary struct {
	Number       StatementNumber
	GeneratedOn  string
	StartDate    string
	EndDate      string
	CompanyLabel string
	Status       string // header status: ACTIVE or VOID
	InvoiceCount int
	Billed       Money
	Paid         Money
	Balance      Money
	Settlement   string // SummaryPaid / SummaryCredit / SummaryDue
}

// StatementRegister derives summaries and reprints from tagging.
type StatementRegister struct {
	Store Store
}

func NewStatementRegister(store Store) *StatementRegister {
	return &StatementRegister{Store: store}
}

// Summaries returns derived summaries for every statement belonging to
// the given customers (matched on customer_id or customer_ids_text),
// in descending period order.
func (r *StatementRegister) Summaries(ctx context.Context, ids []CustomerID) ([]StatementSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	headers, err := r.Store.HeadersForCustomers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch headers: %w", err)
	}

	summaries := make([]StatementSummary, 0, len(headers))
	for _, h := range headers {
		s, err := r.summarize(ctx, h)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	// Period order, most recent first. Unbounded statements carry empty
	// period strings and sink to the bottom.
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].StartDate != summaries[j].StartDate {
			return summaries[i].StartDate > summaries[j].StartDate
		}
		return summaries[i].EndDate > summaries[j].EndDate
	})
	return summaries, nil
}

func (r *StatementRegister) summarize(ctx context.Context, h StatementHeader) (StatementSummary, error) {
	s := StatementSummary{
		Number:       h.Number,
		GeneratedOn:  h.GeneratedOn,
		StartDate:    h.StartDate,
		EndDate:      h.EndDate,
		CompanyLabel: h.CompanyLabel,
		Status:       h.Status,
	}

	nums, err := r.Store.TrackedInvoices(ctx, h.Number)
	if err != nil {
		return s, fmt.Errorf("tracked invoices of %s: %w", h.Number, err)
	}
	s.InvoiceCount = len(nums)

	billed, paid := ZeroMoney(), ZeroMoney()
	if len(nums) > 0 {
		invoices, err := r.Store.InvoicesByNumbers(ctx, nums)
		if err != nil {
			return s, fmt.Errorf("invoices of %s: %w", h.Number, err)
		}
		for _, inv := range invoices {
			billed = billed.Add(inv.Total)
		}

		payments, err := r.Store.PaymentsByInvoices(ctx, nums)
		if err != nil {
			return s, fmt.Errorf("payments of %s: %w", h.Number, err)
		}
		for _, p := range payments {
			paid = paid.Add(p.Amount)
		}
	}

	s.Billed, s.Paid = billed, paid
	s.Balance = billed.Sub(paid)
	switch {
	case s.Balance.NearZero():
		s.Settlement = SummaryPaid
	case s.Balance.IsNegative():
		s.Settlement = SummaryCredit
	default:
		s.Settlement = SummaryDue
	}
	return s, nil
}

// FetchStatement rebuilds the rows and totals of an issued statement from
// its current tagging. ErrStatementNotFound for an unknown number,
// ErrStatementEmpty when no invoices are tagged to it.
func (r *StatementRegister) FetchStatement(ctx context.Context, stmt StatementNumber) (*StatementHeader, []Row, Totals, error) {
	header, err := r.Store.StatementHeader(ctx, stmt)
	if err != nil {
		return nil, nil, Totals{}, fmt.Errorf("load header %s: %w", stmt, err)
	}
	if header == nil {
		return nil, nil, Totals{}, &StatementNotFoundError{Number: stmt}
	}

	nums, err := r.Store.TrackedInvoices(ctx, stmt)
	if err != nil {
		return nil, nil, Totals{}, fmt.Errorf("tracked invoices of %s: %w", stmt, err)
	}
	if len(nums) == 0 {
		return header, nil, Totals{}, fmt.Errorf("statement %s: %w", stmt, ErrStatementEmpty)
	}

	invoices, err := r.Store.InvoicesByNumbers(ctx, nums)
	if err != nil {
		return nil, nil, Totals{}, fmt.Errorf("invoices of %s: %w", stmt, err)
	}
	payments, err := r.Store.PaymentsByInvoices(ctx, nums)
	if err != nil {
		return nil, nil, Totals{}, fmt.Errorf("payments of %s: %w", stmt, err)
	}

	var rows []Row
	for _, inv := range invoices {
		row := Row{
			Kind:          RowInvoice,
			InvoiceNumber: inv.Number,
			Amount:        inv.Total,
			PaidFlag:      strings.ToLower(strings.TrimSpace(inv.PaidFlag)),
			PONumber:      inv.PONumber,
			Nickname:      inv.Nickname,
		}
		if d, ok := ParseDate(inv.RawDate); ok {
			day := d
			row.Date = &day
		}
		rows = append(rows, row)
	}
	for _, p := range payments {
		row := Row{
			Kind:          RowPayment,
			InvoiceNumber: p.InvoiceNumber,
			Amount:        p.Amount,
			Method:        p.Method,
			Reference:     p.Reference,
		}
		if d, ok := ParseDate(p.RawDate); ok {
			day := d
			row.Date = &day
		}
		rows = append(rows, row)
	}

	SortRows(rows)
	return header, rows, TotalsOf(rows), nil
}
