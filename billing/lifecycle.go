/*
lifecycle.go - Voiding statements and company-wide resets

PURPOSE:
  Two escape hatches for tagging mistakes, both designed to release
  invoices without destroying audit material:

  Void      one statement: header kept (status VOID, voided_at, appended
            audit note); its invoice_tracking rows deleted so the
            invoices become untagged and eligible for a future statement.

  Reset     one company: every invoice's statement_number cleared (rows
            kept, NOTES PRESERVED); optionally the company's header rows
            deleted so fresh numbers get issued. Bulk maintenance only.
*/
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VoidOutcome reports what a Void released.
type VoidOutcome struct {
	Statement        StatementNumber
	ReleasedInvoices int64
}

// ResetOutcome reports what a company reset touched.
type ResetOutcome struct {
	Company          string
	CustomerIDs      []CustomerID
	ClearedTrackings int64
	DeletedHeaders   int64
}

// StatementLifecycle voids statements and resets company tagging.
type StatementLifecycle struct {
	Store     Store
	Directory *CompanyDirectory
	Now       func() time.Time
}

func NewStatementLifecycle(store Store) *StatementLifecycle {
	return &StatementLifecycle{
		Store:     store,
		Directory: NewCompanyDirectory(store),
		Now:       time.Now,
	}
}

// Void marks the statement VOID and releases its invoices. Fails with a
// StatementNotFoundError when the number references no header.
func (l *StatementLifecycle) Void(ctx context.Context, stmt StatementNumber) (VoidOutcome, error) {
	header, err := l.Store.StatementHeader(ctx, stmt)
	if err != nil {
		return VoidOutcome{}, fmt.Errorf("load header %s: %w", stmt, err)
	}
	if header == nil {
		return VoidOutcome{}, &StatementNotFoundError{Number: stmt}
	}

	now := l.Now().UTC()
	note := fmt.Sprintf("voided on %s; invoice associations released", now.Format("2006-01-02"))
	if err := l.Store.MarkStatementVoid(ctx, stmt, now, note); err != nil {
		return VoidOutcome{}, fmt.Errorf("mark void %s: %w", stmt, err)
	}

	released, err := l.Store.DeleteTrackingByStatement(ctx, stmt)
	if err != nil {
		return VoidOutcome{}, fmt.Errorf("release invoices of %s: %w", stmt, err)
	}

	return VoidOutcome{Statement: stmt, ReleasedInvoices: released}, nil
}

// ResetStatementsForCompany clears statement tagging for every invoice of
// a company while preserving notes. With deleteHeaders, the company's
// header rows are removed as well so numbering starts clean.
func (l *StatementLifecycle) ResetStatementsForCompany(ctx context.Context, company string, fuzzy, deleteHeaders bool) (ResetOutcome, error) {
	ids, err := l.Directory.ResolveCompany(ctx, company, fuzzy)
	if err != nil {
		return ResetOutcome{}, err
	}
	outcome := ResetOutcome{Company: company, CustomerIDs: ids}

	invoices, err := l.Store.InvoicesByCustomers(ctx, ids)
	if err != nil {
		return outcome, fmt.Errorf("fetch invoices for %q: %w", company, err)
	}

	var nums []InvoiceNumber
	for _, inv := range invoices {
		if strings.TrimSpace(string(inv.Number)) != "" {
			nums = append(nums, inv.Number)
		}
	}

	if len(nums) > 0 {
		cleared, err := l.Store.ClearAssignments(ctx, nums)
		if err != nil {
			return outcome, fmt.Errorf("clear assignments for %q: %w", company, err)
		}
		outcome.ClearedTrackings = cleared
	}

	if deleteHeaders {
		deleted, err := l.Store.DeleteHeadersForCustomers(ctx, ids)
		if err != nil {
			return outcome, fmt.Errorf("delete headers for %q: %w", company, err)
		}
		outcome.DeletedHeaders = deleted
	}

	return outcome, nil
}
