/*
tracker.go - Invoice-to-statement tagging

PURPOSE:
  Records which invoices belong to which statement, holding the
  at-most-one-statement-per-invoice invariant with explicit
  read-then-decide logic:

    existing row, non-empty statement_number  -> CONFLICT, left untouched
    existing row, empty statement_number      -> RETAGGED
    no row                                    -> INSERTED

PARTIAL SUCCESS:
  Tracking is per-invoice: non-conflicting invoices proceed even when
  others conflict. The result carries the full conflict list so callers
  can surface it to the operator — conflicts are data, not errors, and
  are never silently dropped.
*/
package billing

import (
	"context"
	"fmt"
	"time"
)

// TrackConflict names an invoice that is already tagged elsewhere.
type TrackConflict struct {
	InvoiceNumber InvoiceNumber
	ExistingStmt  StatementNumber
}

// TrackResult is the structured outcome of a Track call.
type TrackResult struct {
	Inserted  []InvoiceNumber
	Retagged  []InvoiceNumber
	Conflicts []TrackConflict
}

// HasConflicts reports whether any invoice was skipped.
func (r TrackResult) HasConflicts() bool { return len(r.Conflicts) > 0 }

// Tracker assigns invoices to statements.
type Tracker struct {
	Store TrackingStore
	Now   func() time.Time
}

func NewTracker(store TrackingStore) *Tracker {
	return &Tracker{Store: store, Now: time.Now}
}

// Track tags each invoice to the statement. An invoice already tagged to
// another statement is recorded as a conflict and left exactly as it was;
// re-tagging is never silent.
func (t *Tracker) Track(ctx context.Context, nums []InvoiceNumber, stmt StatementNumber) (TrackResult, error) {
	var result TrackResult
	now := t.Now()

	for _, num := range nums {
		existing, err := t.Store.InvoiceTracking(ctx, num)
		if err != nil {
			return result, fmt.Errorf("read tracking for %s: %w", num, err)
		}

		switch {
		case existing != nil && existing.StatementNumber != "":
			result.Conflicts = append(result.Conflicts, TrackConflict{
				InvoiceNumber: num,
				ExistingStmt:  existing.StatementNumber,
			})

		case existing != nil:
			if err := t.Store.AssignStatement(ctx, num, stmt, now); err != nil {
				return result, fmt.Errorf("retag %s: %w", num, err)
			}
			result.Retagged = append(result.Retagged, num)

		default:
			entry := InvoiceTrackingEntry{
				InvoiceNumber:   num,
				StatementNumber: stmt,
				TaggedOn:        now.UTC().Format("2006-01-02"),
			}
			if err := t.Store.InsertTracking(ctx, entry); err != nil {
				return result, fmt.Errorf("insert tracking for %s: %w", num, err)
			}
			result.Inserted = append(result.Inserted, num)
		}
	}

	return result, nil
}
