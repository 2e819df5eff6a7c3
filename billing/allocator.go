/*
allocator.go - Statement number allocation

PURPOSE:
  Statement numbers are unique, sequential, and formatted "S" + 5-digit
  zero-padded decimal (S00001, S00042, ...). The only safe uniqueness
  source without a separate sequence service is the store's own monotonic
  row id, so allocation is two-step: insert a placeholder header to
  obtain a row id, then relabel the row with the derived number. The
  store runs both steps inside one transaction — two concurrent callers
  must never observe the same unlabeled row id.
*/
package billing

import (
	"context"
	"fmt"
	"time"
)

// FormatStatementNumber renders a header row id as its statement label.
func FormatStatementNumber(rowID int64) StatementNumber {
	return StatementNumber(fmt.Sprintf("S%05d", rowID))
}

// StatementNumberAllocator issues statement numbers and their header rows.
type StatementNumberAllocator struct {
	Store HeaderStore
	Now   func() time.Time // test seam; defaults to time.Now
}

func NewStatementNumberAllocator(store HeaderStore) *StatementNumberAllocator {
	return &StatementNumberAllocator{Store: store, Now: time.Now}
}

// GenerateRequest scopes a new statement. CustomerIDs may hold a single id
// or the full id list of a company spanning several legacy customer rows.
type GenerateRequest struct {
	CustomerIDs  []CustomerID
	StartDate    string
	EndDate      string
	CompanyLabel string
}

// Generate allocates the next statement number and records its header.
func (a *StatementNumberAllocator) Generate(ctx context.Context, req GenerateRequest) (StatementNumber, error) {
	if len(req.CustomerIDs) == 0 {
		return "", ErrNoCustomerScope
	}

	h := StatementHeader{
		CustomerID:   req.CustomerIDs[0],
		GeneratedOn:  a.Now().UTC().Format("2006-01-02"),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CompanyLabel: req.CompanyLabel,
		Status:       StatementActive,
	}
	if len(req.CustomerIDs) > 1 {
		h.CustomerIDsText = JoinCustomerIDs(req.CustomerIDs)
	}

	num, err := a.Store.AllocateStatementNumber(ctx, h)
	if err != nil {
		return "", fmt.Errorf("allocate statement number: %w", err)
	}
	return num, nil
}
