/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place. The store and the domain components wrap
  these with context; presentation layers branch on them with errors.Is
  and errors.As.

ERROR CATEGORIES:
  1. Not-found errors - unknown statement numbers, missing headers
  2. Conflict results - invoices already tagged elsewhere (NOT returned
     as errors by Tracker; see tracker.go, conflicts are data)
  3. Store errors - busy/locked is retryable, the rest are I/O failures

RETRY CONTRACT:
  ErrStoreBusy surfaces SQLite's busy/locked condition. The engine never
  retries internally; retry policy belongs to the caller.
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStatementNotFound is returned when a statement number does not
	// reference an existing header.
	ErrStatementNotFound = errors.New("statement not found")

	// ErrStatementEmpty is returned when a reprint is requested for a
	// statement with no tagged invoices.
	ErrStatementEmpty = errors.New("statement has no tagged invoices")

	// ErrCompanyNotFound is returned when a company name resolves to no
	// customer rows.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrStoreBusy is returned when the store reports a busy/locked
	// condition. Retryable by the caller, never fatal.
	ErrStoreBusy = errors.New("store busy")

	// ErrNoCustomerScope is returned when an operation that requires a
	// customer scope is called with none.
	ErrNoCustomerScope = errors.New("no customer ids in scope")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// StatementNotFoundError names the statement a lookup failed on.
type StatementNotFoundError struct {
	Number StatementNumber
}

func (e *StatementNotFoundError) Error() string {
	return fmt.Sprintf("statement %s not found", e.Number)
}

func (e *StatementNotFoundError) Unwrap() error { return ErrStatementNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreBusy)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStatementNotFound) ||
		errors.Is(err, ErrCompanyNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoCustomerScope) ||
		errors.Is(err, ErrStatementEmpty)
}
