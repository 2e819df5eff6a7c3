/*
lifecycle_test.go - Void and company reset tests

Note: seeding helpers shared across this package live in statement_test.go.
*/
package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssswagchs/billing-engine/billing"
)

func TestVoid_KeepsHeaderReleasesInvoices(t *testing.T) {
	// GIVEN: A statement with two tagged invoices
	// WHEN: Voiding it
	// THEN: The header survives as VOID with an audit note, the tracking
	//       rows are gone, and the invoices can be tagged again

	store := newTestStore(t)
	ctx := context.Background()

	alloc := billing.NewStatementNumberAllocator(store)
	alloc.Now = fixedClock("2025-06-01")
	num, err := alloc.Generate(ctx, billing.GenerateRequest{CustomerIDs: customers(1)})
	require.NoError(t, err)

	tracker := billing.NewTracker(store)
	_, err = tracker.Track(ctx, []billing.InvoiceNumber{"1001", "1002"}, num)
	require.NoError(t, err)

	lc := billing.NewStatementLifecycle(store)
	lc.Now = fixedClock("2025-06-15")
	outcome, err := lc.Void(ctx, num)
	require.NoError(t, err)
	assert.Equal(t, int64(2), outcome.ReleasedInvoices)

	h, err := store.StatementHeader(ctx, num)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, billing.StatementVoid, h.Status)
	assert.NotEmpty(t, h.VoidedAt)
	assert.Contains(t, h.Notes, "voided on 2025-06-15")

	tagged, err := store.TrackedInvoices(ctx, num)
	require.NoError(t, err)
	assert.Empty(t, tagged)

	// Released invoices are taggable again.
	result, err := tracker.Track(ctx, []billing.InvoiceNumber{"1001"}, "S00099")
	require.NoError(t, err)
	assert.False(t, result.HasConflicts())
}

func TestVoid_UnknownStatement(t *testing.T) {
	lc := billing.NewStatementLifecycle(newTestStore(t))

	_, err := lc.Void(context.Background(), "S99999")

	var nf *billing.StatementNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, billing.StatementNumber("S99999"), nf.Number)
	assert.True(t, billing.IsNotFound(err))
}

func TestReset_ClearsAssignmentsPreservesNotes(t *testing.T) {
	// GIVEN: A company whose invoices are tagged, one carrying a note
	// WHEN: Resetting the company without deleting headers
	// THEN: Assignments are cleared, the note and the header both survive

	store := newTestStore(t)
	ctx := context.Background()
	seedCustomer(t, store, 1, "Pat", "Harris", "Acme Embroidery")
	seedInvoice(t, store, "1001", 1, "2025-03-01", 100.00, "", "shipped")
	seedInvoice(t, store, "1002", 1, "2025-03-02", 200.00, "", "shipped")

	alloc := billing.NewStatementNumberAllocator(store)
	num, err := alloc.Generate(ctx, billing.GenerateRequest{CustomerIDs: customers(1)})
	require.NoError(t, err)
	tracker := billing.NewTracker(store)
	_, err = tracker.Track(ctx, []billing.InvoiceNumber{"1001", "1002"}, num)
	require.NoError(t, err)
	require.NoError(t, store.SetInvoiceNote(ctx, "1001", "ship partial first"))

	lc := billing.NewStatementLifecycle(store)
	outcome, err := lc.ResetStatementsForCompany(ctx, "Acme Embroidery", false, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), outcome.ClearedTrackings)
	assert.Equal(t, int64(0), outcome.DeletedHeaders)

	entry, err := store.InvoiceTracking(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Empty(t, entry.StatementNumber)
	assert.Equal(t, "ship partial first", entry.Notes)

	h, err := store.StatementHeader(ctx, num)
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestReset_DeleteHeaders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCustomer(t, store, 1, "Pat", "Harris", "Acme Embroidery")
	seedInvoice(t, store, "1001", 1, "2025-03-01", 100.00, "", "shipped")

	alloc := billing.NewStatementNumberAllocator(store)
	num, err := alloc.Generate(ctx, billing.GenerateRequest{CustomerIDs: customers(1)})
	require.NoError(t, err)

	lc := billing.NewStatementLifecycle(store)
	outcome, err := lc.ResetStatementsForCompany(ctx, "Acme Embroidery", false, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), outcome.DeletedHeaders)

	h, err := store.StatementHeader(ctx, num)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestReset_UnknownCompany(t *testing.T) {
	lc := billing.NewStatementLifecycle(newTestStore(t))

	_, err := lc.ResetStatementsForCompany(context.Background(), "Nobody Inc", false, false)
	assert.ErrorIs(t, err, billing.ErrCompanyNotFound)
}
