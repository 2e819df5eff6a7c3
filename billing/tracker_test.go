/*
tracker_test.go - Invoice tagging tests

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

func TestTrack_FreshInvoicesInserted(t *testing.T) {
	store := newTestStore(t)
	tracker := billing.NewTracker(store)
	tracker.Now = fixedClock("2025-06-01")
	ctx := context.Background()

	result, err := tracker.Track(ctx, []billing.InvoiceNumber{"1001", "1002"}, "S00001")
	require.NoError(t, err)

	assert.Equal(t, []billing.InvoiceNumber{"1001", "1002"}, result.Inserted)
	assert.Empty(t, result.Retagged)
	assert.False(t, result.HasConflicts())

	entry, err := store.InvoiceTracking(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, billing.StatementNumber("S00001"), entry.StatementNumber)
	assert.Equal(t, "2025-06-01", entry.TaggedOn)
}

func TestTrack_ConflictLeftUntouched(t *testing.T) {
	// GIVEN: An invoice already tagged to S00001
	// WHEN: Tagging it to S00002 alongside a fresh invoice
	// THEN: The tagged one is reported as a conflict and keeps its original
	//       statement; the fresh one still proceeds

	store := newTestStore(t)
	tracker := billing.NewTracker(store)
	ctx := context.Background()

	_, err := tracker.Track(ctx, []billing.InvoiceNumber{"1001"}, "S00001")
	require.NoError(t, err)

	result, err := tracker.Track(ctx, []billing.InvoiceNumber{"1001", "1002"}, "S00002")
	require.NoError(t, err)

	require.True(t, result.HasConflicts())
	assert.Equal(t, []billing.TrackConflict{
		{InvoiceNumber: "1001", ExistingStmt: "S00001"},
	}, result.Conflicts)
	assert.Equal(t, []billing.InvoiceNumber{"1002"}, result.Inserted)

	entry, err := store.InvoiceTracking(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, billing.StatementNumber("S00001"), entry.StatementNumber)
}

func TestTrack_ClearedInvoiceRetagged(t *testing.T) {
	// GIVEN: A tracking row whose assignment was cleared (void or reset)
	// WHEN: Tagging the invoice again
	// THEN: The existing row is reused and reported as retagged

	store := newTestStore(t)
	tracker := billing.NewTracker(store)
	ctx := context.Background()

	_, err := tracker.Track(ctx, []billing.InvoiceNumber{"1001"}, "S00001")
	require.NoError(t, err)
	_, err = store.ClearAssignments(ctx, []billing.InvoiceNumber{"1001"})
	require.NoError(t, err)

	result, err := tracker.Track(ctx, []billing.InvoiceNumber{"1001"}, "S00002")
	require.NoError(t, err)

	assert.Equal(t, []billing.InvoiceNumber{"1001"}, result.Retagged)
	assert.Empty(t, result.Inserted)
	assert.False(t, result.HasConflicts())
}

func TestTrack_NoteOnlyRowRetaggedAndNoteKept(t *testing.T) {
	// A note lazily creates the tracking row; tagging later reuses it and
	// must not clobber the note.
	store := newTestStore(t)
	tracker := billing.NewTracker(store)
	ctx := context.Background()

	require.NoError(t, store.SetInvoiceNote(ctx, "1001", "waiting on PO confirmation"))

	result, err := tracker.Track(ctx, []billing.InvoiceNumber{"1001"}, "S00001")
	require.NoError(t, err)
	assert.Equal(t, []billing.InvoiceNumber{"1001"}, result.Retagged)

	entry, err := store.InvoiceTracking(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, billing.StatementNumber("S00001"), entry.StatementNumber)
	assert.Equal(t, "waiting on PO confirmation", entry.Notes)
}
