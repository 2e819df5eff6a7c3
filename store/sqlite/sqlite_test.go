/*
sqlite_test.go - Store behaviors the domain layer leans on

Covers the pieces with real SQL subtlety: transactional statement number
allocation, note upserts that never touch assignments, assignment clears
that never touch notes, company lookup, and typed settings.
*/
package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssswagchs/billing-engine/billing"
	"github.com/cssswagchs/billing-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAllocateStatementNumber_RelabelsInOneTransaction(t *testing.T) {
	// GIVEN: A fresh store
	// WHEN: Allocating headers
	// THEN: Each row is relabeled from its own row id, so numbers are
	//       dense and unique from the first allocation on

	store := newStore(t)
	ctx := context.Background()

	for i, want := range []billing.StatementNumber{"S00001", "S00002", "S00003"} {
		num, err := store.AllocateStatementNumber(ctx, billing.StatementHeader{
			CustomerID:  billing.CustomerID(i + 1),
			GeneratedOn: "2025-06-01",
		})
		require.NoError(t, err)
		assert.Equal(t, want, num)

		h, err := store.StatementHeader(ctx, num)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, num, h.Number)
	}
}

func TestSetInvoiceNote_NeverTouchesAssignment(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertTracking(ctx, billing.InvoiceTrackingEntry{
		InvoiceNumber:   "1001",
		StatementNumber: "S00001",
		TaggedOn:        "2025-06-01",
	}))

	require.NoError(t, store.SetInvoiceNote(ctx, "1001", "rush order"))
	require.NoError(t, store.SetInvoiceNote(ctx, "1001", "rush order, confirmed"))

	entry, err := store.InvoiceTracking(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, billing.StatementNumber("S00001"), entry.StatementNumber)
	assert.Equal(t, "2025-06-01", entry.TaggedOn)
	assert.Equal(t, "rush order, confirmed", entry.Notes)

	// And it creates the row lazily for an untracked invoice.
	require.NoError(t, store.SetInvoiceNote(ctx, "2001", "note first"))
	note, err := store.InvoiceNote(ctx, "2001")
	require.NoError(t, err)
	assert.Equal(t, "note first", note)
}

func TestClearAssignments_PreservesNotes(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertTracking(ctx, billing.InvoiceTrackingEntry{
		InvoiceNumber:   "1001",
		StatementNumber: "S00001",
		TaggedOn:        "2025-06-01",
		Notes:           "keep me",
	}))

	cleared, err := store.ClearAssignments(ctx, []billing.InvoiceNumber{"1001", "no-such"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	entry, err := store.InvoiceTracking(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Empty(t, entry.StatementNumber)
	assert.Empty(t, entry.TaggedOn)
	assert.Equal(t, "keep me", entry.Notes)
}

func TestMarkStatementVoid_AppendsNote(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	num, err := store.AllocateStatementNumber(ctx, billing.StatementHeader{
		CustomerID:  1,
		GeneratedOn: "2025-06-01",
		Notes:       "issued by desk",
	})
	require.NoError(t, err)

	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkStatementVoid(ctx, num, at, "voided on 2025-06-15"))

	h, err := store.StatementHeader(ctx, num)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, billing.StatementVoid, h.Status)
	assert.Equal(t, "2025-06-15 12:00:00", h.VoidedAt)
	assert.Equal(t, "issued by desk; voided on 2025-06-15", h.Notes)
}

func TestHeadersForCustomers_MatchesEitherScopeColumn(t *testing.T) {
	// A header's scope lives in customer_id for single-customer statements
	// and customer_ids_text for company-wide ones; both must match.
	store := newStore(t)
	ctx := context.Background()

	_, err := store.AllocateStatementNumber(ctx, billing.StatementHeader{
		CustomerID: 1, GeneratedOn: "2025-06-01",
	})
	require.NoError(t, err)
	_, err = store.AllocateStatementNumber(ctx, billing.StatementHeader{
		CustomerID: 2, CustomerIDsText: "2,7,9", GeneratedOn: "2025-06-02",
	})
	require.NoError(t, err)

	headers, err := store.HeadersForCustomers(ctx, []billing.CustomerID{7})
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, billing.StatementNumber("S00002"), headers[0].Number)

	headers, err = store.HeadersForCustomers(ctx, []billing.CustomerID{1, 9})
	require.NoError(t, err)
	assert.Len(t, headers, 2)
}

func TestCustomerIDsByCompany(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCustomer(ctx, billing.Customer{ID: 1, Company: "Harlestons Embroidery"}))
	require.NoError(t, store.SaveCustomer(ctx, billing.Customer{ID: 2, Company: "Harlestons Screen Print"}))
	require.NoError(t, store.SaveCustomer(ctx, billing.Customer{ID: 3, Company: "Acme"}))

	ids, err := store.CustomerIDsByCompany(ctx, "  HARLESTONS EMBROIDERY ", false)
	require.NoError(t, err)
	assert.Equal(t, []billing.CustomerID{1}, ids)

	ids, err = store.CustomerIDsByCompany(ctx, "harlestons", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []billing.CustomerID{1, 2}, ids)

	ids, err = store.CustomerIDsByCompany(ctx, "harlestons", false)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSettings_TypedRoundTrips(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSettingString(ctx, "footer", "thank you!"))
	v, err := store.SettingString(ctx, "footer", "")
	require.NoError(t, err)
	assert.Equal(t, "thank you!", v)

	require.NoError(t, store.SetSettingInt(ctx, "page_size", 50))
	n, err := store.SettingInt(ctx, "page_size", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	require.NoError(t, store.SetSettingBool(ctx, "sync_enabled", true))
	b, err := store.SettingBool(ctx, "sync_enabled", false)
	require.NoError(t, err)
	assert.True(t, b)

	require.NoError(t, store.SetSettingJSON(ctx, "excluded", []string{"quote", "void"}))
	var excluded []string
	ok, err := store.SettingJSON(ctx, "excluded", &excluded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"quote", "void"}, excluded)

	// Unset keys fall back without error.
	v, err = store.SettingString(ctx, "missing", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", v)
}

func TestSettings_TypeMismatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSettingString(ctx, "footer", "text"))
	_, err := store.SettingInt(ctx, "footer", 0)
	assert.Error(t, err)
}

func TestPaymentsForCustomers_ExcludesNonBillableAndFiltersDay(t *testing.T) {
	// Reconcile mode: payments on quote/cancelled invoices are excluded in
	// SQL; a single-day scope filters the heterogeneous payment dates in Go.
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCustomer(ctx, billing.Customer{ID: 1, Company: "Acme"}))
	require.NoError(t, store.SaveInvoice(ctx, billing.Invoice{
		Number: "1001", CustomerID: 1, RawDate: "2025-03-01",
		Total: billing.NewMoney(100), Status: "shipped",
	}))
	require.NoError(t, store.SaveInvoice(ctx, billing.Invoice{
		Number: "1002", CustomerID: 1, RawDate: "2025-03-01",
		Total: billing.NewMoney(100), Status: "Quote",
	}))
	require.NoError(t, store.SavePayment(ctx, billing.Payment{
		InvoiceNumber: "1001", CustomerID: 1, RawDate: "03/10/2025", Amount: billing.NewMoney(25),
	}))
	require.NoError(t, store.SavePayment(ctx, billing.Payment{
		InvoiceNumber: "1001", CustomerID: 1, RawDate: "2025-03-11", Amount: billing.NewMoney(30),
	}))
	require.NoError(t, store.SavePayment(ctx, billing.Payment{
		InvoiceNumber: "1002", CustomerID: 1, RawDate: "2025-03-10", Amount: billing.NewMoney(99),
	}))

	excluded := billing.DefaultClassifier().NonBillableStatuses()

	payments, err := store.PaymentsForCustomers(ctx, []billing.CustomerID{1}, excluded, nil)
	require.NoError(t, err)
	require.Len(t, payments, 2)

	day, _ := billing.ParseDate("2025-03-10")
	payments, err = store.PaymentsForCustomers(ctx, []billing.CustomerID{1}, excluded, &day)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "25.00", payments[0].Amount.String())
}

func TestPaymentsForCustomers_EmptyScopeSpansAllCustomers(t *testing.T) {
	// An empty id list drops the customer clause entirely; the status
	// exclusion and day filter still apply.
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInvoice(ctx, billing.Invoice{
		Number: "1001", CustomerID: 1, RawDate: "2025-03-01",
		Total: billing.NewMoney(100), Status: "shipped",
	}))
	require.NoError(t, store.SaveInvoice(ctx, billing.Invoice{
		Number: "2001", CustomerID: 2, RawDate: "2025-03-01",
		Total: billing.NewMoney(50), Status: "Quote",
	}))
	require.NoError(t, store.SavePayment(ctx, billing.Payment{
		InvoiceNumber: "1001", CustomerID: 1, RawDate: "2025-03-10", Amount: billing.NewMoney(60),
	}))
	require.NoError(t, store.SavePayment(ctx, billing.Payment{
		InvoiceNumber: "1001", CustomerID: 1, RawDate: "2025-03-12", Amount: billing.NewMoney(40),
	}))
	require.NoError(t, store.SavePayment(ctx, billing.Payment{
		InvoiceNumber: "2001", CustomerID: 2, RawDate: "2025-03-10", Amount: billing.NewMoney(50),
	}))

	excluded := billing.DefaultClassifier().NonBillableStatuses()

	payments, err := store.PaymentsForCustomers(ctx, nil, excluded, nil)
	require.NoError(t, err)
	require.Len(t, payments, 2)

	day, _ := billing.ParseDate("2025-03-10")
	payments, err = store.PaymentsForCustomers(ctx, nil, excluded, &day)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "60.00", payments[0].Amount.String())
}
