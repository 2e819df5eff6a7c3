/*
integrity_test.go - Paid-flag audit tests

Note: seeding helpers shared across this package live in statement_test.go.
*/
package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssswagchs/billing-engine/billing"
	"github.com/cssswagchs/billing-engine/store/sqlite"
)

func checkIntegrity(t *testing.T, store *sqlite.Store, q billing.IntegrityQuery) map[billing.InvoiceNumber]billing.IntegrityLine {
	t.Helper()
	lines, err := billing.NewPaymentIntegrityChecker(store, billing.DefaultClassifier()).Check(context.Background(), q)
	require.NoError(t, err)
	out := make(map[billing.InvoiceNumber]billing.IntegrityLine, len(lines))
	for _, l := range lines {
		out[l.InvoiceNumber] = l
	}
	return out
}

func TestCheck_Classifications(t *testing.T) {
	// GIVEN: One invoice per audit outcome
	// WHEN: Checking with no filters
	// THEN: Each invoice gets exactly its classification

	store := newTestStore(t)
	seedCustomer(t, store, 1, "Pat", "Harris", "Acme Embroidery")

	seedInvoice(t, store, "1001", 1, "2025-03-01", 100.00, "Yes", "shipped") // flag says paid, no money
	seedInvoice(t, store, "1002", 1, "2025-03-01", 100.00, "Yes", "shipped") // fully paid
	seedPayment(t, store, "1002", 1, "2025-03-10", 100.00)
	seedInvoice(t, store, "1003", 1, "2025-03-01", 100.00, "", "shipped") // overpaid
	seedPayment(t, store, "1003", 1, "2025-03-10", 130.00)
	seedInvoice(t, store, "1004", 1, "2025-03-01", 100.00, "", "shipped") // partial
	seedPayment(t, store, "1004", 1, "2025-03-10", 40.00)
	seedInvoice(t, store, "1005", 1, "2025-03-01", 100.00, "", "shipped") // unpaid

	lines := checkIntegrity(t, store, billing.IntegrityQuery{CustomerIDs: customers(1)})
	require.Len(t, lines, 5)

	assert.Equal(t, billing.PaidFlagNoMoney, lines["1001"].Status)
	assert.Equal(t, billing.FullyPaid, lines["1002"].Status)
	assert.Equal(t, billing.Overpaid, lines["1003"].Status)
	assert.Equal(t, billing.Partial, lines["1004"].Status)
	assert.Equal(t, billing.Unpaid, lines["1005"].Status)

	assert.Equal(t, "-30.00", lines["1003"].Difference.String())
	assert.Equal(t, "60.00", lines["1004"].Difference.String())
}

func TestCheck_Filters(t *testing.T) {
	store := newTestStore(t)
	seedCustomer(t, store, 1, "Pat", "Harris", "Acme Embroidery")
	seedInvoice(t, store, "1001", 1, "2025-03-01", 100.00, "", "shipped") // fully paid
	seedPayment(t, store, "1001", 1, "2025-03-10", 100.00)
	seedInvoice(t, store, "1002", 1, "2025-03-01", 100.00, "", "shipped") // unpaid
	seedInvoice(t, store, "1003", 1, "2025-03-01", 100.00, "yes", "shipped") // flag drift

	lines := checkIntegrity(t, store, billing.IntegrityQuery{
		CustomerIDs:  customers(1),
		MismatchOnly: true,
	})
	assert.NotContains(t, lines, billing.InvoiceNumber("1001"))
	assert.Contains(t, lines, billing.InvoiceNumber("1002"))
	assert.Contains(t, lines, billing.InvoiceNumber("1003"))

	lines = checkIntegrity(t, store, billing.IntegrityQuery{
		CustomerIDs: customers(1),
		HideUnpaid:  true,
	})
	assert.Contains(t, lines, billing.InvoiceNumber("1001"))
	assert.NotContains(t, lines, billing.InvoiceNumber("1002"))
	assert.Contains(t, lines, billing.InvoiceNumber("1003"))
}

func TestCheck_ScopeRules(t *testing.T) {
	store := newTestStore(t)
	seedCustomer(t, store, 1, "Pat", "Harris", "Acme Embroidery")
	seedInvoice(t, store, "1001", 1, "2025-03-01", 0, "Yes", "shipped")  // zero-total: out
	seedInvoice(t, store, "1002", 1, "2025-03-01", 50.00, "", "quote")   // non-billable: out
	seedInvoice(t, store, "1003", 1, "2025-03-01", 50.00, "", "shipped") // in

	lines := checkIntegrity(t, store, billing.IntegrityQuery{CustomerIDs: customers(1)})
	require.Len(t, lines, 1)
	assert.Contains(t, lines, billing.InvoiceNumber("1003"))

	_, err := billing.NewPaymentIntegrityChecker(store, billing.DefaultClassifier()).
		Check(context.Background(), billing.IntegrityQuery{})
	assert.ErrorIs(t, err, billing.ErrNoCustomerScope)
}
