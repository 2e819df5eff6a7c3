/*
company_test.go - Company grouping tests

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

func TestGroups_SpanningCustomersAndNoCompany(t *testing.T) {
	// GIVEN: Two customer rows under one company and one with no company
	// WHEN: Listing groups
	// THEN: The company groups both ids; the loner gets a synthetic label

	store := newTestStore(t)
	seedCustomer(t, store, 1, "Pat", "Harris", "Acme Embroidery")
	seedCustomer(t, store, 2, "Dana", "Harris", "Acme Embroidery")
	seedCustomer(t, store, 3, "Sam", "Lee", "")

	groups, err := billing.NewCompanyDirectory(store).Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Acme Embroidery", groups[0].Label)
	assert.ElementsMatch(t, customers(1, 2), groups[0].CustomerIDs)
	assert.Equal(t, "No Company - Sam Lee", groups[1].Label)
	assert.Equal(t, customers(3), groups[1].CustomerIDs)
}

func TestResolveCompany(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCustomer(t, store, 1, "Pat", "Harris", "Harlestons Embroidery")
	seedCustomer(t, store, 2, "Dana", "Cole", "Harlestons Screen Print")

	d := billing.NewCompanyDirectory(store)

	ids, err := d.ResolveCompany(ctx, "  harlestons embroidery ", false)
	require.NoError(t, err)
	assert.Equal(t, customers(1), ids)

	ids, err = d.ResolveCompany(ctx, "Harlestons", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, customers(1, 2), ids)

	_, err = d.ResolveCompany(ctx, "Harlestons", false)
	assert.ErrorIs(t, err, billing.ErrCompanyNotFound)
}

func TestCustomerIDText(t *testing.T) {
	assert.Equal(t, "3,9,12", billing.JoinCustomerIDs(customers(3, 9, 12)))
	assert.Equal(t, customers(3, 9, 12), billing.ParseCustomerIDs("3, 9 ,12"))
	assert.Equal(t, customers(7), billing.ParseCustomerIDs("7,,junk"))
	assert.Nil(t, billing.ParseCustomerIDs(""))
}
