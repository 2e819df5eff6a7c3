/*
allocator_test.go - Statement number allocation tests

Note: seeding helpers shared across this package live in statement_test.go.
*/
package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssswagchs/billing-engine/billing"
)

func fixedClock(s string) func() time.Time {
	d, _ := billing.ParseDate(s)
	return func() time.Time { return d }
}

func TestGenerate_SequentialNumbers(t *testing.T) {
	// GIVEN: A fresh store
	// WHEN: Allocating two statements
	// THEN: Numbers come out S00001, S00002 with no gaps or reuse

	store := newTestStore(t)
	alloc := billing.NewStatementNumberAllocator(store)
	alloc.Now = fixedClock("2025-06-01")

	n1, err := alloc.Generate(context.Background(), billing.GenerateRequest{
		CustomerIDs: customers(1),
	})
	require.NoError(t, err)
	n2, err := alloc.Generate(context.Background(), billing.GenerateRequest{
		CustomerIDs: customers(2),
	})
	require.NoError(t, err)

	assert.Equal(t, billing.StatementNumber("S00001"), n1)
	assert.Equal(t, billing.StatementNumber("S00002"), n2)
}

func TestGenerate_HeaderRecorded(t *testing.T) {
	store := newTestStore(t)
	alloc := billing.NewStatementNumberAllocator(store)
	alloc.Now = fixedClock("2025-06-01")

	num, err := alloc.Generate(context.Background(), billing.GenerateRequest{
		CustomerIDs:  customers(7),
		StartDate:    "2025-05-01",
		EndDate:      "2025-05-31",
		CompanyLabel: "Acme Embroidery",
	})
	require.NoError(t, err)

	h, err := store.StatementHeader(context.Background(), num)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, num, h.Number)
	assert.Equal(t, billing.CustomerID(7), h.CustomerID)
	assert.Equal(t, "2025-06-01", h.GeneratedOn)
	assert.Equal(t, "2025-05-01", h.StartDate)
	assert.Equal(t, "2025-05-31", h.EndDate)
	assert.Equal(t, "Acme Embroidery", h.CompanyLabel)
	assert.Equal(t, billing.StatementActive, h.Status)
	assert.Empty(t, h.CustomerIDsText)
}

func TestGenerate_MultiCustomerScope(t *testing.T) {
	// A company that spans legacy customer rows keeps the full id list.
	store := newTestStore(t)
	alloc := billing.NewStatementNumberAllocator(store)
	alloc.Now = fixedClock("2025-06-01")

	num, err := alloc.Generate(context.Background(), billing.GenerateRequest{
		CustomerIDs: customers(3, 9, 12),
	})
	require.NoError(t, err)

	h, err := store.StatementHeader(context.Background(), num)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, []billing.CustomerID{3, 9, 12}, h.CustomerIDs())
}

func TestGenerate_EmptyScopeRejected(t *testing.T) {
	alloc := billing.NewStatementNumberAllocator(newTestStore(t))

	_, err := alloc.Generate(context.Background(), billing.GenerateRequest{})
	assert.ErrorIs(t, err, billing.ErrNoCustomerScope)
}

func TestFormatStatementNumber(t *testing.T) {
	assert.Equal(t, billing.StatementNumber("S00001"), billing.FormatStatementNumber(1))
	assert.Equal(t, billing.StatementNumber("S00042"), billing.FormatStatementNumber(42))
	assert.Equal(t, billing.StatementNumber("S123456"), billing.FormatStatementNumber(123456))
}
