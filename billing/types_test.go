/*
types_test.go - Money and flag parsing tests
*/
package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cssswagchs/billing-engine/billing"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := billing.NewMoney(10.10)
	b := billing.NewMoney(0.20)

	assert.Equal(t, "10.30", a.Add(b).String())
	assert.Equal(t, "9.90", a.Sub(b).String())
	assert.Equal(t, "-0.10", billing.ZeroMoney().Sub(billing.NewMoney(0.10)).String())
}

func TestMoney_NearZero(t *testing.T) {
	// Settled means within a cent, in either direction.
	assert.True(t, billing.ZeroMoney().NearZero())
	assert.True(t, billing.NewMoney(0.009).NearZero())
	assert.True(t, billing.NewMoney(-0.009).NearZero())
	assert.False(t, billing.NewMoney(0.01).NearZero())
	assert.False(t, billing.NewMoney(-0.02).NearZero())
}

func TestMustParseMoney(t *testing.T) {
	assert.Equal(t, "123.45", billing.MustParseMoney("123.45").String())

	// Junk parses as zero so a bad imported row never crashes a statement.
	assert.True(t, billing.MustParseMoney("garbage").IsZero())
	assert.True(t, billing.MustParseMoney("").IsZero())
}

func TestPaidFlagTruthy(t *testing.T) {
	for _, s := range []string{"yes", "Yes", " TRUE ", "paid", "y", "1"} {
		assert.True(t, billing.PaidFlagTruthy(s), s)
	}
	for _, s := range []string{"", "no", "0", "unpaid", "maybe"} {
		assert.False(t, billing.PaidFlagTruthy(s), s)
	}
}
