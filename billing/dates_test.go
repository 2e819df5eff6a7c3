/*
dates_test.go - Date parsing and range tests

Note: seeding helpers shared across this package live in statement_test.go.
*/
package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssswagchs/billing-engine/billing"
)

func TestParseDate_KnownFormats(t *testing.T) {
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   string
	}{
		{"us dashes", "03-15-2025"},
		{"us slashes", "03/15/2025"},
		{"iso", "2025-03-15"},
		{"iso datetime", "2025-03-15 10:30:00"},
		{"us datetime", "03/15/2025 10:30"},
		{"iso t", "2025-03-15T10:30:00"},
		{"iso t millis", "2025-03-15T10:30:00.000"},
		{"long form", "March 15, 2025"},
		{"zulu suffix", "2025-03-15T10:30:00Z"},
		{"iso with trailing junk", "2025-03-15 plus whatever"},
		{"padded", "  2025-03-15  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := billing.ParseDate(tc.in)
			require.True(t, ok)
			assert.Equal(t, want.Year(), got.Year())
			assert.Equal(t, want.Month(), got.Month())
			assert.Equal(t, want.Day(), got.Day())
		})
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "15-03-2025 garbage", "tomorrow"} {
		_, ok := billing.ParseDate(in)
		assert.False(t, ok, "expected %q to fail", in)
	}
}

func TestInRange(t *testing.T) {
	day := func(s string) *time.Time {
		d, ok := billing.ParseDate(s)
		require.True(t, ok)
		return &d
	}
	mid := *day("2025-03-15")

	// GIVEN: A date in mid-March
	// THEN: Open bounds admit it, closed bounds are inclusive
	assert.True(t, billing.InRange(mid, true, nil, nil))
	assert.True(t, billing.InRange(mid, true, day("2025-03-01"), nil))
	assert.True(t, billing.InRange(mid, true, nil, day("2025-03-31")))
	assert.True(t, billing.InRange(mid, true, day("2025-03-15"), day("2025-03-15")))
	assert.False(t, billing.InRange(mid, true, day("2025-03-16"), nil))
	assert.False(t, billing.InRange(mid, true, nil, day("2025-03-14")))

	// An absent date is always out of range, even with open bounds.
	assert.False(t, billing.InRange(time.Time{}, false, nil, nil))
	assert.False(t, billing.InRange(time.Time{}, false, day("2025-03-01"), nil))
}

func TestDaysSince(t *testing.T) {
	today := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	on := func(s string) time.Time {
		d, ok := billing.ParseDate(s)
		require.True(t, ok)
		return d
	}

	assert.Equal(t, 0, billing.DaysSince(on("2025-06-30"), today))
	assert.Equal(t, 30, billing.DaysSince(on("2025-05-31"), today))
	assert.Equal(t, 91, billing.DaysSince(on("2025-03-31"), today))
}
