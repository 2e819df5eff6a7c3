/*
dates.go - Canonical date normalization

PURPOSE:
  Invoice and payment dates arrive as free text from several importers,
  each with its own habit: M-D-Y from one CSV export, Y-M-D from the
  sync collaborator, timestamps with and without fractional seconds.
  Every call site used to parse on its own; this file is the single
  ordered format list everything goes through.

FAIL-CLOSED CONTRACT:
  ParseDate never returns an error. A date that cannot be parsed is
  reported as absent, and InRange treats an absent date as OUT of range,
  so ambiguous rows are excluded from range-bounded results rather than
  assumed current. Audit numbers must never include rows we cannot date.
*/
package billing

import (
	"strings"
	"time"
)

// dateFormats is tried in order. The statement calculator's historical list
// comes first; the formats the old desktop views accepted are appended so a
// date either parser used to take still parses.
var dateFormats = []string{
	"01-02-2006",
	"01/02/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"January 2, 2006",
}

// ParseDate parses heterogeneous date text into a calendar date (midnight
// UTC). The second return is false when nothing matched. Never panics.
func ParseDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, "Z")
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return dayOf(t), true
		}
	}

	// Last chance: many timestamp variants lead with YYYY-MM-DD.
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return dayOf(t), true
		}
	}

	return time.Time{}, false
}

// InRange reports whether d falls inside [start, end]. Nil bounds are open.
// An absent date (ok == false from ParseDate) is always out of range.
func InRange(d time.Time, ok bool, start, end *time.Time) bool {
	if !ok {
		return false
	}
	if start != nil && d.Before(dayOf(*start)) {
		return false
	}
	if end != nil && d.After(dayOf(*end)) {
		return false
	}
	return true
}

// DaysSince returns whole days from d to today (UTC calendar days).
func DaysSince(d time.Time, today time.Time) int {
	return int(dayOf(today).Sub(dayOf(d)).Hours() / 24)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
