// Package calendar works with civil dates stored as UTC-midnight time.Time values.
package calendar

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Parse accepts YYYY-MM-DD only.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func Today() time.Time {
	return Day(time.Now())
}

func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// DaysBetween returns the number of whole calendar days from a to b
// (negative when b is before a). Time of day is ignored.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// Range lists every date from..to inclusive; empty when to is before from.
func Range(from, to time.Time) []time.Time {
	n := DaysBetween(from, to)
	if n < 0 {
		return []time.Time{}
	}
	out := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, AddDays(from, i))
	}
	return out
}

// MondayIndex maps a date to 0 (Monday) .. 6 (Sunday).
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
