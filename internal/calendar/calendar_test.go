package calendar

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	d, err := Parse("2025-01-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("expected UTC midnight, got %v", d)
	}

	for _, bad := range []string{"", "2025-1-8", "08.01.2025", "2025-02-30"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2025, 3, 29, 23, 30, 0, 0, time.UTC)
	b := time.Date(2025, 3, 31, 0, 15, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 2 {
		t.Fatalf("expected 2 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != -2 {
		t.Fatalf("expected -2 days, got %d", got)
	}
}

func TestDaysBetweenAcrossZones(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	// 00:30 CET on Jan 2nd is still Jan 1st in UTC
	a := time.Date(2025, 1, 2, 0, 30, 0, 0, berlin)
	b := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(b, a); got != 0 {
		t.Fatalf("expected 0 days, got %d", got)
	}
}

func TestRange(t *testing.T) {
	from := time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	got := Range(from, to)
	want := []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if Format(got[i]) != want[i] {
			t.Fatalf("expected %s at %d, got %s", want[i], i, Format(got[i]))
		}
	}

	if len(Range(to, from)) != 0 {
		t.Fatal("expected empty range when to < from")
	}
}

func TestMondayIndex(t *testing.T) {
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if got := MondayIndex(AddDays(monday, i)); got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
}
