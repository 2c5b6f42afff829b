package nutrition

import (
	"testing"
	"time"

	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/stretchr/testify/assert"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.Parse(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func TestMatch(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	end := mustDate(t, "2025-01-31")

	tests := []struct {
		name            string
		anchor          string
		interval        int
		date            string
		includeRepeated bool
		want            Occurrence
	}{
		{"anchor date", "2025-01-01", 7, "2025-01-01", true, Original},
		{"anchor date without repeats", "2025-01-01", 7, "2025-01-01", false, Original},
		{"one interval later", "2025-01-01", 7, "2025-01-08", true, Repeated},
		{"four intervals later", "2025-01-01", 7, "2025-01-29", true, Repeated},
		{"between repeats", "2025-01-01", 7, "2025-01-05", true, NotScheduled},
		{"repeats disabled", "2025-01-01", 7, "2025-01-08", false, NotScheduled},
		{"before anchor", "2025-01-10", 7, "2025-01-03", true, NotScheduled},
		{"zero interval", "2025-01-01", 0, "2025-01-08", true, NotScheduled},
		{"negative interval", "2025-01-01", -7, "2025-01-08", true, NotScheduled},
		{"daily repeat", "2025-01-01", 1, "2025-01-17", true, Repeated},
		{"after plan end", "2025-01-01", 7, "2025-02-05", true, NotScheduled},
		{"before plan start", "2025-01-01", 7, "2024-12-25", true, NotScheduled},
		{"plan end inclusive", "2025-01-03", 7, "2025-01-31", true, Repeated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := storage.DietPlanDay{Date: mustDate(t, tt.anchor), RepeatIntervalDays: tt.interval}
			got := Match(day, start, end, mustDate(t, tt.date), tt.includeRepeated)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != NotScheduled, AppliesOn(day, start, end, mustDate(t, tt.date), tt.includeRepeated))
		})
	}
}

func TestMatchIgnoresTimeOfDay(t *testing.T) {
	day := storage.DietPlanDay{
		Date:               time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC),
		RepeatIntervalDays: 7,
	}
	start := mustDate(t, "2025-01-01")
	end := mustDate(t, "2025-01-31")

	assert.Equal(t, Repeated, Match(day, start, end, time.Date(2025, 1, 8, 6, 0, 0, 0, time.UTC), true))
}
