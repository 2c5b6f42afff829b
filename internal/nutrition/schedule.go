package nutrition

import (
	"time"

	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/storage"
)

// Occurrence tells how a diet plan day lands on a date.
type Occurrence int

const (
	NotScheduled Occurrence = iota
	Original                // the anchor date itself
	Repeated                // a multiple of the repeat interval after the anchor
)

// Match classifies date against a plan day. Dates outside [planStart, planEnd]
// never match. All values are compared as UTC calendar dates.
func Match(day storage.DietPlanDay, planStart, planEnd, date time.Time, includeRepeated bool) Occurrence {
	d := calendar.Day(date)
	if d.Before(calendar.Day(planStart)) || d.After(calendar.Day(planEnd)) {
		return NotScheduled
	}

	diff := calendar.DaysBetween(day.Date, d)
	switch {
	case diff == 0:
		return Original
	case diff < 0 || !includeRepeated || day.RepeatIntervalDays <= 0:
		return NotScheduled
	case diff%day.RepeatIntervalDays == 0:
		return Repeated
	default:
		return NotScheduled
	}
}

// AppliesOn reports whether the day's meals are present on date.
func AppliesOn(day storage.DietPlanDay, planStart, planEnd, date time.Time, includeRepeated bool) bool {
	return Match(day, planStart, planEnd, date, includeRepeated) != NotScheduled
}
