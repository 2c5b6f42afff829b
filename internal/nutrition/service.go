package nutrition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

var ErrInvalidRequest = errors.New("invalid request")

// AccessChecker decides whether the caller may read an athlete's data.
type AccessChecker interface {
	Athlete(ctx context.Context, athleteID uuid.UUID) error
}

// Service computes nutrition totals and history from diet plan data.
type Service struct {
	plans    storage.DietPlansStorage
	access   AccessChecker
	pageSize int
	maxRange int
	now      func() time.Time
}

// NewService creates a nutrition service. pageSize bounds each storage read;
// maxRangeDays bounds the inclusive from..to span.
func NewService(plans storage.DietPlansStorage, access AccessChecker, pageSize, maxRangeDays int) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{
		plans:    plans,
		access:   access,
		pageSize: pageSize,
		maxRange: maxRangeDays,
		now:      time.Now,
	}
}

// Totals returns per-date, per-meal-type nutrient sums for the query.
func (s *Service) Totals(ctx context.Context, q Query) (*TotalsResult, error) {
	from, to, rows, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	res := ComputeTotals(rows, from, to, q.IncludeRepeated)
	return &res, nil
}

// History returns the meals applying on each date of the query.
func (s *Service) History(ctx context.Context, q Query) (*HistoryResult, error) {
	from, to, rows, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	res := ComputeHistory(rows, from, to, q.IncludeRepeated)
	return &res, nil
}

func (s *Service) load(ctx context.Context, q Query) (time.Time, time.Time, []storage.MealFoodRow, error) {
	from, to, err := s.resolveRange(q)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	if q.AthleteID == uuid.Nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: athleteId is required", ErrInvalidRequest)
	}
	if s.access != nil {
		if err := s.access.Athlete(ctx, q.AthleteID); err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
	}

	rows, err := s.fetchAll(ctx, storage.MealFoodQuery{
		AthleteID:      q.AthleteID,
		NutritionistID: q.NutritionistID,
		From:           from,
		To:             to,
	})
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	return from, to, rows, nil
}

// fetchAll reads pages until a short one comes back.
func (s *Service) fetchAll(ctx context.Context, q storage.MealFoodQuery) ([]storage.MealFoodRow, error) {
	var all []storage.MealFoodRow
	q.Limit = s.pageSize
	for q.Offset = 0; ; q.Offset += s.pageSize {
		page, err := s.plans.FindMealFoodRows(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("find meal food rows (offset %d): %w", q.Offset, err)
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
	}
}

func (s *Service) resolveRange(q Query) (time.Time, time.Time, error) {
	today := calendar.Day(s.now())
	from, to := today, today

	if q.From != "" {
		d, err := calendar.Parse(q.From)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from: %v", ErrInvalidRequest, err)
		}
		from = d
	}
	if q.To != "" {
		d, err := calendar.Parse(q.To)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to: %v", ErrInvalidRequest, err)
		}
		to = d
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must not be after to", ErrInvalidRequest)
	}
	if s.maxRange > 0 && calendar.DaysBetween(from, to)+1 > s.maxRange {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidRequest, s.maxRange)
	}
	return from, to, nil
}
