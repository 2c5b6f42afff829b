package intakes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("intake not found")
)

const (
	maxQuantityGrams = 5000
	maxListDays      = 93
)

// PlannedTotals supplies scheduled nutrients for the daily summary.
type PlannedTotals interface {
	Totals(ctx context.Context, q nutrition.Query) (*nutrition.TotalsResult, error)
}

type Service struct {
	intakes storage.IntakesStorage
	foods   storage.FoodsStorage
	access  *access.Checker
	planned PlannedTotals
	now     func() time.Time
}

// NewService creates the consumption log service. planned may be nil.
func NewService(intakes storage.IntakesStorage, foods storage.FoodsStorage, checker *access.Checker, planned PlannedTotals) *Service {
	return &Service{
		intakes: intakes,
		foods:   foods,
		access:  checker,
		planned: planned,
		now:     time.Now,
	}
}

// MARK: - Log

func (s *Service) CreateIntake(ctx context.Context, req *CreateIntakeRequest) (*IntakeDTO, error) {
	if req.AthleteID == uuid.Nil || req.FoodID == uuid.Nil {
		return nil, fmt.Errorf("%w: athlete_id and food_id are required", ErrInvalidRequest)
	}
	if req.QuantityGrams <= 0 || req.QuantityGrams > maxQuantityGrams {
		return nil, fmt.Errorf("%w: quantity_grams must be > 0 and <= %d", ErrInvalidRequest, maxQuantityGrams)
	}
	mealType := strings.ToLower(strings.TrimSpace(req.MealType))
	if mealType == "" {
		return nil, fmt.Errorf("%w: meal_type is required", ErrInvalidRequest)
	}

	consumedAt := s.now().UTC()
	if raw := strings.TrimSpace(req.ConsumedAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: consumed_at must be RFC3339", ErrInvalidRequest)
		}
		consumedAt = t.UTC()
	}

	if err := s.access.Athlete(ctx, req.AthleteID); err != nil {
		return nil, err
	}
	food, err := s.foods.GetFood(ctx, req.FoodID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: food not found", ErrInvalidRequest)
	}
	if err != nil {
		return nil, err
	}

	entry := &storage.ConsumptionLog{
		AthleteID:     req.AthleteID,
		FoodID:        food.ID,
		QuantityGrams: req.QuantityGrams,
		MealType:      mealType,
		ConsumedAt:    consumedAt,
		Note:          strings.TrimSpace(req.Note),
	}
	if err := s.intakes.CreateConsumption(ctx, entry); err != nil {
		return nil, err
	}
	dto := toDTO(*entry, food)
	return &dto, nil
}

// ListIntakes returns entries consumed on dates from..to inclusive.
func (s *Service) ListIntakes(ctx context.Context, athleteID uuid.UUID, fromRaw, toRaw string) ([]IntakeDTO, error) {
	from, to, err := s.dateRange(fromRaw, toRaw)
	if err != nil {
		return nil, err
	}
	if err := s.access.Athlete(ctx, athleteID); err != nil {
		return nil, err
	}

	entries, err := s.intakes.ListConsumption(ctx, athleteID, from, calendar.AddDays(to, 1))
	if err != nil {
		return nil, err
	}
	foods := map[uuid.UUID]*storage.Food{}
	out := make([]IntakeDTO, 0, len(entries))
	for _, e := range entries {
		food, err := s.food(ctx, foods, e.FoodID)
		if err != nil {
			return nil, err
		}
		out = append(out, toDTO(e, food))
	}
	return out, nil
}

func (s *Service) DeleteIntake(ctx context.Context, id uuid.UUID) error {
	entry, err := s.intakes.GetConsumption(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := s.access.Athlete(ctx, entry.AthleteID); err != nil {
		return err
	}
	if err := s.intakes.DeleteConsumption(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// MARK: - Daily

// Daily sums the day's intake per meal type, using the same per-100g formula
// as plan totals, and attaches the planned totals when available.
func (s *Service) Daily(ctx context.Context, athleteID uuid.UUID, dateRaw string) (*DailyResponse, error) {
	day, _, err := s.dateRange(dateRaw, dateRaw)
	if err != nil {
		return nil, err
	}
	if err := s.access.Athlete(ctx, athleteID); err != nil {
		return nil, err
	}

	entries, err := s.intakes.ListConsumption(ctx, athleteID, day, calendar.AddDays(day, 1))
	if err != nil {
		return nil, err
	}

	foods := map[uuid.UUID]*storage.Food{}
	var consumed nutrition.Nutrients
	byType := map[string]nutrition.Nutrients{}
	for _, e := range entries {
		food, err := s.food(ctx, foods, e.FoodID)
		if err != nil {
			return nil, err
		}
		c := nutrition.Contribution(food, e.QuantityGrams)
		consumed = consumed.Add(c)
		byType[e.MealType] = byType[e.MealType].Add(c)
	}
	for k, v := range byType {
		byType[k] = v.Rounded()
	}

	resp := &DailyResponse{
		Date:       calendar.Format(day),
		Consumed:   consumed.Rounded(),
		ByMealType: byType,
		Entries:    len(entries),
	}

	if s.planned != nil {
		date := calendar.Format(day)
		totals, err := s.planned.Totals(ctx, nutrition.Query{AthleteID: athleteID, From: date, To: date, IncludeRepeated: true})
		if err != nil {
			return nil, fmt.Errorf("planned totals: %w", err)
		}
		planned := totals.GrandTotal
		resp.Planned = &planned
	}
	return resp, nil
}

// MARK: - Helpers

// food resolves a food through a per-request cache. Deleted foods yield nil.
func (s *Service) food(ctx context.Context, cache map[uuid.UUID]*storage.Food, id uuid.UUID) (*storage.Food, error) {
	if f, ok := cache[id]; ok {
		return f, nil
	}
	f, err := s.foods.GetFood(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	cache[id] = f
	return f, nil
}

func (s *Service) dateRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	today := calendar.Day(s.now())
	from, to := today, today
	if fromRaw = strings.TrimSpace(fromRaw); fromRaw != "" {
		d, err := calendar.Parse(fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		from = d
	}
	if toRaw = strings.TrimSpace(toRaw); toRaw != "" {
		d, err := calendar.Parse(toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		to = d
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must not be after to", ErrInvalidRequest)
	}
	if calendar.DaysBetween(from, to)+1 > maxListDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidRequest, maxListDays)
	}
	return from, to, nil
}

func toDTO(e storage.ConsumptionLog, food *storage.Food) IntakeDTO {
	dto := IntakeDTO{
		ID:            e.ID,
		AthleteID:     e.AthleteID,
		FoodID:        e.FoodID,
		QuantityGrams: e.QuantityGrams,
		MealType:      e.MealType,
		ConsumedAt:    e.ConsumedAt,
		Note:          e.Note,
		Nutrients:     nutrition.Contribution(food, e.QuantityGrams).Rounded(),
		CreatedAt:     e.CreatedAt,
	}
	if food != nil {
		dto.FoodName = food.Name
	}
	return dto
}
