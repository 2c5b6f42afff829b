package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// DietPlansMemoryStorage implements storage.DietPlansStorage in memory.
// Deleting a parent leaves its children in place, the same as the Postgres
// schema which has no cascades.
type DietPlansMemoryStorage struct {
	mu        sync.RWMutex
	plans     map[uuid.UUID]storage.DietPlan
	days      map[uuid.UUID]storage.DietPlanDay
	meals     map[uuid.UUID]storage.Meal
	mealFoods map[uuid.UUID]storage.MealFood
	foods     *FoodsMemoryStorage
}

func NewDietPlansMemoryStorage(foods *FoodsMemoryStorage) *DietPlansMemoryStorage {
	return &DietPlansMemoryStorage{
		plans:     make(map[uuid.UUID]storage.DietPlan),
		days:      make(map[uuid.UUID]storage.DietPlanDay),
		meals:     make(map[uuid.UUID]storage.Meal),
		mealFoods: make(map[uuid.UUID]storage.MealFood),
		foods:     foods,
	}
}

func (s *DietPlansMemoryStorage) CreateDietPlan(ctx context.Context, plan *storage.DietPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	s.plans[plan.ID] = *plan
	return nil
}

func (s *DietPlansMemoryStorage) GetDietPlan(ctx context.Context, id uuid.UUID) (*storage.DietPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (s *DietPlansMemoryStorage) ListDietPlans(ctx context.Context, filter storage.DietPlanFilter) ([]storage.DietPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.DietPlan{}
	for _, p := range s.plans {
		if filter.AthleteID != nil && p.AthleteID != *filter.AthleteID {
			continue
		}
		if filter.NutritionistID != nil && p.NutritionistID != *filter.NutritionistID {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *DietPlansMemoryStorage) UpdateDietPlan(ctx context.Context, plan *storage.DietPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.plans[plan.ID]
	if !ok {
		return storage.ErrNotFound
	}
	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now().UTC()
	s.plans[plan.ID] = *plan
	return nil
}

func (s *DietPlansMemoryStorage) DeleteDietPlan(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *DietPlansMemoryStorage) CreateDietPlanDay(ctx context.Context, day *storage.DietPlanDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[day.DietPlanID]; !ok {
		return storage.ErrConflict
	}
	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
	day.CreatedAt = time.Now().UTC()
	s.days[day.ID] = *day
	return nil
}

func (s *DietPlansMemoryStorage) GetDietPlanDay(ctx context.Context, id uuid.UUID) (*storage.DietPlanDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.days[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &d, nil
}

func (s *DietPlansMemoryStorage) ListDietPlanDays(ctx context.Context, planID uuid.UUID) ([]storage.DietPlanDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.DietPlanDay{}
	for _, d := range s.days {
		if d.DietPlanID == planID {
			out = append(out, d)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *DietPlansMemoryStorage) DeleteDietPlanDay(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.days[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.days, id)
	return nil
}

func (s *DietPlansMemoryStorage) CreateMeal(ctx context.Context, meal *storage.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.days[meal.DietPlanDayID]; !ok {
		return storage.ErrConflict
	}
	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}
	meal.CreatedAt = time.Now().UTC()
	s.meals[meal.ID] = *meal
	return nil
}

func (s *DietPlansMemoryStorage) GetMeal(ctx context.Context, id uuid.UUID) (*storage.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meals[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (s *DietPlansMemoryStorage) ListMeals(ctx context.Context, dayID uuid.UUID) ([]storage.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.Meal{}
	for _, m := range s.meals {
		if m.DietPlanDayID == dayID {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *DietPlansMemoryStorage) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meals[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.meals, id)
	return nil
}

func (s *DietPlansMemoryStorage) CreateMealFood(ctx context.Context, mf *storage.MealFood) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meals[mf.MealID]; !ok {
		return storage.ErrConflict
	}
	if mf.ID == uuid.Nil {
		mf.ID = uuid.New()
	}
	mf.CreatedAt = time.Now().UTC()
	s.mealFoods[mf.ID] = *mf
	return nil
}

func (s *DietPlansMemoryStorage) GetMealFood(ctx context.Context, id uuid.UUID) (*storage.MealFood, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mf, ok := s.mealFoods[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &mf, nil
}

func (s *DietPlansMemoryStorage) ListMealFoods(ctx context.Context, mealID uuid.UUID) ([]storage.MealFood, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.MealFood{}
	for _, mf := range s.mealFoods {
		if mf.MealID == mealID {
			out = append(out, mf)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *DietPlansMemoryStorage) DeleteMealFood(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mealFoods[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.mealFoods, id)
	return nil
}

func (s *DietPlansMemoryStorage) FindMealFoodRows(ctx context.Context, q storage.MealFoodQuery) ([]storage.MealFoodRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []storage.MealFoodRow{}
	for _, mf := range s.mealFoods {
		meal, ok := s.meals[mf.MealID]
		if !ok {
			continue
		}
		day, ok := s.days[meal.DietPlanDayID]
		if !ok {
			continue
		}
		plan, ok := s.plans[day.DietPlanID]
		if !ok {
			continue
		}
		if plan.AthleteID != q.AthleteID {
			continue
		}
		if q.NutritionistID != nil && plan.NutritionistID != *q.NutritionistID {
			continue
		}
		if plan.StartDate.After(q.To) || plan.EndDate.Before(q.From) {
			continue
		}

		row := storage.MealFoodRow{MealFood: mf, Meal: &meal, Day: &day, Plan: &plan}
		if food, err := s.foods.GetFood(ctx, mf.FoodID); err == nil {
			row.Food = food
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Plan.ID != b.Plan.ID {
			return a.Plan.ID.String() < b.Plan.ID.String()
		}
		if a.Day.ID != b.Day.ID {
			return a.Day.ID.String() < b.Day.ID.String()
		}
		if a.Meal.ID != b.Meal.ID {
			return a.Meal.ID.String() < b.Meal.ID.String()
		}
		return a.MealFood.ID.String() < b.MealFood.ID.String()
	})

	return page(rows, q.Limit, q.Offset), nil
}

func (s *DietPlansMemoryStorage) foodInUse(foodID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mf := range s.mealFoods {
		if mf.FoodID == foodID {
			return true
		}
	}
	return false
}
