package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDietPlansStorage implements storage.DietPlansStorage. The schema
// has no ON DELETE CASCADE: deleting a parent with children fails with
// storage.ErrConflict.
type PostgresDietPlansStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresDietPlansStorage(pool *pgxpool.Pool) *PostgresDietPlansStorage {
	return &PostgresDietPlansStorage{pool: pool}
}

const (
	planColumns     = `id, athlete_id, nutritionist_id, start_date, end_date, total_daily_calories, notes, created_at, updated_at`
	dayColumns      = `id, diet_plan_id, date, repeat_interval_days, created_at`
	mealColumns     = `id, diet_plan_day_id, meal_type, scheduled_time, order_index, created_at`
	mealFoodColumns = `id, meal_id, food_id, quantity_grams, created_at`
)

func scanPlan(row pgx.Row) (*storage.DietPlan, error) {
	var p storage.DietPlan
	err := row.Scan(&p.ID, &p.AthleteID, &p.NutritionistID, &p.StartDate, &p.EndDate,
		&p.TotalDailyCalories, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func scanDay(row pgx.Row) (*storage.DietPlanDay, error) {
	var d storage.DietPlanDay
	if err := row.Scan(&d.ID, &d.DietPlanID, &d.Date, &d.RepeatIntervalDays, &d.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func scanMeal(row pgx.Row) (*storage.Meal, error) {
	var m storage.Meal
	if err := row.Scan(&m.ID, &m.DietPlanDayID, &m.MealType, &m.ScheduledTime, &m.OrderIndex, &m.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func scanMealFood(row pgx.Row) (*storage.MealFood, error) {
	var mf storage.MealFood
	if err := row.Scan(&mf.ID, &mf.MealID, &mf.FoodID, &mf.QuantityGrams, &mf.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &mf, nil
}

// collect читает все строки через scan
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *PostgresDietPlansStorage) CreateDietPlan(ctx context.Context, plan *storage.DietPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO diet_plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, plan.ID, plan.AthleteID, plan.NutritionistID, plan.StartDate, plan.EndDate,
		plan.TotalDailyCalories, plan.Notes, plan.CreatedAt, plan.UpdatedAt)

	return mapWriteErr(err)
}

func (s *PostgresDietPlansStorage) GetDietPlan(ctx context.Context, id uuid.UUID) (*storage.DietPlan, error) {
	return scanPlan(s.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM diet_plans WHERE id = $1`, id))
}

func (s *PostgresDietPlansStorage) ListDietPlans(ctx context.Context, filter storage.DietPlanFilter) ([]storage.DietPlan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM diet_plans
		WHERE ($1::uuid IS NULL OR athlete_id = $1)
		  AND ($2::uuid IS NULL OR nutritionist_id = $2)
		ORDER BY start_date DESC, id ASC
	`, filter.AthleteID, filter.NutritionistID)
	if err != nil {
		return nil, fmt.Errorf("list diet plans: %w", err)
	}
	return collect(rows, scanPlan)
}

func (s *PostgresDietPlansStorage) UpdateDietPlan(ctx context.Context, plan *storage.DietPlan) error {
	plan.UpdatedAt = time.Now().UTC()

	return execOne(ctx, s.pool, `
		UPDATE diet_plans
		SET start_date = $2, end_date = $3, total_daily_calories = $4, notes = $5, updated_at = $6
		WHERE id = $1
	`, plan.ID, plan.StartDate, plan.EndDate, plan.TotalDailyCalories, plan.Notes, plan.UpdatedAt)
}

func (s *PostgresDietPlansStorage) DeleteDietPlan(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM diet_plans WHERE id = $1`, id)
}

func (s *PostgresDietPlansStorage) CreateDietPlanDay(ctx context.Context, day *storage.DietPlanDay) error {
	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
	day.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO diet_plan_days (`+dayColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, day.ID, day.DietPlanID, day.Date, day.RepeatIntervalDays, day.CreatedAt)

	return mapWriteErr(err)
}

func (s *PostgresDietPlansStorage) GetDietPlanDay(ctx context.Context, id uuid.UUID) (*storage.DietPlanDay, error) {
	return scanDay(s.pool.QueryRow(ctx, `SELECT `+dayColumns+` FROM diet_plan_days WHERE id = $1`, id))
}

func (s *PostgresDietPlansStorage) ListDietPlanDays(ctx context.Context, planID uuid.UUID) ([]storage.DietPlanDay, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+dayColumns+`
		FROM diet_plan_days
		WHERE diet_plan_id = $1
		ORDER BY date ASC, id ASC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("list diet plan days: %w", err)
	}
	return collect(rows, scanDay)
}

func (s *PostgresDietPlansStorage) DeleteDietPlanDay(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM diet_plan_days WHERE id = $1`, id)
}

func (s *PostgresDietPlansStorage) CreateMeal(ctx context.Context, meal *storage.Meal) error {
	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}
	meal.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO meals (`+mealColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, meal.ID, meal.DietPlanDayID, meal.MealType, meal.ScheduledTime, meal.OrderIndex, meal.CreatedAt)

	return mapWriteErr(err)
}

func (s *PostgresDietPlansStorage) GetMeal(ctx context.Context, id uuid.UUID) (*storage.Meal, error) {
	return scanMeal(s.pool.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1`, id))
}

func (s *PostgresDietPlansStorage) ListMeals(ctx context.Context, dayID uuid.UUID) ([]storage.Meal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+mealColumns+`
		FROM meals
		WHERE diet_plan_day_id = $1
		ORDER BY order_index ASC, created_at ASC
	`, dayID)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return collect(rows, scanMeal)
}

func (s *PostgresDietPlansStorage) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM meals WHERE id = $1`, id)
}

func (s *PostgresDietPlansStorage) CreateMealFood(ctx context.Context, mf *storage.MealFood) error {
	if mf.ID == uuid.Nil {
		mf.ID = uuid.New()
	}
	mf.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO meal_foods (`+mealFoodColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, mf.ID, mf.MealID, mf.FoodID, mf.QuantityGrams, mf.CreatedAt)

	return mapWriteErr(err)
}

func (s *PostgresDietPlansStorage) GetMealFood(ctx context.Context, id uuid.UUID) (*storage.MealFood, error) {
	return scanMealFood(s.pool.QueryRow(ctx, `SELECT `+mealFoodColumns+` FROM meal_foods WHERE id = $1`, id))
}

func (s *PostgresDietPlansStorage) ListMealFoods(ctx context.Context, mealID uuid.UUID) ([]storage.MealFood, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+mealFoodColumns+`
		FROM meal_foods
		WHERE meal_id = $1
		ORDER BY created_at ASC, id ASC
	`, mealID)
	if err != nil {
		return nil, fmt.Errorf("list meal foods: %w", err)
	}
	return collect(rows, scanMealFood)
}

func (s *PostgresDietPlansStorage) DeleteMealFood(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM meal_foods WHERE id = $1`, id)
}

func (s *PostgresDietPlansStorage) FindMealFoodRows(ctx context.Context, q storage.MealFoodQuery) ([]storage.MealFoodRow, error) {
	query := `
		SELECT
			mf.id, mf.meal_id, mf.food_id, mf.quantity_grams, mf.created_at,
			m.id, m.diet_plan_day_id, m.meal_type, m.scheduled_time, m.order_index, m.created_at,
			d.id, d.diet_plan_id, d.date, d.repeat_interval_days, d.created_at,
			p.id, p.athlete_id, p.nutritionist_id, p.start_date, p.end_date, p.total_daily_calories, p.notes, p.created_at, p.updated_at,
			f.id, f.name, f.calories_per_100g, f.protein_per_100g, f.carbs_per_100g, f.fat_per_100g, f.created_at, f.updated_at
		FROM meal_foods mf
		JOIN meals m ON m.id = mf.meal_id
		JOIN diet_plan_days d ON d.id = m.diet_plan_day_id
		JOIN diet_plans p ON p.id = d.diet_plan_id
		LEFT JOIN foods f ON f.id = mf.food_id
		WHERE p.athlete_id = $1
		  AND ($2::uuid IS NULL OR p.nutritionist_id = $2)
		  AND p.start_date <= $4
		  AND p.end_date >= $3
		ORDER BY p.id, d.id, m.id, mf.id
		LIMIT $5 OFFSET $6
	`

	rows, err := s.pool.Query(ctx, query, q.AthleteID, q.NutritionistID, q.From, q.To, limitOrAll(q.Limit), q.Offset)
	if err != nil {
		return nil, fmt.Errorf("find meal food rows: %w", err)
	}
	defer rows.Close()

	out := []storage.MealFoodRow{}
	for rows.Next() {
		var (
			mf   storage.MealFood
			meal storage.Meal
			day  storage.DietPlanDay
			plan storage.DietPlan

			foodID        *uuid.UUID
			foodName      *string
			food          storage.Food
			foodCreatedAt *time.Time
			foodUpdatedAt *time.Time
		)

		err := rows.Scan(
			&mf.ID, &mf.MealID, &mf.FoodID, &mf.QuantityGrams, &mf.CreatedAt,
			&meal.ID, &meal.DietPlanDayID, &meal.MealType, &meal.ScheduledTime, &meal.OrderIndex, &meal.CreatedAt,
			&day.ID, &day.DietPlanID, &day.Date, &day.RepeatIntervalDays, &day.CreatedAt,
			&plan.ID, &plan.AthleteID, &plan.NutritionistID, &plan.StartDate, &plan.EndDate,
			&plan.TotalDailyCalories, &plan.Notes, &plan.CreatedAt, &plan.UpdatedAt,
			&foodID, &foodName, &food.CaloriesPer100g, &food.ProteinPer100g, &food.CarbsPer100g, &food.FatPer100g,
			&foodCreatedAt, &foodUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan meal food row: %w", err)
		}

		row := storage.MealFoodRow{MealFood: mf, Meal: &meal, Day: &day, Plan: &plan}
		if foodID != nil {
			food.ID = *foodID
			if foodName != nil {
				food.Name = *foodName
			}
			if foodCreatedAt != nil {
				food.CreatedAt = *foodCreatedAt
			}
			if foodUpdatedAt != nil {
				food.UpdatedAt = *foodUpdatedAt
			}
			row.Food = &food
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
