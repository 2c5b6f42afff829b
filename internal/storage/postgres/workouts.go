package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWorkoutsStorage implements storage.WorkoutsStorage.
type PostgresWorkoutsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresWorkoutsStorage(pool *pgxpool.Pool) *PostgresWorkoutsStorage {
	return &PostgresWorkoutsStorage{pool: pool}
}

const (
	exerciseColumns     = `id, name, category, description, created_by, created_at`
	workoutPlanColumns  = `id, athlete_id, trainer_id, title, start_date, end_date, notes, created_at, updated_at`
	planExerciseColumns = `id, plan_id, exercise_id, days_mask, sets, reps, weight_kg, duration_min, order_index, note, created_at`
	activityColumns     = `id, athlete_id, exercise_id, plan_exercise_id, performed_at, duration_min, calories_burned, note, created_at`
)

func scanExercise(row pgx.Row) (*storage.Exercise, error) {
	var e storage.Exercise
	if err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Description, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func scanWorkoutPlan(row pgx.Row) (*storage.WorkoutPlan, error) {
	var p storage.WorkoutPlan
	err := row.Scan(&p.ID, &p.AthleteID, &p.TrainerID, &p.Title, &p.StartDate, &p.EndDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func scanPlanExercise(row pgx.Row) (*storage.WorkoutPlanExercise, error) {
	var pe storage.WorkoutPlanExercise
	err := row.Scan(&pe.ID, &pe.PlanID, &pe.ExerciseID, &pe.DaysMask, &pe.Sets, &pe.Reps,
		&pe.WeightKg, &pe.DurationMin, &pe.OrderIndex, &pe.Note, &pe.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &pe, nil
}

func scanActivity(row pgx.Row) (*storage.ActivityLog, error) {
	var a storage.ActivityLog
	err := row.Scan(&a.ID, &a.AthleteID, &a.ExerciseID, &a.PlanExerciseID, &a.PerformedAt,
		&a.DurationMin, &a.CaloriesBurned, &a.Note, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *PostgresWorkoutsStorage) CreateExercise(ctx context.Context, ex *storage.Exercise) error {
	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	ex.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO exercises (`+exerciseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ex.ID, ex.Name, ex.Category, ex.Description, ex.CreatedBy, ex.CreatedAt)
	return mapWriteErr(err)
}

func (s *PostgresWorkoutsStorage) GetExercise(ctx context.Context, id uuid.UUID) (*storage.Exercise, error) {
	return scanExercise(s.pool.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
}

func (s *PostgresWorkoutsStorage) ListExercises(ctx context.Context, query string, limit, offset int) ([]storage.Exercise, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+exerciseColumns+`
		FROM exercises
		WHERE LOWER(name) LIKE $1
		ORDER BY name ASC, id ASC
		LIMIT $2 OFFSET $3
	`, "%"+strings.ToLower(strings.TrimSpace(query))+"%", limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return collect(rows, scanExercise)
}

func (s *PostgresWorkoutsStorage) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM exercises WHERE id = $1`, id)
}

func (s *PostgresWorkoutsStorage) CreateWorkoutPlan(ctx context.Context, plan *storage.WorkoutPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO workout_plans (`+workoutPlanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, plan.ID, plan.AthleteID, plan.TrainerID, plan.Title, plan.StartDate, plan.EndDate, plan.Notes, plan.CreatedAt, plan.UpdatedAt)
	return mapWriteErr(err)
}

func (s *PostgresWorkoutsStorage) GetWorkoutPlan(ctx context.Context, id uuid.UUID) (*storage.WorkoutPlan, error) {
	return scanWorkoutPlan(s.pool.QueryRow(ctx, `SELECT `+workoutPlanColumns+` FROM workout_plans WHERE id = $1`, id))
}

func (s *PostgresWorkoutsStorage) ListWorkoutPlans(ctx context.Context, filter storage.WorkoutPlanFilter) ([]storage.WorkoutPlan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+workoutPlanColumns+`
		FROM workout_plans
		WHERE ($1::uuid IS NULL OR athlete_id = $1)
		  AND ($2::uuid IS NULL OR trainer_id = $2)
		  AND ($3::date IS NULL OR (start_date <= $3 AND end_date >= $3))
		ORDER BY start_date DESC, id ASC
	`, filter.AthleteID, filter.TrainerID, filter.ActiveOn)
	if err != nil {
		return nil, fmt.Errorf("list workout plans: %w", err)
	}
	return collect(rows, scanWorkoutPlan)
}

func (s *PostgresWorkoutsStorage) DeleteWorkoutPlan(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM workout_plans WHERE id = $1`, id)
}

func (s *PostgresWorkoutsStorage) CreatePlanExercise(ctx context.Context, pe *storage.WorkoutPlanExercise) error {
	if pe.ID == uuid.Nil {
		pe.ID = uuid.New()
	}
	pe.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO workout_plan_exercises (`+planExerciseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, pe.ID, pe.PlanID, pe.ExerciseID, pe.DaysMask, pe.Sets, pe.Reps, pe.WeightKg, pe.DurationMin,
		pe.OrderIndex, pe.Note, pe.CreatedAt)
	return mapWriteErr(err)
}

func (s *PostgresWorkoutsStorage) GetPlanExercise(ctx context.Context, id uuid.UUID) (*storage.WorkoutPlanExercise, error) {
	return scanPlanExercise(s.pool.QueryRow(ctx, `SELECT `+planExerciseColumns+` FROM workout_plan_exercises WHERE id = $1`, id))
}

func (s *PostgresWorkoutsStorage) ListPlanExercises(ctx context.Context, planID uuid.UUID) ([]storage.WorkoutPlanExercise, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+planExerciseColumns+`
		FROM workout_plan_exercises
		WHERE plan_id = $1
		ORDER BY order_index ASC, created_at ASC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan exercises: %w", err)
	}
	return collect(rows, scanPlanExercise)
}

func (s *PostgresWorkoutsStorage) DeletePlanExercise(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM workout_plan_exercises WHERE id = $1`, id)
}

func (s *PostgresWorkoutsStorage) CreateActivityLog(ctx context.Context, entry *storage.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_logs (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, entry.AthleteID, entry.ExerciseID, entry.PlanExerciseID, entry.PerformedAt,
		entry.DurationMin, entry.CaloriesBurned, entry.Note, entry.CreatedAt)
	return mapWriteErr(err)
}

func (s *PostgresWorkoutsStorage) GetActivityLog(ctx context.Context, id uuid.UUID) (*storage.ActivityLog, error) {
	return scanActivity(s.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activity_logs WHERE id = $1`, id))
}

func (s *PostgresWorkoutsStorage) ListActivityLogs(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]storage.ActivityLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activity_logs
		WHERE athlete_id = $1 AND performed_at >= $2 AND performed_at < $3
		ORDER BY performed_at ASC
	`, athleteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return collect(rows, scanActivity)
}

func (s *PostgresWorkoutsStorage) DeleteActivityLog(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM activity_logs WHERE id = $1`, id)
}
