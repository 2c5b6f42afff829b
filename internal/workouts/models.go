package workouts

import (
	"time"

	"github.com/google/uuid"
)

const (
	CategoryStrength = "strength"
	CategoryCardio   = "cardio"
	CategoryMobility = "mobility"
	CategoryOther    = "other"

	// allDays covers bits 0 (Monday) through 6 (Sunday).
	allDays = 1<<7 - 1
)

var weekdayNames = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// ============================================================================
// DTOs
// ============================================================================

type ExerciseDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PlanDTO represents a workout plan for API responses.
type PlanDTO struct {
	ID        uuid.UUID `json:"id"`
	AthleteID uuid.UUID `json:"athlete_id"`
	TrainerID uuid.UUID `json:"trainer_id"`
	Title     string    `json:"title"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanExerciseDTO is an exercise assignment; Days spells out DaysMask.
type PlanExerciseDTO struct {
	ID           uuid.UUID `json:"id"`
	PlanID       uuid.UUID `json:"plan_id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name,omitempty"`
	DaysMask     int       `json:"days_mask"`
	Days         []string  `json:"days"`
	Sets         int       `json:"sets"`
	Reps         int       `json:"reps"`
	WeightKg     *float64  `json:"weight_kg,omitempty"`
	DurationMin  *int      `json:"duration_min,omitempty"`
	OrderIndex   int       `json:"order_index"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ActivityLogDTO struct {
	ID             uuid.UUID  `json:"id"`
	AthleteID      uuid.UUID  `json:"athlete_id"`
	ExerciseID     *uuid.UUID `json:"exercise_id,omitempty"`
	PlanExerciseID *uuid.UUID `json:"plan_exercise_id,omitempty"`
	PerformedAt    time.Time  `json:"performed_at"`
	DurationMin    int        `json:"duration_min"`
	CaloriesBurned *float64   `json:"calories_burned,omitempty"`
	Note           string     `json:"note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ============================================================================
// Requests
// ============================================================================

type CreateExerciseRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type CreatePlanRequest struct {
	AthleteID uuid.UUID  `json:"athlete_id"`
	TrainerID *uuid.UUID `json:"trainer_id,omitempty"`
	Title     string     `json:"title"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Notes     string     `json:"notes"`
}

type AddPlanExerciseRequest struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	DaysMask    int       `json:"days_mask"`
	Sets        int       `json:"sets"`
	Reps        int       `json:"reps"`
	WeightKg    *float64  `json:"weight_kg,omitempty"`
	DurationMin *int      `json:"duration_min,omitempty"`
	OrderIndex  int       `json:"order_index"`
	Note        string    `json:"note"`
}

type CreateActivityLogRequest struct {
	AthleteID      uuid.UUID  `json:"athlete_id"`
	ExerciseID     *uuid.UUID `json:"exercise_id,omitempty"`
	PlanExerciseID *uuid.UUID `json:"plan_exercise_id,omitempty"`
	PerformedAt    string     `json:"performed_at,omitempty"` // RFC3339, default now
	DurationMin    int        `json:"duration_min"`
	CaloriesBurned *float64   `json:"calories_burned,omitempty"`
	Note           string     `json:"note"`
}

// ============================================================================
// Responses
// ============================================================================

type ExercisesResponse struct {
	Exercises []ExerciseDTO `json:"exercises"`
}

type PlansResponse struct {
	Plans []PlanDTO `json:"plans"`
}

type PlanDetailResponse struct {
	PlanDTO
	Exercises []PlanExerciseDTO `json:"exercises"`
}

type ActivityLogsResponse struct {
	Logs []ActivityLogDTO `json:"logs"`
}

// TodayResponse lists what is planned for a date and what was actually done.
type TodayResponse struct {
	Date      string            `json:"date"`
	AthleteID uuid.UUID         `json:"athlete_id"`
	Planned   []PlanExerciseDTO `json:"planned"`
	Logs      []ActivityLogDTO  `json:"logs"`
	IsDone    bool              `json:"is_done"`
}
