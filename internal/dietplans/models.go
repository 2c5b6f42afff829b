package dietplans

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

const (
	maxRepeatInterval = 365
	maxQuantityGrams  = 5000
	maxMealTypeLen    = 50
	maxNotesLen       = 2000
)

var scheduledTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type PlanDTO struct {
	ID                 uuid.UUID `json:"id"`
	AthleteID          uuid.UUID `json:"athlete_id"`
	NutritionistID     uuid.UUID `json:"nutritionist_id"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
	TotalDailyCalories *float64  `json:"total_daily_calories"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type DayDTO struct {
	ID                 uuid.UUID `json:"id"`
	DietPlanID         uuid.UUID `json:"diet_plan_id"`
	Date               string    `json:"date"`
	RepeatIntervalDays int       `json:"repeat_interval_days"`
	CreatedAt          time.Time `json:"created_at"`
}

type MealDTO struct {
	ID            uuid.UUID `json:"id"`
	DietPlanDayID uuid.UUID `json:"diet_plan_day_id"`
	MealType      string    `json:"meal_type"`
	ScheduledTime string    `json:"scheduled_time"`
	OrderIndex    int       `json:"order_index"`
	CreatedAt     time.Time `json:"created_at"`
}

type MealFoodDTO struct {
	ID            uuid.UUID          `json:"id"`
	MealID        uuid.UUID          `json:"meal_id"`
	FoodID        uuid.UUID          `json:"food_id"`
	QuantityGrams float64            `json:"quantity_grams"`
	Food          *nutrition.FoodDTO `json:"food,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// PlanTreeResponse is the full plan returned by GET /v1/diet-plans/{id}.
type PlanTreeResponse struct {
	PlanDTO
	Days []DayTree `json:"days"`
}

type DayTree struct {
	DayDTO
	Meals []MealTree `json:"meals"`
}

// MealTree carries the meal's nutrient sum for one occurrence.
type MealTree struct {
	MealDTO
	Foods     []MealFoodDTO       `json:"foods"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
}

type ListPlansResponse struct {
	Plans []PlanDTO `json:"plans"`
}

type ListDaysResponse struct {
	Days []DayDTO `json:"days"`
}

type ListMealsResponse struct {
	Meals []MealDTO `json:"meals"`
}

type ListMealFoodsResponse struct {
	Foods []MealFoodDTO `json:"foods"`
}

// CreatePlanRequest is the body of POST /v1/diet-plans.
type CreatePlanRequest struct {
	AthleteID          uuid.UUID  `json:"athlete_id"`
	NutritionistID     *uuid.UUID `json:"nutritionist_id"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	TotalDailyCalories *float64   `json:"total_daily_calories"`
	Notes              string     `json:"notes"`
}

// UpdatePlanRequest is the body of PATCH /v1/diet-plans/{id}.
type UpdatePlanRequest struct {
	StartDate          *string  `json:"start_date"`
	EndDate            *string  `json:"end_date"`
	TotalDailyCalories *float64 `json:"total_daily_calories"`
	Notes              *string  `json:"notes"`
}

type CreateDayRequest struct {
	Date               string `json:"date"`
	RepeatIntervalDays int    `json:"repeat_interval_days"`
}

type CreateMealRequest struct {
	MealType      string `json:"meal_type"`
	ScheduledTime string `json:"scheduled_time"`
	OrderIndex    int    `json:"order_index"`
}

type CreateMealFoodRequest struct {
	FoodID        uuid.UUID `json:"food_id"`
	QuantityGrams float64   `json:"quantity_grams"`
}

func (r *CreateDayRequest) Validate() (time.Time, error) {
	date, err := calendar.Parse(strings.TrimSpace(r.Date))
	if err != nil {
		return time.Time{}, fmt.Errorf("date: %v", err)
	}
	if r.RepeatIntervalDays < 0 || r.RepeatIntervalDays > maxRepeatInterval {
		return time.Time{}, fmt.Errorf("repeat_interval_days must be 0-%d", maxRepeatInterval)
	}
	return date, nil
}

func (r *CreateMealRequest) Validate() error {
	r.MealType = strings.ToLower(strings.TrimSpace(r.MealType))
	if r.MealType == "" || len(r.MealType) > maxMealTypeLen {
		return fmt.Errorf("meal_type must be 1-%d chars", maxMealTypeLen)
	}
	r.ScheduledTime = strings.TrimSpace(r.ScheduledTime)
	if r.ScheduledTime != "" && !scheduledTimeRe.MatchString(r.ScheduledTime) {
		return fmt.Errorf("scheduled_time must be HH:MM")
	}
	if r.OrderIndex < 0 {
		return fmt.Errorf("order_index must not be negative")
	}
	return nil
}

func (r *CreateMealFoodRequest) Validate() error {
	if r.FoodID == uuid.Nil {
		return fmt.Errorf("food_id is required")
	}
	if r.QuantityGrams <= 0 || r.QuantityGrams > maxQuantityGrams {
		return fmt.Errorf("quantity_grams must be > 0 and <= %d", maxQuantityGrams)
	}
	return nil
}

func planToDTO(p storage.DietPlan) PlanDTO {
	return PlanDTO{
		ID:                 p.ID,
		AthleteID:          p.AthleteID,
		NutritionistID:     p.NutritionistID,
		StartDate:          calendar.Format(p.StartDate),
		EndDate:            calendar.Format(p.EndDate),
		TotalDailyCalories: p.TotalDailyCalories,
		Notes:              p.Notes,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func dayToDTO(d storage.DietPlanDay) DayDTO {
	return DayDTO{
		ID:                 d.ID,
		DietPlanID:         d.DietPlanID,
		Date:               calendar.Format(d.Date),
		RepeatIntervalDays: d.RepeatIntervalDays,
		CreatedAt:          d.CreatedAt,
	}
}

func mealToDTO(m storage.Meal) MealDTO {
	return MealDTO{
		ID:            m.ID,
		DietPlanDayID: m.DietPlanDayID,
		MealType:      m.MealType,
		ScheduledTime: m.ScheduledTime,
		OrderIndex:    m.OrderIndex,
		CreatedAt:     m.CreatedAt,
	}
}

func mealFoodToDTO(mf storage.MealFood, food *storage.Food) MealFoodDTO {
	dto := MealFoodDTO{
		ID:            mf.ID,
		MealID:        mf.MealID,
		FoodID:        mf.FoodID,
		QuantityGrams: mf.QuantityGrams,
		CreatedAt:     mf.CreatedAt,
	}
	if food != nil {
		f := nutrition.NewFoodDTO(food)
		dto.Food = &f
	}
	return dto
}
