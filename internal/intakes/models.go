package intakes

import (
	"time"

	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/google/uuid"
)

type CreateIntakeRequest struct {
	AthleteID     uuid.UUID `json:"athlete_id"`
	FoodID        uuid.UUID `json:"food_id"`
	QuantityGrams float64   `json:"quantity_grams"`
	MealType      string    `json:"meal_type"`
	ConsumedAt    string    `json:"consumed_at,omitempty"` // RFC3339, default now
	Note          string    `json:"note,omitempty"`
}

type IntakeDTO struct {
	ID            uuid.UUID           `json:"id"`
	AthleteID     uuid.UUID           `json:"athlete_id"`
	FoodID        uuid.UUID           `json:"food_id"`
	FoodName      string              `json:"food_name,omitempty"`
	QuantityGrams float64             `json:"quantity_grams"`
	MealType      string              `json:"meal_type"`
	ConsumedAt    time.Time           `json:"consumed_at"`
	Note          string              `json:"note,omitempty"`
	Nutrients     nutrition.Nutrients `json:"nutrients"`
	CreatedAt     time.Time           `json:"created_at"`
}

type IntakesResponse struct {
	Intakes []IntakeDTO `json:"intakes"`
}

// DailyResponse compares what the athlete ate with what the plans schedule.
type DailyResponse struct {
	Date       string                         `json:"date"`
	Consumed   nutrition.Nutrients            `json:"consumed"`
	ByMealType map[string]nutrition.Nutrients `json:"by_meal_type"`
	Planned    *nutrition.Nutrients           `json:"planned,omitempty"`
	Entries    int                            `json:"entries"`
}
