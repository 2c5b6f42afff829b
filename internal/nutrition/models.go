package nutrition

import (
	"math"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// Nutrients holds macro totals. JSON keys follow the aggregation API.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// Rounded rounds every field to 2 decimals.
func (n Nutrients) Rounded() Nutrients {
	return Nutrients{
		Calories: round2(n.Calories),
		Protein:  round2(n.Protein),
		Carbs:    round2(n.Carbs),
		Fat:      round2(n.Fat),
	}
}

// Contribution is what grams of food add: per-100g value × grams / 100.
// Missing values count as zero.
func Contribution(food *storage.Food, grams float64) Nutrients {
	if food == nil {
		return Nutrients{}
	}
	factor := grams / 100
	return Nutrients{
		Calories: valueOrZero(food.CaloriesPer100g) * factor,
		Protein:  valueOrZero(food.ProteinPer100g) * factor,
		Carbs:    valueOrZero(food.CarbsPer100g) * factor,
		Fat:      valueOrZero(food.FatPer100g) * factor,
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DayTotals is one date's bucket in TotalsResponse.
type DayTotals struct {
	ByMealType map[string]Nutrients `json:"byMealType"`
	Total      Nutrients            `json:"total"`
}

// TotalsResult is the output of ComputeTotals.
type TotalsResult struct {
	DailyTotals map[string]DayTotals `json:"dailyTotals"`
	GrandTotal  Nutrients            `json:"grandTotal"`
	DateRange   []string             `json:"dateRange"`
}

// TotalsResponse is the body of GET /v1/nutrition/totals.
type TotalsResponse struct {
	TotalsResult
	Message         string `json:"message"`
	IncludeRepeated bool   `json:"includeRepeated"`
}

// FoodDTO mirrors the food document embedded in history entries.
type FoodDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	CaloriesPer100g *float64  `json:"calories_per_100g"`
	ProteinPer100g  *float64  `json:"protein_per_100g"`
	CarbsPer100g    *float64  `json:"carbs_per_100g"`
	FatPer100g      *float64  `json:"fat_per_100g"`
}

type MealFoodEntry struct {
	ID       uuid.UUID `json:"id"`
	Food     FoodDTO   `json:"food"`
	Quantity float64   `json:"quantity"`
}

// MealEntry is one meal on one date. OriginalDate is set for repeats only.
type MealEntry struct {
	ID            uuid.UUID       `json:"id"`
	MealType      string          `json:"mealType"`
	ScheduledTime string          `json:"scheduledTime"`
	OrderIndex    int             `json:"orderIndex"`
	Foods         []MealFoodEntry `json:"foods"`
	IsRepeated    bool            `json:"isRepeated"`
	OriginalDate  string          `json:"originalDate,omitempty"`
}

type DayHistory struct {
	Meals []MealEntry `json:"meals"`
}

// HistoryResult is the output of ComputeHistory.
type HistoryResult struct {
	History   map[string]DayHistory `json:"history"`
	DateRange []string              `json:"dateRange"`
}

// HistoryResponse is the body of GET /v1/nutrition/history.
type HistoryResponse struct {
	HistoryResult
	Message         string `json:"message"`
	IncludeRepeated bool   `json:"includeRepeated"`
}

// Query describes one aggregation request.
type Query struct {
	AthleteID       uuid.UUID
	NutritionistID  *uuid.UUID
	From            string // YYYY-MM-DD, empty = today
	To              string // YYYY-MM-DD, empty = today
	IncludeRepeated bool
}

// NewFoodDTO copies the per-100g values of a stored food.
func NewFoodDTO(f *storage.Food) FoodDTO {
	return FoodDTO{
		ID:              f.ID,
		Name:            f.Name,
		CaloriesPer100g: f.CaloriesPer100g,
		ProteinPer100g:  f.ProteinPer100g,
		CarbsPer100g:    f.CarbsPer100g,
		FatPer100g:      f.FatPer100g,
	}
}
