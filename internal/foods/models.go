package foods

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

const (
	maxNameLen     = 200
	maxCalories100 = 1000
	maxMacro100    = 100
)

// FoodDTO represents a catalog food with nutrients per 100 g. Nil means unknown.
type FoodDTO struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	CaloriesPer100g *float64   `json:"calories_per_100g"`
	ProteinPer100g  *float64   `json:"protein_per_100g"`
	CarbsPer100g    *float64   `json:"carbs_per_100g"`
	FatPer100g      *float64   `json:"fat_per_100g"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ListFoodsResponse is the response for GET /v1/foods.
type ListFoodsResponse struct {
	Items  []FoodDTO `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// FoodRequest is the body of POST /v1/foods and PATCH /v1/foods/{id}.
// On PATCH only non-nil fields are applied.
type FoodRequest struct {
	Name            *string  `json:"name"`
	CaloriesPer100g *float64 `json:"calories_per_100g"`
	ProteinPer100g  *float64 `json:"protein_per_100g"`
	CarbsPer100g    *float64 `json:"carbs_per_100g"`
	FatPer100g      *float64 `json:"fat_per_100g"`
}

// Validate checks field ranges. requireName is set on create.
func (r *FoodRequest) Validate(requireName bool) error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLen {
			return fmt.Errorf("name must be between 1 and %d characters", maxNameLen)
		}
		r.Name = &name
	} else if requireName {
		return fmt.Errorf("name is required")
	}

	if err := checkRange("calories_per_100g", r.CaloriesPer100g, maxCalories100); err != nil {
		return err
	}
	if err := checkRange("protein_per_100g", r.ProteinPer100g, maxMacro100); err != nil {
		return err
	}
	if err := checkRange("carbs_per_100g", r.CarbsPer100g, maxMacro100); err != nil {
		return err
	}
	return checkRange("fat_per_100g", r.FatPer100g, maxMacro100)
}

func checkRange(field string, v *float64, max float64) error {
	if v != nil && (*v < 0 || *v > max) {
		return fmt.Errorf("%s must be between 0 and %g", field, max)
	}
	return nil
}

// toDTO converts storage.Food to FoodDTO.
func toDTO(f storage.Food) FoodDTO {
	return FoodDTO{
		ID:              f.ID,
		Name:            f.Name,
		CaloriesPer100g: f.CaloriesPer100g,
		ProteinPer100g:  f.ProteinPer100g,
		CarbsPer100g:    f.CarbsPer100g,
		FatPer100g:      f.FatPer100g,
		CreatedBy:       f.CreatedBy,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}
