package dietplans

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/google/uuid"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreatePlan creates a diet plan.
// POST /v1/diet-plans
func (h *Handlers) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.CreatePlan(r.Context(), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleListPlans lists plans.
// GET /v1/diet-plans?athlete_id=<uuid>&nutritionist_id=<uuid>
func (h *Handlers) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := queryUUID(w, r, "athlete_id")
	if !ok {
		return
	}
	nutritionistID, ok := queryUUID(w, r, "nutritionist_id")
	if !ok {
		return
	}

	plans, err := h.service.ListPlans(r.Context(), athleteID, nutritionistID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListPlansResponse{Plans: plans})
}

// HandleGetPlan returns the full plan tree.
// GET /v1/diet-plans/{id}
func (h *Handlers) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	resp, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdatePlan patches a plan.
// PATCH /v1/diet-plans/{id}
func (h *Handlers) HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.UpdatePlan(r.Context(), id, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeletePlan deletes a plan with its days, meals and meal foods.
// DELETE /v1/diet-plans/{id}
func (h *Handlers) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeletePlan)
}

// HandleCreateDay adds a day to a plan.
// POST /v1/diet-plans/{id}/days
func (h *Handlers) HandleCreateDay(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req CreateDayRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.CreateDay(r.Context(), planID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleListDays lists days of a plan.
// GET /v1/diet-plans/{id}/days
func (h *Handlers) HandleListDays(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r)
	if !ok {
		return
	}
	days, err := h.service.ListDays(r.Context(), planID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListDaysResponse{Days: days})
}

// DELETE /v1/diet-plan-days/{id}
func (h *Handlers) HandleDeleteDay(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeleteDay)
}

// HandleCreateMeal adds a meal to a day.
// POST /v1/diet-plan-days/{id}/meals
func (h *Handlers) HandleCreateMeal(w http.ResponseWriter, r *http.Request) {
	dayID, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req CreateMealRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.CreateMeal(r.Context(), dayID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GET /v1/diet-plan-days/{id}/meals
func (h *Handlers) HandleListMeals(w http.ResponseWriter, r *http.Request) {
	dayID, ok := pathUUID(w, r)
	if !ok {
		return
	}
	meals, err := h.service.ListMeals(r.Context(), dayID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListMealsResponse{Meals: meals})
}

// DELETE /v1/meals/{id}
func (h *Handlers) HandleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeleteMeal)
}

// HandleCreateMealFood adds a food with quantity to a meal.
// POST /v1/meals/{id}/foods
func (h *Handlers) HandleCreateMealFood(w http.ResponseWriter, r *http.Request) {
	mealID, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req CreateMealFoodRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.CreateMealFood(r.Context(), mealID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GET /v1/meals/{id}/foods
func (h *Handlers) HandleListMealFoods(w http.ResponseWriter, r *http.Request) {
	mealID, ok := pathUUID(w, r)
	if !ok {
		return
	}
	foods, err := h.service.ListMealFoods(r.Context(), mealID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListMealFoodsResponse{Foods: foods})
}

// DELETE /v1/meal-foods/{id}
func (h *Handlers) HandleDeleteMealFood(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeleteMealFood)
}

func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id uuid.UUID) error) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Error handling
// ============================================================================

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, access.ErrForbidden):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	default:
		log.Printf("ERROR: diet plans: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// ============================================================================
// Helpers
// ============================================================================

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(w http.ResponseWriter, r *http.Request, key string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+key)
		return nil, false
	}
	return &id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
