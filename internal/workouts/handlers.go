package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
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

// HandleCreateExercise handles POST /v1/exercises
func (h *Handlers) HandleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req CreateExerciseRequest
	if !decode(w, r, &req) {
		return
	}
	ex, err := h.service.CreateExercise(r.Context(), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

// HandleListExercises handles GET /v1/exercises?q=&limit=&offset=
func (h *Handlers) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.service.ListExercises(r.Context(), q.Get("q"), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExercisesResponse{Exercises: list})
}

// HandleDeleteExercise handles DELETE /v1/exercises/{id}
func (h *Handlers) HandleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeleteExercise)
}

// HandleCreatePlan handles POST /v1/workout-plans
func (h *Handlers) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := h.service.CreatePlan(r.Context(), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// HandleListPlans handles GET /v1/workout-plans?athlete_id=&trainer_id=
func (h *Handlers) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := queryUUID(w, r, "athlete_id")
	if !ok {
		return
	}
	trainerID, ok := queryUUID(w, r, "trainer_id")
	if !ok {
		return
	}

	plans, err := h.service.ListPlans(r.Context(), athleteID, trainerID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlansResponse{Plans: plans})
}

// HandleGetPlan handles GET /v1/workout-plans/{id}
func (h *Handlers) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	plan, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// HandleDeletePlan handles DELETE /v1/workout-plans/{id}
func (h *Handlers) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeletePlan)
}

// HandleAddPlanExercise handles POST /v1/workout-plans/{id}/exercises
func (h *Handlers) HandleAddPlanExercise(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req AddPlanExerciseRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.service.AddPlanExercise(r.Context(), planID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleDeletePlanExercise handles DELETE /v1/workout-plan-exercises/{id}
func (h *Handlers) HandleDeletePlanExercise(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeletePlanExercise)
}

// HandleCreateActivityLog handles POST /v1/activity-logs
func (h *Handlers) HandleCreateActivityLog(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityLogRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.service.CreateActivityLog(r.Context(), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleListActivityLogs handles GET /v1/activity-logs?athlete_id=&from=&to=
func (h *Handlers) HandleListActivityLogs(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := requiredAthlete(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	logs, err := h.service.ListActivityLogs(r.Context(), athleteID, q.Get("from"), q.Get("to"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActivityLogsResponse{Logs: logs})
}

// HandleDeleteActivityLog handles DELETE /v1/activity-logs/{id}
func (h *Handlers) HandleDeleteActivityLog(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, h.service.DeleteActivityLog)
}

// HandleGetToday returns the day's planned exercises and completion status.
// GET /v1/workouts/today?athlete_id=<uuid>&date=YYYY-MM-DD
func (h *Handlers) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := requiredAthlete(w, r)
	if !ok {
		return
	}
	resp, err := h.service.GetToday(r.Context(), athleteID, r.URL.Query().Get("date"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
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
	case errors.Is(err, ErrExerciseNotFound):
		writeError(w, http.StatusNotFound, "exercise_not_found", "exercise not found")
	case errors.Is(err, ErrPlanNotFound), errors.Is(err, access.ErrForbidden):
		writeError(w, http.StatusNotFound, "plan_not_found", "workout plan not found")
	case errors.Is(err, ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item_not_found", "workout plan exercise not found")
	case errors.Is(err, ErrLogNotFound):
		writeError(w, http.StatusNotFound, "log_not_found", "activity log not found")
	case errors.Is(err, ErrExerciseInUse):
		writeError(w, http.StatusConflict, "exercise_in_use", "exercise is assigned in a workout plan")
	default:
		log.Printf("ERROR: workouts: %v", err)
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

func requiredAthlete(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := queryUUID(w, r, "athlete_id")
	if !ok {
		return uuid.Nil, false
	}
	if id == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "athlete_id is required")
		return uuid.Nil, false
	}
	return *id, true
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
