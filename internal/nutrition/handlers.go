package nutrition

import (
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

// HandleTotals returns daily nutrient totals.
// GET /v1/nutrition/totals?athleteId=<uuid>&from=YYYY-MM-DD&to=YYYY-MM-DD&nutritionistId=<uuid>&includeRepeated=true
func (h *Handlers) HandleTotals(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Totals(r.Context(), q)
	if err != nil {
		h.handleError(w, err, "Failed to compute nutrition totals")
		return
	}
	writeJSON(w, http.StatusOK, TotalsResponse{
		TotalsResult:    *res,
		Message:         "Nutrition totals computed",
		IncludeRepeated: q.IncludeRepeated,
	})
}

// HandleHistory returns the meals scheduled on each date.
// GET /v1/nutrition/history?athleteId=<uuid>&from=YYYY-MM-DD&to=YYYY-MM-DD&nutritionistId=<uuid>&includeRepeated=true
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.History(r.Context(), q)
	if err != nil {
		h.handleError(w, err, "Failed to compute nutrition history")
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		HistoryResult:   *res,
		Message:         "Nutrition history computed",
		IncludeRepeated: q.IncludeRepeated,
	})
}

func parseQuery(r *http.Request) (Query, error) {
	values := r.URL.Query()

	athleteRaw := strings.TrimSpace(values.Get("athleteId"))
	if athleteRaw == "" {
		return Query{}, errors.New("athleteId is required")
	}
	athleteID, err := uuid.Parse(athleteRaw)
	if err != nil {
		return Query{}, errors.New("athleteId must be a valid UUID")
	}

	q := Query{
		AthleteID:       athleteID,
		From:            strings.TrimSpace(values.Get("from")),
		To:              strings.TrimSpace(values.Get("to")),
		IncludeRepeated: ParseIncludeRepeated(values.Get("includeRepeated")),
	}

	if raw := strings.TrimSpace(values.Get("nutritionistId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Query{}, errors.New("nutritionistId must be a valid UUID")
		}
		q.NutritionistID = &id
	}
	return q, nil
}

// ParseIncludeRepeated defaults to true; only "false" and "0" disable repeats.
func ParseIncludeRepeated(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "false", "0":
		return false
	default:
		return true
	}
}

// ============================================================================
// Error handling
// ============================================================================

func (h *Handlers) handleError(w http.ResponseWriter, err error, failure string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeErrors(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": "))
	case errors.Is(err, access.ErrForbidden):
		writeErrors(w, http.StatusNotFound, "athlete not found")
	default:
		log.Printf("ERROR: nutrition: %v", err)
		writeErrors(w, http.StatusInternalServerError, failure)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	type item struct {
		Message string `json:"message"`
	}
	items := make([]item, 0, len(messages))
	for _, m := range messages {
		items = append(items, item{Message: m})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"errors": items})
}
