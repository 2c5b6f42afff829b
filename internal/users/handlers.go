package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/google/uuid"
)

// Handler содержит HTTP обработчики пользователей и связей
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList обрабатывает GET /v1/users?role=&agency_id=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := h.optionalUUID(w, r, "agency_id")
	if !ok {
		return
	}

	list, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("role"), agencyID)
	if err != nil {
		h.handleError(w, err, "Failed to list users")
		return
	}
	h.sendJSON(w, http.StatusOK, UsersResponse{Users: list})
}

// HandleGet обрабатывает GET /v1/users/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Invalid user ID")
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "Failed to get user")
		return
	}
	h.sendJSON(w, http.StatusOK, user)
}

// HandleDelete обрабатывает DELETE /v1/users/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Invalid user ID")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.handleError(w, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateLink обрабатывает POST /v1/coach-links
func (h *Handler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateCoachLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	link, err := h.service.CreateCoachLink(r.Context(), req)
	if err != nil {
		h.handleError(w, err, "Failed to create coach link")
		return
	}
	h.sendJSON(w, http.StatusCreated, link)
}

// HandleListLinks обрабатывает GET /v1/coach-links?athlete_id=|coach_id=
func (h *Handler) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := h.optionalUUID(w, r, "athlete_id")
	if !ok {
		return
	}
	coachID, ok := h.optionalUUID(w, r, "coach_id")
	if !ok {
		return
	}

	links, err := h.service.ListCoachLinks(r.Context(), athleteID, coachID)
	if err != nil {
		h.handleError(w, err, "Failed to list coach links")
		return
	}
	h.sendJSON(w, http.StatusOK, CoachLinksResponse{Links: links})
}

// HandleDeleteLink обрабатывает DELETE /v1/coach-links/{id}
func (h *Handler) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Invalid link ID")
		return
	}

	if err := h.service.DeleteCoachLink(r.Context(), id); err != nil {
		h.handleError(w, err, "Failed to delete coach link")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		h.sendError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, access.ErrForbidden):
		h.sendError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, ErrConflict):
		h.sendError(w, http.StatusConflict, "conflict", err.Error())
	default:
		log.Printf("ERROR: users: %v", err)
		h.sendError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// optionalUUID читает необязательный UUID из query; false — ответ уже записан
func (h *Handler) optionalUUID(w http.ResponseWriter, r *http.Request, key string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "invalid "+key)
		return nil, false
	}
	return &id, true
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате ErrorResponse
func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
