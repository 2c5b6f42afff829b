package users

import (
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// UserDTO — пользователь в ответах API, без хэша пароля
type UserDTO struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	AgencyID  *uuid.UUID `json:"agency_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UsersResponse — ответ для GET /v1/users
type UsersResponse struct {
	Users []UserDTO `json:"users"`
}

// CoachLinkDTO — связь тренера или нутрициолога с атлетом
type CoachLinkDTO struct {
	ID        uuid.UUID `json:"id"`
	AthleteID uuid.UUID `json:"athlete_id"`
	CoachID   uuid.UUID `json:"coach_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCoachLinkRequest — запрос для POST /v1/coach-links
type CreateCoachLinkRequest struct {
	AthleteID uuid.UUID `json:"athlete_id"`
	CoachID   uuid.UUID `json:"coach_id"`
	Kind      string    `json:"kind"`
}

// CoachLinksResponse — ответ для GET /v1/coach-links
type CoachLinksResponse struct {
	Links []CoachLinkDTO `json:"links"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToDTO конвертирует storage.User в UserDTO
func ToDTO(u storage.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		AgencyID:  u.AgencyID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func linkToDTO(l storage.CoachLink) CoachLinkDTO {
	return CoachLinkDTO{
		ID:        l.ID,
		AthleteID: l.AthleteID,
		CoachID:   l.CoachID,
		Kind:      l.Kind,
		CreatedAt: l.CreatedAt,
	}
}
