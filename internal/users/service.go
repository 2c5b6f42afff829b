package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

// Service содержит бизнес-логику пользователей и связей с тренерами
type Service struct {
	users  storage.Storage
	links  storage.CoachLinksStorage
	access *access.Checker
}

// NewService создаёт новый сервис
func NewService(users storage.Storage, links storage.CoachLinksStorage, checker *access.Checker) *Service {
	return &Service{users: users, links: links, access: checker}
}

// ListUsers возвращает пользователей с фильтром по роли и агентству
func (s *Service) ListUsers(ctx context.Context, role string, agencyID *uuid.UUID) ([]UserDTO, error) {
	role = strings.TrimSpace(role)
	if role != "" && !storage.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}

	list, err := s.users.ListUsers(ctx, storage.UserFilter{Role: role, AgencyID: agencyID})
	if err != nil {
		return nil, err
	}
	dtos := make([]UserDTO, 0, len(list))
	for _, u := range list {
		dtos = append(dtos, ToDTO(u))
	}
	return dtos, nil
}

// GetUser возвращает пользователя по ID
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*u)
	return &dto, nil
}

// DeleteUser удаляет пользователя вместе со всеми его связями.
// Удалять может сам пользователь или админ.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	caller, err := s.access.Caller(ctx)
	if err != nil {
		return err
	}
	if caller != nil && caller.ID != id && caller.Role != storage.RoleAdmin {
		return access.ErrForbidden
	}

	if _, err := s.users.GetUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	for _, filter := range []storage.CoachLinkFilter{{AthleteID: &id}, {CoachID: &id}} {
		links, err := s.links.ListCoachLinks(ctx, filter)
		if err != nil {
			return err
		}
		for _, l := range links {
			if err := s.links.DeleteCoachLink(ctx, l.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("%w: user is still referenced", ErrConflict)
		}
		return err
	}
	return nil
}

// CreateCoachLink связывает атлета с тренером или нутрициологом одного агентства
func (s *Service) CreateCoachLink(ctx context.Context, req CreateCoachLinkRequest) (*CoachLinkDTO, error) {
	kind := strings.TrimSpace(req.Kind)
	if kind != storage.LinkKindTrainer && kind != storage.LinkKindNutritionist {
		return nil, fmt.Errorf("%w: kind must be trainer or nutritionist", ErrInvalidRequest)
	}
	if req.AthleteID == uuid.Nil || req.CoachID == uuid.Nil {
		return nil, fmt.Errorf("%w: athlete_id and coach_id are required", ErrInvalidRequest)
	}

	athlete, err := s.loadUser(ctx, req.AthleteID, "athlete")
	if err != nil {
		return nil, err
	}
	coach, err := s.loadUser(ctx, req.CoachID, "coach")
	if err != nil {
		return nil, err
	}

	if athlete.Role != storage.RoleAthlete {
		return nil, fmt.Errorf("%w: athlete_id must reference an athlete", ErrInvalidRequest)
	}
	if coach.Role != kind {
		return nil, fmt.Errorf("%w: coach role %q does not match kind %q", ErrInvalidRequest, coach.Role, kind)
	}
	if !sameAgency(athlete.AgencyID, coach.AgencyID) {
		return nil, fmt.Errorf("%w: athlete and coach belong to different agencies", ErrInvalidRequest)
	}

	if err := s.ensureCanManageLink(ctx, athlete, coach); err != nil {
		return nil, err
	}

	link := &storage.CoachLink{AthleteID: athlete.ID, CoachID: coach.ID, Kind: kind}
	if err := s.links.CreateCoachLink(ctx, link); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: link already exists", ErrConflict)
		}
		return nil, err
	}

	dto := linkToDTO(*link)
	return &dto, nil
}

// ListCoachLinks возвращает связи атлета или тренера
func (s *Service) ListCoachLinks(ctx context.Context, athleteID, coachID *uuid.UUID) ([]CoachLinkDTO, error) {
	if athleteID == nil && coachID == nil {
		return nil, fmt.Errorf("%w: athlete_id or coach_id is required", ErrInvalidRequest)
	}
	if athleteID != nil {
		if err := s.access.Athlete(ctx, *athleteID); err != nil {
			return nil, err
		}
	}

	links, err := s.links.ListCoachLinks(ctx, storage.CoachLinkFilter{AthleteID: athleteID, CoachID: coachID})
	if err != nil {
		return nil, err
	}
	dtos := make([]CoachLinkDTO, 0, len(links))
	for _, l := range links {
		dtos = append(dtos, linkToDTO(l))
	}
	return dtos, nil
}

// DeleteCoachLink удаляет связь
func (s *Service) DeleteCoachLink(ctx context.Context, id uuid.UUID) error {
	link, err := s.links.GetCoachLink(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	athlete, err := s.loadUser(ctx, link.AthleteID, "athlete")
	if err != nil {
		return err
	}
	coach, err := s.loadUser(ctx, link.CoachID, "coach")
	if err != nil {
		return err
	}
	if err := s.ensureCanManageLink(ctx, athlete, coach); err != nil {
		return err
	}

	if err := s.links.DeleteCoachLink(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ensureCanManageLink: админ, агентство атлета или сам тренер
func (s *Service) ensureCanManageLink(ctx context.Context, athlete, coach *storage.User) error {
	caller, err := s.access.Caller(ctx)
	if err != nil || caller == nil {
		return err
	}
	switch {
	case caller.Role == storage.RoleAdmin:
		return nil
	case caller.ID == coach.ID:
		return nil
	case caller.Role == storage.RoleAgency && athlete.AgencyID != nil && *athlete.AgencyID == caller.ID:
		return nil
	}
	return access.ErrForbidden
}

func (s *Service) loadUser(ctx context.Context, id uuid.UUID, what string) (*storage.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidRequest, what)
	}
	return u, err
}

// sameAgency: оба без агентства тоже считаются одним агентством
func sameAgency(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
