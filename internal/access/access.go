package access

import (
	"context"
	"errors"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
)

// ErrForbidden is returned when the caller may not touch an athlete's data.
// Handlers report it as 404 so athlete existence is not revealed.
var ErrForbidden = errors.New("forbidden")

// Checker decides whether the authenticated caller may act on an athlete.
// Requests without a user in context (auth disabled) are always allowed.
type Checker struct {
	users storage.Storage
	links storage.CoachLinksStorage
}

func NewChecker(users storage.Storage, links storage.CoachLinksStorage) *Checker {
	return &Checker{users: users, links: links}
}

// Caller returns the authenticated user, or nil for anonymous requests.
func (c *Checker) Caller(ctx context.Context) (*storage.User, error) {
	id, ok, err := userctx.UserUUID(ctx)
	if !ok {
		return nil, nil
	}
	if err != nil {
		return nil, ErrForbidden
	}
	user, err := c.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Athlete allows the athlete, an admin, a linked coach, or the athlete's agency.
func (c *Checker) Athlete(ctx context.Context, athleteID uuid.UUID) error {
	caller, err := c.Caller(ctx)
	if err != nil || caller == nil {
		return err
	}

	if caller.ID == athleteID || caller.Role == storage.RoleAdmin {
		return nil
	}

	switch caller.Role {
	case storage.RoleTrainer, storage.RoleNutritionist:
		links, err := c.links.ListCoachLinks(ctx, storage.CoachLinkFilter{
			AthleteID: &athleteID,
			CoachID:   &caller.ID,
		})
		if err != nil {
			return err
		}
		if len(links) > 0 {
			return nil
		}
	case storage.RoleAgency:
		athlete, err := c.users.GetUser(ctx, athleteID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrForbidden
		}
		if err != nil {
			return err
		}
		if athlete.AgencyID != nil && *athlete.AgencyID == caller.ID {
			return nil
		}
	}

	return ErrForbidden
}
