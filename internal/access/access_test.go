package access

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/userctx"
)

func createUser(t *testing.T, st *memory.MemoryStorage, email, role string, agency *storage.User) *storage.User {
	t.Helper()
	u := &storage.User{Email: email, Name: email, Role: role}
	if agency != nil {
		u.AgencyID = &agency.ID
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCheckerAthlete(t *testing.T) {
	st := memory.New()
	checker := NewChecker(st, st.GetCoachLinksStorage())

	agency := createUser(t, st, "agency@example.com", storage.RoleAgency, nil)
	otherAgency := createUser(t, st, "other@example.com", storage.RoleAgency, nil)
	athlete := createUser(t, st, "athlete@example.com", storage.RoleAthlete, agency)
	linked := createUser(t, st, "coach@example.com", storage.RoleNutritionist, agency)
	stranger := createUser(t, st, "stranger@example.com", storage.RoleTrainer, agency)
	admin := createUser(t, st, "admin@example.com", storage.RoleAdmin, nil)

	link := &storage.CoachLink{AthleteID: athlete.ID, CoachID: linked.ID, Kind: storage.LinkKindNutritionist}
	if err := st.GetCoachLinksStorage().CreateCoachLink(context.Background(), link); err != nil {
		t.Fatalf("create link: %v", err)
	}

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr bool
	}{
		{"anonymous", context.Background(), false},
		{"self", userctx.WithUserID(context.Background(), athlete.ID.String()), false},
		{"admin", userctx.WithUserID(context.Background(), admin.ID.String()), false},
		{"linked coach", userctx.WithUserID(context.Background(), linked.ID.String()), false},
		{"own agency", userctx.WithUserID(context.Background(), agency.ID.String()), false},
		{"unlinked coach", userctx.WithUserID(context.Background(), stranger.ID.String()), true},
		{"other agency", userctx.WithUserID(context.Background(), otherAgency.ID.String()), true},
		{"malformed subject", userctx.WithUserID(context.Background(), "dev-user"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.Athlete(tt.ctx, athlete.ID)
			if tt.wantErr && !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected access, got %v", err)
			}
		})
	}
}
