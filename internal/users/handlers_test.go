package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	store   *memory.MemoryStorage
	handler *Handler
}

func newEnv() env {
	store := memory.New()
	checker := access.NewChecker(store, store.GetCoachLinksStorage())
	return env{store: store, handler: NewHandler(NewService(store, store.GetCoachLinksStorage(), checker))}
}

func (e env) user(t *testing.T, email, role string, agency *storage.User) *storage.User {
	t.Helper()
	u := &storage.User{Email: email, Name: email, Role: role}
	if agency != nil {
		u.AgencyID = &agency.ID
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e env) createLink(t *testing.T, athlete, coach *storage.User, kind string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(CreateCoachLinkRequest{AthleteID: athlete.ID, CoachID: coach.ID, Kind: kind})
	req := httptest.NewRequest(http.MethodPost, "/v1/coach-links", bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.handler.HandleCreateLink(w, req)
	return w
}

func TestCreateCoachLink(t *testing.T) {
	e := newEnv()
	agency := e.user(t, "agency@example.com", storage.RoleAgency, nil)
	other := e.user(t, "other@example.com", storage.RoleAgency, nil)
	athlete := e.user(t, "athlete@example.com", storage.RoleAthlete, agency)
	trainer := e.user(t, "trainer@example.com", storage.RoleTrainer, agency)
	nutri := e.user(t, "nutri@example.com", storage.RoleNutritionist, agency)
	foreign := e.user(t, "foreign@example.com", storage.RoleTrainer, other)
	free := e.user(t, "free@example.com", storage.RoleNutritionist, nil)

	w := e.createLink(t, athlete, trainer, storage.LinkKindTrainer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var link CoachLinkDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&link))
	assert.Equal(t, athlete.ID, link.AthleteID)
	assert.Equal(t, "trainer", link.Kind)

	require.Equal(t, http.StatusCreated, e.createLink(t, athlete, nutri, storage.LinkKindNutritionist).Code)

	cases := []struct {
		name    string
		athlete *storage.User
		coach   *storage.User
		kind    string
		status  int
	}{
		{"duplicate", athlete, trainer, storage.LinkKindTrainer, http.StatusConflict},
		{"kind mismatch", athlete, trainer, storage.LinkKindNutritionist, http.StatusBadRequest},
		{"unknown kind", athlete, trainer, "physio", http.StatusBadRequest},
		{"other agency", athlete, foreign, storage.LinkKindTrainer, http.StatusBadRequest},
		{"unaffiliated coach", athlete, free, storage.LinkKindNutritionist, http.StatusBadRequest},
		{"not an athlete", trainer, nutri, storage.LinkKindNutritionist, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.createLink(t, tc.athlete, tc.coach, tc.kind)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestCreateCoachLinkWithoutAgencies(t *testing.T) {
	e := newEnv()
	athlete := e.user(t, "solo@example.com", storage.RoleAthlete, nil)
	trainer := e.user(t, "coach@example.com", storage.RoleTrainer, nil)

	w := e.createLink(t, athlete, trainer, storage.LinkKindTrainer)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateCoachLinkForbiddenForStranger(t *testing.T) {
	e := newEnv()
	agency := e.user(t, "agency@example.com", storage.RoleAgency, nil)
	athlete := e.user(t, "athlete@example.com", storage.RoleAthlete, agency)
	trainer := e.user(t, "trainer@example.com", storage.RoleTrainer, agency)
	stranger := e.user(t, "stranger@example.com", storage.RoleTrainer, agency)

	body, _ := json.Marshal(CreateCoachLinkRequest{AthleteID: athlete.ID, CoachID: trainer.ID, Kind: "trainer"})
	req := httptest.NewRequest(http.MethodPost, "/v1/coach-links", bytes.NewReader(body))
	req = req.WithContext(userctx.WithUserID(req.Context(), stranger.ID.String()))
	w := httptest.NewRecorder()
	e.handler.HandleCreateLink(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/coach-links", bytes.NewReader(body))
	req = req.WithContext(userctx.WithUserID(req.Context(), agency.ID.String()))
	w = httptest.NewRecorder()
	e.handler.HandleCreateLink(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestListUsersFilters(t *testing.T) {
	e := newEnv()
	agency := e.user(t, "agency@example.com", storage.RoleAgency, nil)
	e.user(t, "a1@example.com", storage.RoleAthlete, agency)
	e.user(t, "a2@example.com", storage.RoleAthlete, nil)
	e.user(t, "t1@example.com", storage.RoleTrainer, agency)

	req := httptest.NewRequest(http.MethodGet, "/v1/users?role=athlete&agency_id="+agency.ID.String(), nil)
	w := httptest.NewRecorder()
	e.handler.HandleList(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp UsersResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "a1@example.com", resp.Users[0].Email)
	assert.NotContains(t, w.Body.String(), "password")

	req = httptest.NewRequest(http.MethodGet, "/v1/users?role=wizard", nil)
	w = httptest.NewRecorder()
	e.handler.HandleList(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUserRemovesLinks(t *testing.T) {
	e := newEnv()
	athlete := e.user(t, "athlete@example.com", storage.RoleAthlete, nil)
	trainer := e.user(t, "trainer@example.com", storage.RoleTrainer, nil)
	require.Equal(t, http.StatusCreated, e.createLink(t, athlete, trainer, storage.LinkKindTrainer).Code)

	req := httptest.NewRequest(http.MethodDelete, "/v1/users/"+trainer.ID.String(), nil)
	req.SetPathValue("id", trainer.ID.String())
	w := httptest.NewRecorder()
	e.handler.HandleDelete(w, req)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	links, err := e.store.GetCoachLinksStorage().ListCoachLinks(context.Background(), storage.CoachLinkFilter{AthleteID: &athlete.ID})
	require.NoError(t, err)
	assert.Empty(t, links)

	req = httptest.NewRequest(http.MethodGet, "/v1/users/"+trainer.ID.String(), nil)
	req.SetPathValue("id", trainer.ID.String())
	w = httptest.NewRecorder()
	e.handler.HandleGet(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndDeleteLinks(t *testing.T) {
	e := newEnv()
	athlete := e.user(t, "athlete@example.com", storage.RoleAthlete, nil)
	trainer := e.user(t, "trainer@example.com", storage.RoleTrainer, nil)
	w := e.createLink(t, athlete, trainer, storage.LinkKindTrainer)
	require.Equal(t, http.StatusCreated, w.Code)
	var created CoachLinkDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	req := httptest.NewRequest(http.MethodGet, "/v1/coach-links?coach_id="+trainer.ID.String(), nil)
	w = httptest.NewRecorder()
	e.handler.HandleListLinks(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp CoachLinksResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Links, 1)

	req = httptest.NewRequest(http.MethodGet, "/v1/coach-links", nil)
	w = httptest.NewRecorder()
	e.handler.HandleListLinks(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/coach-links/"+created.ID.String(), nil)
	req.SetPathValue("id", created.ID.String())
	w = httptest.NewRecorder()
	e.handler.HandleDeleteLink(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	e.handler.HandleDeleteLink(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
