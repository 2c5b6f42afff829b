package dietplans

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
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t     *testing.T
	store *memory.MemoryStorage
	h     *Handlers
	as    string
}

func newHarness(t *testing.T) *harness {
	store := memory.New()
	checker := access.NewChecker(store, store.GetCoachLinksStorage())
	svc := NewService(store.GetDietPlansStorage(), store.GetFoodsStorage(), store, checker)
	return &harness{t: t, store: store, h: NewHandlers(svc)}
}

func (hs *harness) user(email, role string) *storage.User {
	hs.t.Helper()
	u := &storage.User{Email: email, Name: email, Role: role}
	require.NoError(hs.t, hs.store.CreateUser(context.Background(), u))
	return u
}

func (hs *harness) link(athlete, coach *storage.User) {
	hs.t.Helper()
	require.NoError(hs.t, hs.store.GetCoachLinksStorage().CreateCoachLink(context.Background(),
		&storage.CoachLink{AthleteID: athlete.ID, CoachID: coach.ID, Kind: coach.Role}))
}

// do runs handler with an optional JSON body and {id} path value.
func (hs *harness) do(handler http.HandlerFunc, method, id string, body interface{}) *httptest.ResponseRecorder {
	hs.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(hs.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/", &buf)
	if id != "" {
		req.SetPathValue("id", id)
	}
	if hs.as != "" {
		req = req.WithContext(userctx.WithUserID(req.Context(), hs.as))
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeInto[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestPlanTreeLifecycle(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	athlete := hs.user("athlete@example.com", storage.RoleAthlete)
	nutri := hs.user("nutri@example.com", storage.RoleNutritionist)
	hs.link(athlete, nutri)

	kcal, protein := 165.0, 31.0
	food := &storage.Food{Name: "Chicken", CaloriesPer100g: &kcal, ProteinPer100g: &protein}
	require.NoError(t, hs.store.GetFoodsStorage().CreateFood(ctx, food))

	hs.as = nutri.ID.String()
	w := hs.do(hs.h.HandleCreatePlan, http.MethodPost, "", CreatePlanRequest{
		AthleteID: athlete.ID, StartDate: "2025-01-01", EndDate: "2025-01-28", Notes: "cut",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decodeInto[PlanDTO](t, w)
	assert.Equal(t, nutri.ID, plan.NutritionistID, "nutritionist caller is the default")
	assert.Equal(t, "2025-01-28", plan.EndDate)

	w = hs.do(hs.h.HandleCreateDay, http.MethodPost, plan.ID.String(), CreateDayRequest{Date: "2025-01-01", RepeatIntervalDays: 7})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	day := decodeInto[DayDTO](t, w)

	w = hs.do(hs.h.HandleCreateMeal, http.MethodPost, day.ID.String(), CreateMealRequest{MealType: "Lunch", ScheduledTime: "13:00", OrderIndex: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	meal := decodeInto[MealDTO](t, w)
	assert.Equal(t, "lunch", meal.MealType)

	w = hs.do(hs.h.HandleCreateMealFood, http.MethodPost, meal.ID.String(), CreateMealFoodRequest{FoodID: food.ID, QuantityGrams: 150})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mf := decodeInto[MealFoodDTO](t, w)
	require.NotNil(t, mf.Food)
	assert.Equal(t, "Chicken", mf.Food.Name)

	w = hs.do(hs.h.HandleGetPlan, http.MethodGet, plan.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tree := decodeInto[PlanTreeResponse](t, w)
	require.Len(t, tree.Days, 1)
	require.Len(t, tree.Days[0].Meals, 1)
	assert.Equal(t, 247.5, tree.Days[0].Meals[0].Nutrients.Calories)
	assert.Equal(t, 46.5, tree.Days[0].Meals[0].Nutrients.Protein)

	hs.as = athlete.ID.String()
	w = hs.do(hs.h.HandleGetPlan, http.MethodGet, plan.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code, "athlete reads own plan")
	w = hs.do(hs.h.HandleDeleteMeal, http.MethodDelete, meal.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "athlete cannot edit")

	hs.as = nutri.ID.String()
	w = hs.do(hs.h.HandleDeletePlan, http.MethodDelete, plan.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	plans := hs.store.GetDietPlansStorage()
	_, err := plans.GetDietPlanDay(ctx, day.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = plans.GetMeal(ctx, meal.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = plans.GetMealFood(ctx, mf.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, hs.store.GetFoodsStorage().DeleteFood(ctx, food.ID), "food is free again")
}

func TestPlanValidation(t *testing.T) {
	hs := newHarness(t)
	athlete := hs.user("athlete@example.com", storage.RoleAthlete)
	nutri := hs.user("nutri@example.com", storage.RoleNutritionist)
	trainer := hs.user("trainer@example.com", storage.RoleTrainer)

	cases := map[string]CreatePlanRequest{
		"missing athlete":      {NutritionistID: &nutri.ID, StartDate: "2025-01-01", EndDate: "2025-01-02"},
		"missing nutritionist": {AthleteID: athlete.ID, StartDate: "2025-01-01", EndDate: "2025-01-02"},
		"wrong role":           {AthleteID: athlete.ID, NutritionistID: &trainer.ID, StartDate: "2025-01-01", EndDate: "2025-01-02"},
		"athlete not athlete":  {AthleteID: nutri.ID, NutritionistID: &nutri.ID, StartDate: "2025-01-01", EndDate: "2025-01-02"},
		"end before start":     {AthleteID: athlete.ID, NutritionistID: &nutri.ID, StartDate: "2025-02-01", EndDate: "2025-01-02"},
		"bad date":             {AthleteID: athlete.ID, NutritionistID: &nutri.ID, StartDate: "2025/01/01", EndDate: "2025-01-02"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			w := hs.do(hs.h.HandleCreatePlan, http.MethodPost, "", req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestChildValidation(t *testing.T) {
	hs := newHarness(t)
	athlete := hs.user("athlete@example.com", storage.RoleAthlete)
	nutri := hs.user("nutri@example.com", storage.RoleNutritionist)

	w := hs.do(hs.h.HandleCreatePlan, http.MethodPost, "", CreatePlanRequest{
		AthleteID: athlete.ID, NutritionistID: &nutri.ID, StartDate: "2025-01-01", EndDate: "2025-01-31",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	plan := decodeInto[PlanDTO](t, w)

	for name, req := range map[string]CreateDayRequest{
		"before plan":      {Date: "2024-12-31"},
		"after plan":       {Date: "2025-02-01"},
		"interval too big": {Date: "2025-01-05", RepeatIntervalDays: 366},
		"negative":         {Date: "2025-01-05", RepeatIntervalDays: -1},
	} {
		w := hs.do(hs.h.HandleCreateDay, http.MethodPost, plan.ID.String(), req)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	w = hs.do(hs.h.HandleCreateDay, http.MethodPost, uuid.NewString(), CreateDayRequest{Date: "2025-01-05"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = hs.do(hs.h.HandleCreateDay, http.MethodPost, plan.ID.String(), CreateDayRequest{Date: "2025-01-31", RepeatIntervalDays: 365})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	day := decodeInto[DayDTO](t, w)

	for name, req := range map[string]CreateMealRequest{
		"no type":  {ScheduledTime: "08:00"},
		"bad time": {MealType: "breakfast", ScheduledTime: "25:00"},
		"no colon": {MealType: "breakfast", ScheduledTime: "0800"},
	} {
		w := hs.do(hs.h.HandleCreateMeal, http.MethodPost, day.ID.String(), req)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	w = hs.do(hs.h.HandleCreateMeal, http.MethodPost, day.ID.String(), CreateMealRequest{MealType: "breakfast", ScheduledTime: "08:00"})
	require.Equal(t, http.StatusCreated, w.Code)
	meal := decodeInto[MealDTO](t, w)

	for name, req := range map[string]CreateMealFoodRequest{
		"unknown food":  {FoodID: uuid.New(), QuantityGrams: 100},
		"zero quantity": {FoodID: uuid.New(), QuantityGrams: 0},
		"too much":      {FoodID: uuid.New(), QuantityGrams: 5000.5},
	} {
		w := hs.do(hs.h.HandleCreateMealFood, http.MethodPost, meal.ID.String(), req)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	// shrinking the period under an existing day is rejected
	end := "2025-01-20"
	w = hs.do(hs.h.HandleUpdatePlan, http.MethodPatch, plan.ID.String(), UpdatePlanRequest{EndDate: &end})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	notes := "  bulk  "
	w = hs.do(hs.h.HandleUpdatePlan, http.MethodPatch, plan.ID.String(), UpdatePlanRequest{Notes: &notes})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "bulk", decodeInto[PlanDTO](t, w).Notes)
}

func TestListPlansHidesForeignAthletes(t *testing.T) {
	hs := newHarness(t)
	mine := hs.user("mine@example.com", storage.RoleAthlete)
	other := hs.user("other@example.com", storage.RoleAthlete)
	nutri := hs.user("nutri@example.com", storage.RoleNutritionist)
	hs.link(mine, nutri)

	plans := hs.store.GetDietPlansStorage()
	for _, a := range []*storage.User{mine, other} {
		require.NoError(t, plans.CreateDietPlan(context.Background(), &storage.DietPlan{AthleteID: a.ID, NutritionistID: nutri.ID}))
	}

	hs.as = nutri.ID.String()
	req := httptest.NewRequest(http.MethodGet, "/v1/diet-plans?nutritionist_id="+nutri.ID.String(), nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), hs.as))
	w := httptest.NewRecorder()
	hs.h.HandleListPlans(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeInto[ListPlansResponse](t, w)
	require.Len(t, resp.Plans, 1)
	assert.Equal(t, mine.ID, resp.Plans[0].AthleteID)

	req = httptest.NewRequest(http.MethodGet, "/v1/diet-plans", nil)
	w = httptest.NewRecorder()
	hs.h.HandleListPlans(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
