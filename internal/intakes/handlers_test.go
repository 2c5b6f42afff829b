package intakes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Handlers, *memory.MemoryStorage, *storage.User, *storage.Food) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	checker := access.NewChecker(store, store.GetCoachLinksStorage())
	planned := nutrition.NewService(store.GetDietPlansStorage(), checker, 100, 366)
	h := NewHandlers(NewService(store.GetIntakesStorage(), store.GetFoodsStorage(), checker, planned))

	athlete := &storage.User{Email: "athlete@example.com", Role: storage.RoleAthlete}
	require.NoError(t, store.CreateUser(ctx, athlete))

	kcal, protein, fat := 389.0, 16.9, 6.9
	oats := &storage.Food{Name: "Oats", CaloriesPer100g: &kcal, ProteinPer100g: &protein, FatPer100g: &fat}
	require.NoError(t, store.GetFoodsStorage().CreateFood(ctx, oats))
	return h, store, athlete, oats
}

func postIntake(t *testing.T, h *Handlers, req CreateIntakeRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	r := httptest.NewRequest(http.MethodPost, "/v1/intakes", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleCreateIntake(w, r)
	return w
}

func TestIntakesDaily(t *testing.T) {
	h, store, athlete, oats := setup(t)
	ctx := context.Background()

	// plan schedules 50 g of oats every day at breakfast
	plans := store.GetDietPlansStorage()
	plan := &storage.DietPlan{AthleteID: athlete.ID, StartDate: mustDate(t, "2025-03-01"), EndDate: mustDate(t, "2025-03-31")}
	require.NoError(t, plans.CreateDietPlan(ctx, plan))
	day := &storage.DietPlanDay{DietPlanID: plan.ID, Date: mustDate(t, "2025-03-01"), RepeatIntervalDays: 1}
	require.NoError(t, plans.CreateDietPlanDay(ctx, day))
	meal := &storage.Meal{DietPlanDayID: day.ID, MealType: "breakfast"}
	require.NoError(t, plans.CreateMeal(ctx, meal))
	require.NoError(t, plans.CreateMealFood(ctx, &storage.MealFood{MealID: meal.ID, FoodID: oats.ID, QuantityGrams: 50}))

	for _, e := range []CreateIntakeRequest{
		{AthleteID: athlete.ID, FoodID: oats.ID, QuantityGrams: 80, MealType: "Breakfast", ConsumedAt: "2025-03-05T07:30:00Z"},
		{AthleteID: athlete.ID, FoodID: oats.ID, QuantityGrams: 20, MealType: "snack", ConsumedAt: "2025-03-05T16:00:00+02:00"},
		{AthleteID: athlete.ID, FoodID: oats.ID, QuantityGrams: 100, MealType: "snack", ConsumedAt: "2025-03-06T00:00:00Z"},
	} {
		w := postIntake(t, h, e)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	r := httptest.NewRequest(http.MethodGet, "/v1/intakes/daily?athlete_id="+athlete.ID.String()+"&date=2025-03-05", nil)
	w := httptest.NewRecorder()
	h.HandleDaily(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DailyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Entries)
	assert.Equal(t, 389.0, resp.Consumed.Calories)
	assert.Equal(t, 311.2, resp.ByMealType["breakfast"].Calories)
	assert.Equal(t, 77.8, resp.ByMealType["snack"].Calories)
	require.NotNil(t, resp.Planned)
	assert.Equal(t, 194.5, resp.Planned.Calories)

	r = httptest.NewRequest(http.MethodGet, "/v1/intakes?athlete_id="+athlete.ID.String()+"&from=2025-03-05&to=2025-03-06", nil)
	w = httptest.NewRecorder()
	h.HandleListIntakes(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	var list IntakesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Intakes, 3)
	assert.Equal(t, "Oats", list.Intakes[0].FoodName)
	assert.True(t, list.Intakes[0].ConsumedAt.Before(list.Intakes[2].ConsumedAt))
}

func TestIntakesValidation(t *testing.T) {
	h, _, athlete, oats := setup(t)

	cases := map[string]CreateIntakeRequest{
		"missing athlete": {FoodID: oats.ID, QuantityGrams: 10, MealType: "lunch"},
		"zero quantity":   {AthleteID: athlete.ID, FoodID: oats.ID, MealType: "lunch"},
		"no meal type":    {AthleteID: athlete.ID, FoodID: oats.ID, QuantityGrams: 10},
		"bad timestamp":   {AthleteID: athlete.ID, FoodID: oats.ID, QuantityGrams: 10, MealType: "lunch", ConsumedAt: "yesterday"},
		"unknown food":    {AthleteID: athlete.ID, FoodID: uuid.New(), QuantityGrams: 10, MealType: "lunch"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			w := postIntake(t, h, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	r := httptest.NewRequest(http.MethodGet, "/v1/intakes/daily", nil)
	w := httptest.NewRecorder()
	h.HandleDaily(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteIntakeOwnership(t *testing.T) {
	h, store, athlete, oats := setup(t)
	stranger := &storage.User{Email: "s@example.com", Role: storage.RoleAthlete}
	require.NoError(t, store.CreateUser(context.Background(), stranger))

	w := postIntake(t, h, CreateIntakeRequest{AthleteID: athlete.ID, FoodID: oats.ID, QuantityGrams: 40, MealType: "lunch"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created IntakeDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, 155.6, created.Nutrients.Calories)

	del := func(as *storage.User) int {
		r := httptest.NewRequest(http.MethodDelete, "/v1/intakes/"+created.ID.String(), nil)
		r.SetPathValue("id", created.ID.String())
		r = r.WithContext(userctx.WithUserID(r.Context(), as.ID.String()))
		w := httptest.NewRecorder()
		h.HandleDeleteIntake(w, r)
		return w.Code
	}
	assert.Equal(t, http.StatusNotFound, del(stranger))
	assert.Equal(t, http.StatusNoContent, del(athlete))
	assert.Equal(t, http.StatusNotFound, del(athlete))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.Parse(s)
	require.NoError(t, err)
	return d
}
