package foods

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

func newTestHandler() (*Handler, *memory.MemoryStorage) {
	store := memory.New()
	checker := access.NewChecker(store, store.GetCoachLinksStorage())
	return NewHandler(NewService(store.GetFoodsStorage(), checker)), store
}

func createFood(t *testing.T, h *Handler, body string) FoodDTO {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/foods", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.HandleCreate(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dto FoodDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	return dto
}

func TestFoodsCRUD(t *testing.T) {
	h, _ := newTestHandler()

	created := createFood(t, h, `{"name":" Chicken breast ","calories_per_100g":165,"protein_per_100g":31,"fat_per_100g":3.6}`)
	assert.Equal(t, "Chicken breast", created.Name)
	require.NotNil(t, created.CaloriesPer100g)
	assert.Equal(t, 165.0, *created.CaloriesPer100g)
	assert.Nil(t, created.CarbsPer100g)

	createFood(t, h, `{"name":"Rice","calories_per_100g":130,"carbs_per_100g":28}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/foods?q=chick", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListFoodsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)

	req = httptest.NewRequest(http.MethodPatch, "/v1/foods/"+created.ID.String(), bytes.NewBufferString(`{"carbs_per_100g":0}`))
	req.SetPathValue("id", created.ID.String())
	w = httptest.NewRecorder()
	h.HandleUpdate(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated FoodDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	require.NotNil(t, updated.CarbsPer100g)
	assert.Equal(t, 0.0, *updated.CarbsPer100g)
	assert.Equal(t, "Chicken breast", updated.Name)

	req = httptest.NewRequest(http.MethodDelete, "/v1/foods/"+created.ID.String(), nil)
	req.SetPathValue("id", created.ID.String())
	w = httptest.NewRecorder()
	h.HandleDelete(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/foods/"+created.ID.String(), nil)
	req.SetPathValue("id", created.ID.String())
	w = httptest.NewRecorder()
	h.HandleGet(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFoodsValidation(t *testing.T) {
	h, _ := newTestHandler()

	bodies := map[string]string{
		"missing name":      `{"calories_per_100g":100}`,
		"blank name":        `{"name":"   "}`,
		"calories too high": `{"name":"Butter","calories_per_100g":1001}`,
		"negative protein":  `{"name":"X","protein_per_100g":-1}`,
		"fat too high":      `{"name":"X","fat_per_100g":100.5}`,
		"bad json":          `{"name":`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/foods", bytes.NewBufferString(body))
			w := httptest.NewRecorder()
			h.HandleCreate(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	createFood(t, h, `{"name":"Oil","calories_per_100g":884,"fat_per_100g":100}`)
}

func TestDeleteFoodInUse(t *testing.T) {
	h, store := newTestHandler()
	ctx := context.Background()
	food := createFood(t, h, `{"name":"Oats","calories_per_100g":389}`)

	plans := store.GetDietPlansStorage()
	athlete := &storage.User{Email: "a@example.com", Role: storage.RoleAthlete}
	require.NoError(t, store.CreateUser(ctx, athlete))
	plan := &storage.DietPlan{AthleteID: athlete.ID}
	require.NoError(t, plans.CreateDietPlan(ctx, plan))
	day := &storage.DietPlanDay{DietPlanID: plan.ID}
	require.NoError(t, plans.CreateDietPlanDay(ctx, day))
	meal := &storage.Meal{DietPlanDayID: day.ID, MealType: "breakfast"}
	require.NoError(t, plans.CreateMeal(ctx, meal))
	require.NoError(t, plans.CreateMealFood(ctx, &storage.MealFood{MealID: meal.ID, FoodID: food.ID, QuantityGrams: 60}))

	req := httptest.NewRequest(http.MethodDelete, "/v1/foods/"+food.ID.String(), nil)
	req.SetPathValue("id", food.ID.String())
	w := httptest.NewRecorder()
	h.HandleDelete(w, req)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestFoodsOnlyAuthorMayEdit(t *testing.T) {
	h, store := newTestHandler()
	ctx := context.Background()
	author := &storage.User{Email: "nutri@example.com", Role: storage.RoleNutritionist}
	other := &storage.User{Email: "other@example.com", Role: storage.RoleNutritionist}
	require.NoError(t, store.CreateUser(ctx, author))
	require.NoError(t, store.CreateUser(ctx, other))

	req := httptest.NewRequest(http.MethodPost, "/v1/foods", bytes.NewBufferString(`{"name":"Quinoa"}`))
	req = req.WithContext(userctx.WithUserID(ctx, author.ID.String()))
	w := httptest.NewRecorder()
	h.HandleCreate(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var food FoodDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&food))
	require.NotNil(t, food.CreatedBy)
	assert.Equal(t, author.ID, *food.CreatedBy)

	req = httptest.NewRequest(http.MethodPatch, "/v1/foods/"+food.ID.String(), bytes.NewBufferString(`{"name":"Mine now"}`))
	req.SetPathValue("id", food.ID.String())
	req = req.WithContext(userctx.WithUserID(ctx, other.ID.String()))
	w = httptest.NewRecorder()
	h.HandleUpdate(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
