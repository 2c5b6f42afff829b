package nutrition

import (
	"context"
	"encoding/json"
	"errors"
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

type errorsBody struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// seedPlan stores a January plan with one lunch repeating weekly from 2025-01-01.
func seedPlan(t *testing.T, mem *memory.MemoryStorage) (athlete, nutritionist storage.User) {
	t.Helper()
	ctx := context.Background()

	athlete = storage.User{Email: "athlete@example.com", Name: "Athlete", Role: storage.RoleAthlete}
	nutritionist = storage.User{Email: "nutri@example.com", Name: "Nutri", Role: storage.RoleNutritionist}
	require.NoError(t, mem.CreateUser(ctx, &athlete))
	require.NoError(t, mem.CreateUser(ctx, &nutritionist))

	food := chicken()
	require.NoError(t, mem.GetFoodsStorage().CreateFood(ctx, food))

	plans := mem.GetDietPlansStorage()
	plan := &storage.DietPlan{
		AthleteID:      athlete.ID,
		NutritionistID: nutritionist.ID,
		StartDate:      mustDate(t, "2025-01-01"),
		EndDate:        mustDate(t, "2025-01-31"),
	}
	require.NoError(t, plans.CreateDietPlan(ctx, plan))
	day := &storage.DietPlanDay{DietPlanID: plan.ID, Date: mustDate(t, "2025-01-01"), RepeatIntervalDays: 7}
	require.NoError(t, plans.CreateDietPlanDay(ctx, day))
	meal := &storage.Meal{DietPlanDayID: day.ID, MealType: "lunch", ScheduledTime: "13:00"}
	require.NoError(t, plans.CreateMeal(ctx, meal))
	require.NoError(t, plans.CreateMealFood(ctx, &storage.MealFood{MealID: meal.ID, FoodID: food.ID, QuantityGrams: 150}))

	return athlete, nutritionist
}

func newTestHandlers(mem *memory.MemoryStorage, pageSize int) *Handlers {
	checker := access.NewChecker(mem, mem.GetCoachLinksStorage())
	return NewHandlers(NewService(mem.GetDietPlansStorage(), checker, pageSize, 366))
}

func TestTotalsEndpoint(t *testing.T) {
	mem := memory.New()
	athlete, _ := seedPlan(t, mem)
	h := newTestHandlers(mem, 100)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/nutrition/totals?athleteId="+athlete.ID.String()+"&from=2025-01-01&to=2025-01-31", nil)
	w := httptest.NewRecorder()
	h.HandleTotals(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TotalsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.IncludeRepeated)
	assert.NotEmpty(t, resp.Message)
	assert.Len(t, resp.DateRange, 31)
	assert.Equal(t, 1237.5, resp.GrandTotal.Calories)
	assert.Equal(t, 247.5, resp.DailyTotals["2025-01-15"].ByMealType["lunch"].Calories)
}

func TestTotalsEndpointWithoutRepeats(t *testing.T) {
	mem := memory.New()
	athlete, _ := seedPlan(t, mem)
	h := newTestHandlers(mem, 100)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/nutrition/totals?athleteId="+athlete.ID.String()+"&from=2025-01-01&to=2025-01-31&includeRepeated=false", nil)
	w := httptest.NewRecorder()
	h.HandleTotals(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TotalsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.IncludeRepeated)
	assert.Equal(t, 247.5, resp.GrandTotal.Calories)
}

func TestTotalsNutritionistFilter(t *testing.T) {
	mem := memory.New()
	athlete, _ := seedPlan(t, mem)
	h := newTestHandlers(mem, 100)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/nutrition/totals?athleteId="+athlete.ID.String()+"&from=2025-01-01&to=2025-01-07&nutritionistId="+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	h.HandleTotals(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TotalsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, Nutrients{}, resp.GrandTotal)
	assert.Len(t, resp.DailyTotals, 7)
}

func TestTotalsPaginatesAllRows(t *testing.T) {
	mem := memory.New()
	athlete, _ := seedPlan(t, mem)
	ctx := context.Background()

	// Five more foods on the same lunch so a page size of 2 needs three reads.
	plans := mem.GetDietPlansStorage()
	dietPlans, err := plans.ListDietPlans(ctx, storage.DietPlanFilter{AthleteID: &athlete.ID})
	require.NoError(t, err)
	require.Len(t, dietPlans, 1)
	planDays, err := plans.ListDietPlanDays(ctx, dietPlans[0].ID)
	require.NoError(t, err)
	meals, err := plans.ListMeals(ctx, planDays[0].ID)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		food := chicken()
		require.NoError(t, mem.GetFoodsStorage().CreateFood(ctx, food))
		require.NoError(t, plans.CreateMealFood(ctx, &storage.MealFood{MealID: meals[0].ID, FoodID: food.ID, QuantityGrams: 100}))
	}

	h := newTestHandlers(mem, 2)
	req := httptest.NewRequest(http.MethodGet,
		"/v1/nutrition/totals?athleteId="+athlete.ID.String()+"&from=2025-01-01&to=2025-01-01", nil)
	w := httptest.NewRecorder()
	h.HandleTotals(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TotalsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 247.5+5*165, resp.GrandTotal.Calories)
}

func TestHistoryEndpoint(t *testing.T) {
	mem := memory.New()
	athlete, _ := seedPlan(t, mem)
	h := newTestHandlers(mem, 100)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/nutrition/history?athleteId="+athlete.ID.String()+"&from=2025-01-07&to=2025-01-08", nil)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp HistoryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"2025-01-07", "2025-01-08"}, resp.DateRange)
	assert.Empty(t, resp.History["2025-01-07"].Meals)
	require.Len(t, resp.History["2025-01-08"].Meals, 1)
	meal := resp.History["2025-01-08"].Meals[0]
	assert.True(t, meal.IsRepeated)
	assert.Equal(t, "2025-01-01", meal.OriginalDate)
	assert.Equal(t, "13:00", meal.ScheduledTime)
	require.Len(t, meal.Foods, 1)
	assert.Equal(t, 150.0, meal.Foods[0].Quantity)
}

func TestNutritionValidation(t *testing.T) {
	h := newTestHandlers(memory.New(), 100)
	athlete := uuid.NewString()

	tests := []struct {
		name  string
		query string
	}{
		{"missing athleteId", "from=2025-01-01&to=2025-01-02"},
		{"invalid athleteId", "athleteId=nope"},
		{"invalid nutritionistId", "athleteId=" + athlete + "&nutritionistId=nope"},
		{"bad from", "athleteId=" + athlete + "&from=01.01.2025"},
		{"bad to", "athleteId=" + athlete + "&from=2025-01-01&to=2025-13-01"},
		{"from after to", "athleteId=" + athlete + "&from=2025-02-01&to=2025-01-01"},
		{"range too large", "athleteId=" + athlete + "&from=2024-01-01&to=2025-12-31"},
	}

	for _, tt := range tests {
		for _, path := range []string{"/v1/nutrition/totals", "/v1/nutrition/history"} {
			t.Run(tt.name+" "+path, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, path+"?"+tt.query, nil)
				w := httptest.NewRecorder()
				if path == "/v1/nutrition/totals" {
					h.HandleTotals(w, req)
				} else {
					h.HandleHistory(w, req)
				}

				require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
				var body errorsBody
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				require.NotEmpty(t, body.Errors)
				assert.NotEmpty(t, body.Errors[0].Message)
			})
		}
	}
}

func TestTotalsDefaultsToToday(t *testing.T) {
	h := newTestHandlers(memory.New(), 100)

	req := httptest.NewRequest(http.MethodGet, "/v1/nutrition/totals?athleteId="+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	h.HandleTotals(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TotalsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.DateRange, 1)
}

func TestTotalsForbiddenIsNotFound(t *testing.T) {
	mem := memory.New()
	athlete, _ := seedPlan(t, mem)
	stranger := storage.User{Email: "stranger@example.com", Role: storage.RoleTrainer}
	require.NoError(t, mem.CreateUser(context.Background(), &stranger))
	h := newTestHandlers(mem, 100)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/nutrition/totals?athleteId="+athlete.ID.String()+"&from=2025-01-01&to=2025-01-02", nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), stranger.ID.String()))
	w := httptest.NewRecorder()
	h.HandleTotals(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

// failingPlans fails every row lookup.
type failingPlans struct {
	storage.DietPlansStorage
}

func (failingPlans) FindMealFoodRows(ctx context.Context, q storage.MealFoodQuery) ([]storage.MealFoodRow, error) {
	return nil, errors.New("connection reset")
}

func TestStorageFailureIs500(t *testing.T) {
	h := NewHandlers(NewService(failingPlans{}, nil, 100, 366))

	for _, path := range []string{"/v1/nutrition/totals", "/v1/nutrition/history"} {
		req := httptest.NewRequest(http.MethodGet, path+"?athleteId="+uuid.NewString()+"&from=2025-01-01&to=2025-01-02", nil)
		w := httptest.NewRecorder()
		if path == "/v1/nutrition/totals" {
			h.HandleTotals(w, req)
		} else {
			h.HandleHistory(w, req)
		}

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body errorsBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Errors, 1)
		assert.Contains(t, body.Errors[0].Message, "Failed to compute")
		assert.NotContains(t, w.Body.String(), "connection reset")
	}
}

func TestParseIncludeRepeated(t *testing.T) {
	assert.True(t, ParseIncludeRepeated(""))
	assert.True(t, ParseIncludeRepeated("true"))
	assert.True(t, ParseIncludeRepeated("yes"))
	assert.False(t, ParseIncludeRepeated("false"))
	assert.False(t, ParseIncludeRepeated("FALSE"))
	assert.False(t, ParseIncludeRepeated("0"))
}
