package dietplans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// Service manages diet plans and their days, meals and meal foods.
type Service struct {
	plans  storage.DietPlansStorage
	foods  storage.FoodsStorage
	users  storage.Storage
	access *access.Checker
}

func NewService(plans storage.DietPlansStorage, foods storage.FoodsStorage, users storage.Storage, checker *access.Checker) *Service {
	return &Service{plans: plans, foods: foods, users: users, access: checker}
}

// ============================================================================
// Plans
// ============================================================================

// CreatePlan creates a plan. A nutritionist caller may omit nutritionist_id.
func (s *Service) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*PlanDTO, error) {
	caller, err := s.access.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.NutritionistID == nil && caller != nil && caller.Role == storage.RoleNutritionist {
		req.NutritionistID = &caller.ID
	}

	if req.AthleteID == uuid.Nil {
		return nil, fmt.Errorf("%w: athlete_id is required", ErrInvalidRequest)
	}
	if req.NutritionistID == nil || *req.NutritionistID == uuid.Nil {
		return nil, fmt.Errorf("%w: nutritionist_id is required", ErrInvalidRequest)
	}
	start, end, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := validateCalories(req.TotalDailyCalories); err != nil {
		return nil, err
	}
	if len(req.Notes) > maxNotesLen {
		return nil, fmt.Errorf("%w: notes too long", ErrInvalidRequest)
	}
	if err := s.requireRole(ctx, req.AthleteID, storage.RoleAthlete, "athlete_id"); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, *req.NutritionistID, storage.RoleNutritionist, "nutritionist_id"); err != nil {
		return nil, err
	}

	plan := &storage.DietPlan{
		AthleteID:          req.AthleteID,
		NutritionistID:     *req.NutritionistID,
		StartDate:          start,
		EndDate:            end,
		TotalDailyCalories: req.TotalDailyCalories,
		Notes:              strings.TrimSpace(req.Notes),
	}
	if err := s.ensureWrite(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.plans.CreateDietPlan(ctx, plan); err != nil {
		return nil, err
	}

	dto := planToDTO(*plan)
	return &dto, nil
}

// ListPlans lists plans of an athlete and/or a nutritionist.
func (s *Service) ListPlans(ctx context.Context, athleteID, nutritionistID *uuid.UUID) ([]PlanDTO, error) {
	if athleteID == nil && nutritionistID == nil {
		return nil, fmt.Errorf("%w: athlete_id or nutritionist_id is required", ErrInvalidRequest)
	}
	if athleteID != nil {
		if err := s.access.Athlete(ctx, *athleteID); err != nil {
			return nil, err
		}
	}

	list, err := s.plans.ListDietPlans(ctx, storage.DietPlanFilter{AthleteID: athleteID, NutritionistID: nutritionistID})
	if err != nil {
		return nil, err
	}

	out := make([]PlanDTO, 0, len(list))
	for _, p := range list {
		// nutritionist-only listing still hides athletes the caller cannot see
		if athleteID == nil {
			if err := s.access.Athlete(ctx, p.AthleteID); err != nil {
				if errors.Is(err, access.ErrForbidden) {
					continue
				}
				return nil, err
			}
		}
		out = append(out, planToDTO(p))
	}
	return out, nil
}

// GetPlan returns the plan with all days, meals and foods.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*PlanTreeResponse, error) {
	plan, err := s.readablePlan(ctx, id)
	if err != nil {
		return nil, err
	}

	days, err := s.plans.ListDietPlanDays(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	resp := &PlanTreeResponse{PlanDTO: planToDTO(*plan), Days: make([]DayTree, 0, len(days))}
	for _, d := range days {
		meals, err := s.plans.ListMeals(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		dayTree := DayTree{DayDTO: dayToDTO(d), Meals: make([]MealTree, 0, len(meals))}
		for _, m := range meals {
			foods, total, err := s.mealFoods(ctx, m.ID)
			if err != nil {
				return nil, err
			}
			dayTree.Meals = append(dayTree.Meals, MealTree{MealDTO: mealToDTO(m), Foods: foods, Nutrients: total.Rounded()})
		}
		resp.Days = append(resp.Days, dayTree)
	}
	return resp, nil
}

// UpdatePlan changes the period, calories target or notes. Existing days
// must stay within the new period.
func (s *Service) UpdatePlan(ctx context.Context, id uuid.UUID, req *UpdatePlanRequest) (*PlanDTO, error) {
	plan, err := s.writablePlan(ctx, id)
	if err != nil {
		return nil, err
	}

	startRaw, endRaw := calendar.Format(plan.StartDate), calendar.Format(plan.EndDate)
	if req.StartDate != nil {
		startRaw = *req.StartDate
	}
	if req.EndDate != nil {
		endRaw = *req.EndDate
	}
	start, end, err := parsePeriod(startRaw, endRaw)
	if err != nil {
		return nil, err
	}

	days, err := s.plans.ListDietPlanDays(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		if d.Date.Before(start) || d.Date.After(end) {
			return nil, fmt.Errorf("%w: day %s falls outside the new period", ErrInvalidRequest, calendar.Format(d.Date))
		}
	}

	if req.TotalDailyCalories != nil {
		if err := validateCalories(req.TotalDailyCalories); err != nil {
			return nil, err
		}
		plan.TotalDailyCalories = req.TotalDailyCalories
	}
	if req.Notes != nil {
		if len(*req.Notes) > maxNotesLen {
			return nil, fmt.Errorf("%w: notes too long", ErrInvalidRequest)
		}
		plan.Notes = strings.TrimSpace(*req.Notes)
	}
	plan.StartDate, plan.EndDate = start, end

	if err := s.plans.UpdateDietPlan(ctx, plan); err != nil {
		return nil, notFound(err)
	}
	dto := planToDTO(*plan)
	return &dto, nil
}

// DeletePlan removes the plan and everything below it, leaves first.
func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	plan, err := s.writablePlan(ctx, id)
	if err != nil {
		return err
	}
	days, err := s.plans.ListDietPlanDays(ctx, plan.ID)
	if err != nil {
		return err
	}
	for _, d := range days {
		if err := s.deleteDayTree(ctx, d.ID); err != nil {
			return err
		}
	}
	return notFound(s.plans.DeleteDietPlan(ctx, plan.ID))
}

// ============================================================================
// Days
// ============================================================================

func (s *Service) CreateDay(ctx context.Context, planID uuid.UUID, req *CreateDayRequest) (*DayDTO, error) {
	plan, err := s.writablePlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	date, err := req.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if date.Before(plan.StartDate) || date.After(plan.EndDate) {
		return nil, fmt.Errorf("%w: date must lie within the plan period", ErrInvalidRequest)
	}

	day := &storage.DietPlanDay{DietPlanID: plan.ID, Date: date, RepeatIntervalDays: req.RepeatIntervalDays}
	if err := s.plans.CreateDietPlanDay(ctx, day); err != nil {
		return nil, parentGone(err)
	}
	dto := dayToDTO(*day)
	return &dto, nil
}

func (s *Service) ListDays(ctx context.Context, planID uuid.UUID) ([]DayDTO, error) {
	if _, err := s.readablePlan(ctx, planID); err != nil {
		return nil, err
	}
	days, err := s.plans.ListDietPlanDays(ctx, planID)
	if err != nil {
		return nil, err
	}
	out := make([]DayDTO, 0, len(days))
	for _, d := range days {
		out = append(out, dayToDTO(d))
	}
	return out, nil
}

func (s *Service) DeleteDay(ctx context.Context, dayID uuid.UUID) error {
	day, err := s.plans.GetDietPlanDay(ctx, dayID)
	if err != nil {
		return notFound(err)
	}
	if _, err := s.writablePlan(ctx, day.DietPlanID); err != nil {
		return err
	}
	return s.deleteDayTree(ctx, day.ID)
}

func (s *Service) deleteDayTree(ctx context.Context, dayID uuid.UUID) error {
	meals, err := s.plans.ListMeals(ctx, dayID)
	if err != nil {
		return err
	}
	for _, m := range meals {
		if err := s.deleteMealTree(ctx, m.ID); err != nil {
			return err
		}
	}
	return notFound(s.plans.DeleteDietPlanDay(ctx, dayID))
}

// ============================================================================
// Meals
// ============================================================================

func (s *Service) CreateMeal(ctx context.Context, dayID uuid.UUID, req *CreateMealRequest) (*MealDTO, error) {
	day, err := s.plans.GetDietPlanDay(ctx, dayID)
	if err != nil {
		return nil, notFound(err)
	}
	if _, err := s.writablePlan(ctx, day.DietPlanID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	meal := &storage.Meal{
		DietPlanDayID: day.ID,
		MealType:      req.MealType,
		ScheduledTime: req.ScheduledTime,
		OrderIndex:    req.OrderIndex,
	}
	if err := s.plans.CreateMeal(ctx, meal); err != nil {
		return nil, parentGone(err)
	}
	dto := mealToDTO(*meal)
	return &dto, nil
}

func (s *Service) ListMeals(ctx context.Context, dayID uuid.UUID) ([]MealDTO, error) {
	day, err := s.plans.GetDietPlanDay(ctx, dayID)
	if err != nil {
		return nil, notFound(err)
	}
	if _, err := s.readablePlan(ctx, day.DietPlanID); err != nil {
		return nil, err
	}
	meals, err := s.plans.ListMeals(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	out := make([]MealDTO, 0, len(meals))
	for _, m := range meals {
		out = append(out, mealToDTO(m))
	}
	return out, nil
}

func (s *Service) DeleteMeal(ctx context.Context, mealID uuid.UUID) error {
	meal, err := s.plans.GetMeal(ctx, mealID)
	if err != nil {
		return notFound(err)
	}
	if _, err := s.planOfDay(ctx, meal.DietPlanDayID, true); err != nil {
		return err
	}
	return s.deleteMealTree(ctx, meal.ID)
}

func (s *Service) deleteMealTree(ctx context.Context, mealID uuid.UUID) error {
	foods, err := s.plans.ListMealFoods(ctx, mealID)
	if err != nil {
		return err
	}
	for _, mf := range foods {
		if err := s.plans.DeleteMealFood(ctx, mf.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return notFound(s.plans.DeleteMeal(ctx, mealID))
}

// ============================================================================
// Meal foods
// ============================================================================

func (s *Service) CreateMealFood(ctx context.Context, mealID uuid.UUID, req *CreateMealFoodRequest) (*MealFoodDTO, error) {
	meal, err := s.plans.GetMeal(ctx, mealID)
	if err != nil {
		return nil, notFound(err)
	}
	if _, err := s.planOfDay(ctx, meal.DietPlanDayID, true); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	food, err := s.foods.GetFood(ctx, req.FoodID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: food not found", ErrInvalidRequest)
	}
	if err != nil {
		return nil, err
	}

	mf := &storage.MealFood{MealID: meal.ID, FoodID: food.ID, QuantityGrams: req.QuantityGrams}
	if err := s.plans.CreateMealFood(ctx, mf); err != nil {
		return nil, parentGone(err)
	}
	dto := mealFoodToDTO(*mf, food)
	return &dto, nil
}

func (s *Service) ListMealFoods(ctx context.Context, mealID uuid.UUID) ([]MealFoodDTO, error) {
	meal, err := s.plans.GetMeal(ctx, mealID)
	if err != nil {
		return nil, notFound(err)
	}
	if _, err := s.planOfDay(ctx, meal.DietPlanDayID, false); err != nil {
		return nil, err
	}
	out, _, err := s.mealFoods(ctx, meal.ID)
	return out, err
}

func (s *Service) DeleteMealFood(ctx context.Context, id uuid.UUID) error {
	mf, err := s.plans.GetMealFood(ctx, id)
	if err != nil {
		return notFound(err)
	}
	meal, err := s.plans.GetMeal(ctx, mf.MealID)
	if err != nil {
		return notFound(err)
	}
	if _, err := s.planOfDay(ctx, meal.DietPlanDayID, true); err != nil {
		return err
	}
	return notFound(s.plans.DeleteMealFood(ctx, mf.ID))
}

// mealFoods resolves foods of a meal and sums one occurrence of the meal.
func (s *Service) mealFoods(ctx context.Context, mealID uuid.UUID) ([]MealFoodDTO, nutrition.Nutrients, error) {
	list, err := s.plans.ListMealFoods(ctx, mealID)
	if err != nil {
		return nil, nutrition.Nutrients{}, err
	}
	out := make([]MealFoodDTO, 0, len(list))
	var total nutrition.Nutrients
	for _, mf := range list {
		food, err := s.foods.GetFood(ctx, mf.FoodID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, nutrition.Nutrients{}, err
		}
		if food != nil {
			total = total.Add(nutrition.Contribution(food, mf.QuantityGrams))
		}
		out = append(out, mealFoodToDTO(mf, food))
	}
	return out, total, nil
}

// ============================================================================
// Access
// ============================================================================

func (s *Service) readablePlan(ctx context.Context, id uuid.UUID) (*storage.DietPlan, error) {
	plan, err := s.plans.GetDietPlan(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.access.Athlete(ctx, plan.AthleteID); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) writablePlan(ctx context.Context, id uuid.UUID) (*storage.DietPlan, error) {
	plan, err := s.plans.GetDietPlan(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.ensureWrite(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) planOfDay(ctx context.Context, dayID uuid.UUID, write bool) (*storage.DietPlan, error) {
	day, err := s.plans.GetDietPlanDay(ctx, dayID)
	if err != nil {
		return nil, notFound(err)
	}
	if write {
		return s.writablePlan(ctx, day.DietPlanID)
	}
	return s.readablePlan(ctx, day.DietPlanID)
}

// ensureWrite: athletes see their plans but only the plan's nutritionist,
// the athlete's agency or an admin may change them.
func (s *Service) ensureWrite(ctx context.Context, plan *storage.DietPlan) error {
	caller, err := s.access.Caller(ctx)
	if err != nil || caller == nil {
		return err
	}
	switch caller.Role {
	case storage.RoleAdmin:
		return nil
	case storage.RoleNutritionist:
		if caller.ID == plan.NutritionistID {
			return s.access.Athlete(ctx, plan.AthleteID)
		}
	case storage.RoleAgency:
		return s.access.Athlete(ctx, plan.AthleteID)
	}
	return access.ErrForbidden
}

func (s *Service) requireRole(ctx context.Context, id uuid.UUID, role, field string) error {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s not found", ErrInvalidRequest, field)
	}
	if err != nil {
		return err
	}
	if u.Role != role {
		return fmt.Errorf("%w: %s must reference a user with role %s", ErrInvalidRequest, field, role)
	}
	return nil
}

func parsePeriod(startRaw, endRaw string) (start, end time.Time, err error) {
	start, err = calendar.Parse(strings.TrimSpace(startRaw))
	if err != nil {
		return start, end, fmt.Errorf("%w: start_date: %v", ErrInvalidRequest, err)
	}
	end, err = calendar.Parse(strings.TrimSpace(endRaw))
	if err != nil {
		return start, end, fmt.Errorf("%w: end_date: %v", ErrInvalidRequest, err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: end_date must not be before start_date", ErrInvalidRequest)
	}
	return start, end, nil
}

func validateCalories(v *float64) error {
	if v != nil && (*v < 0 || *v > 20000) {
		return fmt.Errorf("%w: total_daily_calories must be 0-20000", ErrInvalidRequest)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// parentGone maps a missing parent at insert time to 404.
func parentGone(err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return ErrNotFound
	}
	return err
}
