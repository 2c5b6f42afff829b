package nutrition

import (
	"sort"
	"time"

	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/storage"
)

// usable reports whether every reference of the row resolved.
func usable(row storage.MealFoodRow) bool {
	return row.Food != nil && row.Meal != nil && row.Day != nil && row.Plan != nil
}

func dateKeys(dates []time.Time) []string {
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = calendar.Format(d)
	}
	return keys
}

// ComputeTotals sums nutrient contributions per date and meal type over
// [from, to]. Every date and every meal type seen in rows gets a bucket, even
// when empty. Values are rounded once, after accumulation.
func ComputeTotals(rows []storage.MealFoodRow, from, to time.Time, includeRepeated bool) TotalsResult {
	dates := calendar.Range(from, to)
	keys := dateKeys(dates)

	mealTypes := map[string]struct{}{}
	for _, row := range rows {
		if row.Meal != nil {
			mealTypes[row.Meal.MealType] = struct{}{}
		}
	}

	type bucket struct {
		byType map[string]Nutrients
		total  Nutrients
	}
	raw := make(map[string]*bucket, len(keys))
	for _, k := range keys {
		b := &bucket{byType: make(map[string]Nutrients, len(mealTypes))}
		for mt := range mealTypes {
			b.byType[mt] = Nutrients{}
		}
		raw[k] = b
	}

	var grand Nutrients
	for _, row := range rows {
		if !usable(row) {
			continue
		}
		contrib := Contribution(row.Food, row.MealFood.QuantityGrams)
		for i, d := range dates {
			if !AppliesOn(*row.Day, row.Plan.StartDate, row.Plan.EndDate, d, includeRepeated) {
				continue
			}
			b := raw[keys[i]]
			b.byType[row.Meal.MealType] = b.byType[row.Meal.MealType].Add(contrib)
			b.total = b.total.Add(contrib)
			grand = grand.Add(contrib)
		}
	}

	daily := make(map[string]DayTotals, len(keys))
	for k, b := range raw {
		byType := make(map[string]Nutrients, len(b.byType))
		for mt, n := range b.byType {
			byType[mt] = n.Rounded()
		}
		daily[k] = DayTotals{ByMealType: byType, Total: b.total.Rounded()}
	}

	return TotalsResult{
		DailyTotals: daily,
		GrandTotal:  grand.Rounded(),
		DateRange:   keys,
	}
}

// ComputeHistory lists, per date in [from, to], the meals that apply with
// their foods. Each meal appears at most once per date; repeats carry their
// anchor date. Meals are ordered by OrderIndex, ties keep first-seen order.
func ComputeHistory(rows []storage.MealFoodRow, from, to time.Time, includeRepeated bool) HistoryResult {
	dates := calendar.Range(from, to)
	keys := dateKeys(dates)

	type group struct {
		meal  storage.Meal
		day   storage.DietPlanDay
		plan  storage.DietPlan
		foods []MealFoodEntry
	}
	var groups []*group
	byMeal := map[string]*group{}
	for _, row := range rows {
		if !usable(row) {
			continue
		}
		key := row.Meal.ID.String()
		g, ok := byMeal[key]
		if !ok {
			g = &group{meal: *row.Meal, day: *row.Day, plan: *row.Plan}
			byMeal[key] = g
			groups = append(groups, g)
		}
		g.foods = append(g.foods, MealFoodEntry{
			ID:       row.MealFood.ID,
			Food:     NewFoodDTO(row.Food),
			Quantity: row.MealFood.QuantityGrams,
		})
	}

	history := make(map[string]DayHistory, len(keys))
	for i, d := range dates {
		meals := []MealEntry{}
		for _, g := range groups {
			occ := Match(g.day, g.plan.StartDate, g.plan.EndDate, d, includeRepeated)
			if occ == NotScheduled {
				continue
			}
			entry := MealEntry{
				ID:            g.meal.ID,
				MealType:      g.meal.MealType,
				ScheduledTime: g.meal.ScheduledTime,
				OrderIndex:    g.meal.OrderIndex,
				Foods:         append([]MealFoodEntry(nil), g.foods...),
				IsRepeated:    occ == Repeated,
			}
			if occ == Repeated {
				entry.OriginalDate = calendar.Format(g.day.Date)
			}
			meals = append(meals, entry)
		}
		sort.SliceStable(meals, func(a, b int) bool {
			return meals[a].OrderIndex < meals[b].OrderIndex
		})
		history[keys[i]] = DayHistory{Meals: meals}
	}

	return HistoryResult{History: history, DateRange: keys}
}
