package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/calendar"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrItemNotFound     = errors.New("plan exercise not found")
	ErrLogNotFound      = errors.New("activity log not found")
	ErrExerciseInUse    = errors.New("exercise in use")
)

const (
	maxNameLen      = 200
	maxDurationMin  = 24 * 60
	maxLogRangeDays = 93
	defaultPageSize = 50
)

// Service provides the exercise catalog, workout plans and the activity log.
type Service struct {
	workouts storage.WorkoutsStorage
	users    storage.Storage
	access   *access.Checker
	now      func() time.Time
}

// NewService creates a new workouts service.
func NewService(workouts storage.WorkoutsStorage, users storage.Storage, checker *access.Checker) *Service {
	return &Service{
		workouts: workouts,
		users:    users,
		access:   checker,
		now:      time.Now,
	}
}

// ============================================================================
// Exercises
// ============================================================================

func (s *Service) CreateExercise(ctx context.Context, req *CreateExerciseRequest) (*ExerciseDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name must be 1..%d characters", ErrInvalidRequest, maxNameLen)
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = CategoryOther
	}
	switch category {
	case CategoryStrength, CategoryCardio, CategoryMobility, CategoryOther:
	default:
		return nil, fmt.Errorf("%w: category must be strength, cardio, mobility or other", ErrInvalidRequest)
	}

	caller, err := s.access.Caller(ctx)
	if err != nil {
		return nil, err
	}
	ex := &storage.Exercise{
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(req.Description),
	}
	if caller != nil {
		ex.CreatedBy = &caller.ID
	}
	if err := s.workouts.CreateExercise(ctx, ex); err != nil {
		return nil, err
	}
	dto := exerciseToDTO(*ex)
	return &dto, nil
}

func (s *Service) ListExercises(ctx context.Context, query string, limit, offset int) ([]ExerciseDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.workouts.ListExercises(ctx, strings.TrimSpace(query), limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]ExerciseDTO, 0, len(list))
	for _, ex := range list {
		out = append(out, exerciseToDTO(ex))
	}
	return out, nil
}

func (s *Service) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	ex, err := s.workouts.GetExercise(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrExerciseNotFound
	}
	if err != nil {
		return err
	}

	caller, err := s.access.Caller(ctx)
	if err != nil {
		return err
	}
	if caller != nil && caller.Role != storage.RoleAdmin && ex.CreatedBy != nil && *ex.CreatedBy != caller.ID {
		return access.ErrForbidden
	}

	switch err := s.workouts.DeleteExercise(ctx, id); {
	case errors.Is(err, storage.ErrConflict):
		return ErrExerciseInUse
	case errors.Is(err, storage.ErrNotFound):
		return ErrExerciseNotFound
	default:
		return err
	}
}

// ============================================================================
// Plans
// ============================================================================

func (s *Service) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*PlanDTO, error) {
	if req.AthleteID == uuid.Nil {
		return nil, fmt.Errorf("%w: athlete_id is required", ErrInvalidRequest)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > maxNameLen {
		return nil, fmt.Errorf("%w: title must be 1..%d characters", ErrInvalidRequest, maxNameLen)
	}
	start, err := calendar.Parse(strings.TrimSpace(req.StartDate))
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrInvalidRequest, err)
	}
	end, err := calendar.Parse(strings.TrimSpace(req.EndDate))
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", ErrInvalidRequest, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date must not be before start_date", ErrInvalidRequest)
	}

	caller, err := s.access.Caller(ctx)
	if err != nil {
		return nil, err
	}
	trainerID := uuid.Nil
	if req.TrainerID != nil {
		trainerID = *req.TrainerID
	} else if caller != nil && caller.Role == storage.RoleTrainer {
		trainerID = caller.ID
	}
	if trainerID == uuid.Nil {
		return nil, fmt.Errorf("%w: trainer_id is required", ErrInvalidRequest)
	}

	if err := s.requireRole(ctx, req.AthleteID, storage.RoleAthlete, "athlete_id"); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, trainerID, storage.RoleTrainer, "trainer_id"); err != nil {
		return nil, err
	}

	plan := &storage.WorkoutPlan{
		AthleteID: req.AthleteID,
		TrainerID: trainerID,
		Title:     title,
		StartDate: start,
		EndDate:   end,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := s.ensureWrite(ctx, caller, plan); err != nil {
		return nil, err
	}
	if err := s.workouts.CreateWorkoutPlan(ctx, plan); err != nil {
		return nil, err
	}
	dto := planToDTO(*plan)
	return &dto, nil
}

// ListPlans requires an athlete or trainer filter.
func (s *Service) ListPlans(ctx context.Context, athleteID, trainerID *uuid.UUID) ([]PlanDTO, error) {
	if athleteID == nil && trainerID == nil {
		return nil, fmt.Errorf("%w: athlete_id or trainer_id is required", ErrInvalidRequest)
	}
	if athleteID != nil {
		if err := s.access.Athlete(ctx, *athleteID); err != nil {
			return nil, err
		}
	}

	plans, err := s.workouts.ListWorkoutPlans(ctx, storage.WorkoutPlanFilter{AthleteID: athleteID, TrainerID: trainerID})
	if err != nil {
		return nil, err
	}
	out := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		if athleteID == nil {
			if err := s.access.Athlete(ctx, p.AthleteID); errors.Is(err, access.ErrForbidden) {
				continue
			} else if err != nil {
				return nil, err
			}
		}
		out = append(out, planToDTO(p))
	}
	return out, nil
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*PlanDetailResponse, error) {
	plan, err := s.readablePlan(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.workouts.ListPlanExercises(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.planExercisesToDTO(ctx, items)
	if err != nil {
		return nil, err
	}
	return &PlanDetailResponse{PlanDTO: planToDTO(*plan), Exercises: exercises}, nil
}

// DeletePlan removes the plan and its exercise assignments.
func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	plan, err := s.writablePlan(ctx, id)
	if err != nil {
		return err
	}
	items, err := s.workouts.ListPlanExercises(ctx, plan.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.workouts.DeletePlanExercise(ctx, it.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete plan exercise %s: %w", it.ID, err)
		}
	}
	if err := s.workouts.DeleteWorkoutPlan(ctx, plan.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	return nil
}

func (s *Service) AddPlanExercise(ctx context.Context, planID uuid.UUID, req *AddPlanExerciseRequest) (*PlanExerciseDTO, error) {
	if req.ExerciseID == uuid.Nil {
		return nil, fmt.Errorf("%w: exercise_id is required", ErrInvalidRequest)
	}
	if req.DaysMask <= 0 || req.DaysMask > allDays {
		return nil, fmt.Errorf("%w: days_mask must be 1..%d", ErrInvalidRequest, allDays)
	}
	if req.Sets < 0 || req.Reps < 0 {
		return nil, fmt.Errorf("%w: sets and reps must be >= 0", ErrInvalidRequest)
	}
	if req.WeightKg != nil && (*req.WeightKg < 0 || *req.WeightKg > 1000) {
		return nil, fmt.Errorf("%w: weight_kg must be 0..1000", ErrInvalidRequest)
	}
	if req.DurationMin != nil && (*req.DurationMin < 0 || *req.DurationMin > maxDurationMin) {
		return nil, fmt.Errorf("%w: duration_min must be 0..%d", ErrInvalidRequest, maxDurationMin)
	}

	plan, err := s.writablePlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	ex, err := s.workouts.GetExercise(ctx, req.ExerciseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: exercise not found", ErrInvalidRequest)
	}
	if err != nil {
		return nil, err
	}

	item := &storage.WorkoutPlanExercise{
		PlanID:      plan.ID,
		ExerciseID:  ex.ID,
		DaysMask:    req.DaysMask,
		Sets:        req.Sets,
		Reps:        req.Reps,
		WeightKg:    req.WeightKg,
		DurationMin: req.DurationMin,
		OrderIndex:  req.OrderIndex,
		Note:        strings.TrimSpace(req.Note),
	}
	if err := s.workouts.CreatePlanExercise(ctx, item); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	dto := planExerciseToDTO(*item, ex)
	return &dto, nil
}

func (s *Service) DeletePlanExercise(ctx context.Context, id uuid.UUID) error {
	item, err := s.workouts.GetPlanExercise(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.writablePlan(ctx, item.PlanID); err != nil {
		return err
	}
	if err := s.workouts.DeletePlanExercise(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

// ============================================================================
// Activity log
// ============================================================================

func (s *Service) CreateActivityLog(ctx context.Context, req *CreateActivityLogRequest) (*ActivityLogDTO, error) {
	if req.AthleteID == uuid.Nil {
		return nil, fmt.Errorf("%w: athlete_id is required", ErrInvalidRequest)
	}
	if req.DurationMin < 0 || req.DurationMin > maxDurationMin {
		return nil, fmt.Errorf("%w: duration_min must be 0..%d", ErrInvalidRequest, maxDurationMin)
	}
	if req.CaloriesBurned != nil && *req.CaloriesBurned < 0 {
		return nil, fmt.Errorf("%w: calories_burned must be >= 0", ErrInvalidRequest)
	}
	performedAt := s.now().UTC()
	if raw := strings.TrimSpace(req.PerformedAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: performed_at must be RFC3339", ErrInvalidRequest)
		}
		performedAt = t.UTC()
	}

	if err := s.access.Athlete(ctx, req.AthleteID); err != nil {
		return nil, err
	}

	exerciseID := req.ExerciseID
	if req.PlanExerciseID != nil {
		item, err := s.workouts.GetPlanExercise(ctx, *req.PlanExerciseID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: plan exercise not found", ErrInvalidRequest)
		}
		if err != nil {
			return nil, err
		}
		plan, err := s.workouts.GetWorkoutPlan(ctx, item.PlanID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if plan == nil || plan.AthleteID != req.AthleteID {
			return nil, fmt.Errorf("%w: plan exercise belongs to another athlete", ErrInvalidRequest)
		}
		if exerciseID == nil {
			exerciseID = &item.ExerciseID
		} else if *exerciseID != item.ExerciseID {
			return nil, fmt.Errorf("%w: exercise_id does not match the plan exercise", ErrInvalidRequest)
		}
	}
	if exerciseID != nil {
		if _, err := s.workouts.GetExercise(ctx, *exerciseID); errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: exercise not found", ErrInvalidRequest)
		} else if err != nil {
			return nil, err
		}
	}

	entry := &storage.ActivityLog{
		AthleteID:      req.AthleteID,
		ExerciseID:     exerciseID,
		PlanExerciseID: req.PlanExerciseID,
		PerformedAt:    performedAt,
		DurationMin:    req.DurationMin,
		CaloriesBurned: req.CaloriesBurned,
		Note:           strings.TrimSpace(req.Note),
	}
	if err := s.workouts.CreateActivityLog(ctx, entry); err != nil {
		return nil, err
	}
	dto := logToDTO(*entry)
	return &dto, nil
}

// ListActivityLogs returns entries performed on dates from..to inclusive.
func (s *Service) ListActivityLogs(ctx context.Context, athleteID uuid.UUID, fromRaw, toRaw string) ([]ActivityLogDTO, error) {
	from, to, err := s.dateRange(fromRaw, toRaw)
	if err != nil {
		return nil, err
	}
	if err := s.access.Athlete(ctx, athleteID); err != nil {
		return nil, err
	}
	return s.logs(ctx, athleteID, from, to)
}

func (s *Service) DeleteActivityLog(ctx context.Context, id uuid.UUID) error {
	entry, err := s.workouts.GetActivityLog(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrLogNotFound
	}
	if err != nil {
		return err
	}
	if err := s.access.Athlete(ctx, entry.AthleteID); err != nil {
		return err
	}
	if err := s.workouts.DeleteActivityLog(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrLogNotFound
		}
		return err
	}
	return nil
}

// ============================================================================
// Today
// ============================================================================

// GetToday returns assignments scheduled on the date's weekday from plans
// active on that date, together with the day's activity logs.
func (s *Service) GetToday(ctx context.Context, athleteID uuid.UUID, date string) (*TodayResponse, error) {
	if athleteID == uuid.Nil {
		return nil, fmt.Errorf("%w: athlete_id is required", ErrInvalidRequest)
	}
	day, _, err := s.dateRange(date, date)
	if err != nil {
		return nil, err
	}
	if err := s.access.Athlete(ctx, athleteID); err != nil {
		return nil, err
	}

	plans, err := s.workouts.ListWorkoutPlans(ctx, storage.WorkoutPlanFilter{AthleteID: &athleteID, ActiveOn: &day})
	if err != nil {
		return nil, err
	}

	bit := 1 << calendar.MondayIndex(day)
	var scheduled []storage.WorkoutPlanExercise
	for _, p := range plans {
		items, err := s.workouts.ListPlanExercises(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if it.DaysMask&bit != 0 {
				scheduled = append(scheduled, it)
			}
		}
	}
	planned, err := s.planExercisesToDTO(ctx, scheduled)
	if err != nil {
		return nil, err
	}

	logs, err := s.logs(ctx, athleteID, day, day)
	if err != nil {
		return nil, err
	}

	return &TodayResponse{
		Date:      calendar.Format(day),
		AthleteID: athleteID,
		Planned:   planned,
		Logs:      logs,
		IsDone:    isDone(planned, logs),
	}, nil
}

// isDone: every planned assignment has a log pointing at it. Without a plan
// for the day any logged activity counts.
func isDone(planned []PlanExerciseDTO, logs []ActivityLogDTO) bool {
	if len(planned) == 0 {
		return len(logs) > 0
	}
	logged := make(map[uuid.UUID]bool, len(logs))
	for _, l := range logs {
		if l.PlanExerciseID != nil {
			logged[*l.PlanExerciseID] = true
		}
	}
	for _, p := range planned {
		if !logged[p.ID] {
			return false
		}
	}
	return true
}

// ============================================================================
// Access
// ============================================================================

func (s *Service) readablePlan(ctx context.Context, id uuid.UUID) (*storage.WorkoutPlan, error) {
	plan, err := s.workouts.GetWorkoutPlan(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.access.Athlete(ctx, plan.AthleteID); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) writablePlan(ctx context.Context, id uuid.UUID) (*storage.WorkoutPlan, error) {
	plan, err := s.workouts.GetWorkoutPlan(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	caller, err := s.access.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ensureWrite(ctx, caller, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ensureWrite: admin, the plan's trainer or the athlete's agency. Athletes
// only read their plans.
func (s *Service) ensureWrite(ctx context.Context, caller *storage.User, plan *storage.WorkoutPlan) error {
	if caller == nil || caller.Role == storage.RoleAdmin {
		return nil
	}
	switch {
	case caller.Role == storage.RoleTrainer && caller.ID == plan.TrainerID:
		return s.access.Athlete(ctx, plan.AthleteID)
	case caller.Role == storage.RoleAgency:
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
		return fmt.Errorf("%w: %s must reference a %s", ErrInvalidRequest, field, role)
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Service) logs(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]ActivityLogDTO, error) {
	entries, err := s.workouts.ListActivityLogs(ctx, athleteID, from, calendar.AddDays(to, 1))
	if err != nil {
		return nil, err
	}
	out := make([]ActivityLogDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, logToDTO(e))
	}
	return out, nil
}

func (s *Service) planExercisesToDTO(ctx context.Context, items []storage.WorkoutPlanExercise) ([]PlanExerciseDTO, error) {
	names := map[uuid.UUID]*storage.Exercise{}
	out := make([]PlanExerciseDTO, 0, len(items))
	for _, it := range items {
		ex, ok := names[it.ExerciseID]
		if !ok {
			found, err := s.workouts.GetExercise(ctx, it.ExerciseID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			ex = found
			names[it.ExerciseID] = ex
		}
		out = append(out, planExerciseToDTO(it, ex))
	}
	return out, nil
}

func (s *Service) dateRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	today := calendar.Day(s.now())
	from, to := today, today
	if fromRaw = strings.TrimSpace(fromRaw); fromRaw != "" {
		d, err := calendar.Parse(fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		from = d
	}
	if toRaw = strings.TrimSpace(toRaw); toRaw != "" {
		d, err := calendar.Parse(toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		to = d
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must not be after to", ErrInvalidRequest)
	}
	if calendar.DaysBetween(from, to)+1 > maxLogRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidRequest, maxLogRangeDays)
	}
	return from, to, nil
}

// ============================================================================
// Converters
// ============================================================================

func exerciseToDTO(ex storage.Exercise) ExerciseDTO {
	return ExerciseDTO{
		ID:          ex.ID,
		Name:        ex.Name,
		Category:    ex.Category,
		Description: ex.Description,
		CreatedBy:   ex.CreatedBy,
		CreatedAt:   ex.CreatedAt,
	}
}

func planToDTO(plan storage.WorkoutPlan) PlanDTO {
	return PlanDTO{
		ID:        plan.ID,
		AthleteID: plan.AthleteID,
		TrainerID: plan.TrainerID,
		Title:     plan.Title,
		StartDate: calendar.Format(plan.StartDate),
		EndDate:   calendar.Format(plan.EndDate),
		Notes:     plan.Notes,
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}

func planExerciseToDTO(it storage.WorkoutPlanExercise, ex *storage.Exercise) PlanExerciseDTO {
	dto := PlanExerciseDTO{
		ID:          it.ID,
		PlanID:      it.PlanID,
		ExerciseID:  it.ExerciseID,
		DaysMask:    it.DaysMask,
		Days:        maskDays(it.DaysMask),
		Sets:        it.Sets,
		Reps:        it.Reps,
		WeightKg:    it.WeightKg,
		DurationMin: it.DurationMin,
		OrderIndex:  it.OrderIndex,
		Note:        it.Note,
		CreatedAt:   it.CreatedAt,
	}
	if ex != nil {
		dto.ExerciseName = ex.Name
	}
	return dto
}

func logToDTO(e storage.ActivityLog) ActivityLogDTO {
	return ActivityLogDTO{
		ID:             e.ID,
		AthleteID:      e.AthleteID,
		ExerciseID:     e.ExerciseID,
		PlanExerciseID: e.PlanExerciseID,
		PerformedAt:    e.PerformedAt,
		DurationMin:    e.DurationMin,
		CaloriesBurned: e.CaloriesBurned,
		Note:           e.Note,
		CreatedAt:      e.CreatedAt,
	}
}

func maskDays(mask int) []string {
	days := []string{}
	for i, name := range weekdayNames {
		if mask&(1<<i) != 0 {
			days = append(days, name)
		}
	}
	return days
}
