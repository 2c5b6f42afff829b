package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// WorkoutsMemoryStorage implements storage.WorkoutsStorage in memory.
type WorkoutsMemoryStorage struct {
	mu            sync.RWMutex
	exercises     map[uuid.UUID]storage.Exercise
	plans         map[uuid.UUID]storage.WorkoutPlan
	planExercises map[uuid.UUID]storage.WorkoutPlanExercise
	activity      map[uuid.UUID]storage.ActivityLog
}

func NewWorkoutsMemoryStorage() *WorkoutsMemoryStorage {
	return &WorkoutsMemoryStorage{
		exercises:     make(map[uuid.UUID]storage.Exercise),
		plans:         make(map[uuid.UUID]storage.WorkoutPlan),
		planExercises: make(map[uuid.UUID]storage.WorkoutPlanExercise),
		activity:      make(map[uuid.UUID]storage.ActivityLog),
	}
}

func (s *WorkoutsMemoryStorage) CreateExercise(ctx context.Context, ex *storage.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	ex.CreatedAt = time.Now().UTC()
	s.exercises[ex.ID] = *ex
	return nil
}

func (s *WorkoutsMemoryStorage) GetExercise(ctx context.Context, id uuid.UUID) (*storage.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ex, ok := s.exercises[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &ex, nil
}

func (s *WorkoutsMemoryStorage) ListExercises(ctx context.Context, query string, limit, offset int) ([]storage.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	out := []storage.Exercise{}
	for _, ex := range s.exercises {
		if query != "" && !strings.Contains(strings.ToLower(ex.Name), query) {
			continue
		}
		out = append(out, ex)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, limit, offset), nil
}

func (s *WorkoutsMemoryStorage) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exercises[id]; !ok {
		return storage.ErrNotFound
	}
	for _, pe := range s.planExercises {
		if pe.ExerciseID == id {
			return storage.ErrConflict
		}
	}
	delete(s.exercises, id)
	return nil
}

func (s *WorkoutsMemoryStorage) CreateWorkoutPlan(ctx context.Context, plan *storage.WorkoutPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	s.plans[plan.ID] = *plan
	return nil
}

func (s *WorkoutsMemoryStorage) GetWorkoutPlan(ctx context.Context, id uuid.UUID) (*storage.WorkoutPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (s *WorkoutsMemoryStorage) ListWorkoutPlans(ctx context.Context, filter storage.WorkoutPlanFilter) ([]storage.WorkoutPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.WorkoutPlan{}
	for _, p := range s.plans {
		if filter.AthleteID != nil && p.AthleteID != *filter.AthleteID {
			continue
		}
		if filter.TrainerID != nil && p.TrainerID != *filter.TrainerID {
			continue
		}
		if filter.ActiveOn != nil && (filter.ActiveOn.Before(p.StartDate) || filter.ActiveOn.After(p.EndDate)) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *WorkoutsMemoryStorage) DeleteWorkoutPlan(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *WorkoutsMemoryStorage) CreatePlanExercise(ctx context.Context, pe *storage.WorkoutPlanExercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[pe.PlanID]; !ok {
		return storage.ErrConflict
	}
	if _, ok := s.exercises[pe.ExerciseID]; !ok {
		return storage.ErrConflict
	}
	if pe.ID == uuid.Nil {
		pe.ID = uuid.New()
	}
	pe.CreatedAt = time.Now().UTC()
	s.planExercises[pe.ID] = *pe
	return nil
}

func (s *WorkoutsMemoryStorage) GetPlanExercise(ctx context.Context, id uuid.UUID) (*storage.WorkoutPlanExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pe, ok := s.planExercises[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &pe, nil
}

func (s *WorkoutsMemoryStorage) ListPlanExercises(ctx context.Context, planID uuid.UUID) ([]storage.WorkoutPlanExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.WorkoutPlanExercise{}
	for _, pe := range s.planExercises {
		if pe.PlanID == planID {
			out = append(out, pe)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *WorkoutsMemoryStorage) DeletePlanExercise(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.planExercises[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.planExercises, id)
	return nil
}

func (s *WorkoutsMemoryStorage) CreateActivityLog(ctx context.Context, entry *storage.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	s.activity[entry.ID] = *entry
	return nil
}

func (s *WorkoutsMemoryStorage) GetActivityLog(ctx context.Context, id uuid.UUID) (*storage.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.activity[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (s *WorkoutsMemoryStorage) ListActivityLogs(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]storage.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.ActivityLog{}
	for _, a := range s.activity {
		if a.AthleteID != athleteID || a.PerformedAt.Before(from) || !a.PerformedAt.Before(to) {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PerformedAt.Before(out[j].PerformedAt)
	})
	return out, nil
}

func (s *WorkoutsMemoryStorage) DeleteActivityLog(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activity[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.activity, id)
	return nil
}
