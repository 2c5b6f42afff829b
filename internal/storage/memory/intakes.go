package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// IntakesMemoryStorage — in-memory журнал питания
type IntakesMemoryStorage struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]storage.ConsumptionLog
}

func NewIntakesMemoryStorage() *IntakesMemoryStorage {
	return &IntakesMemoryStorage{entries: make(map[uuid.UUID]storage.ConsumptionLog)}
}

func (s *IntakesMemoryStorage) CreateConsumption(ctx context.Context, entry *storage.ConsumptionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *IntakesMemoryStorage) GetConsumption(ctx context.Context, id uuid.UUID) (*storage.ConsumptionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (s *IntakesMemoryStorage) ListConsumption(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]storage.ConsumptionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.ConsumptionLog{}
	for _, e := range s.entries {
		if e.AthleteID != athleteID || e.ConsumedAt.Before(from) || !e.ConsumedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ConsumedAt.Before(out[j].ConsumedAt)
	})
	return out, nil
}

func (s *IntakesMemoryStorage) DeleteConsumption(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *IntakesMemoryStorage) foodInUse(foodID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.FoodID == foodID {
			return true
		}
	}
	return false
}
