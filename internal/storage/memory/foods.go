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

// FoodsMemoryStorage implements storage.FoodsStorage in memory.
type FoodsMemoryStorage struct {
	mu    sync.RWMutex
	foods map[uuid.UUID]storage.Food
	// inUse reports whether a meal references the food.
	inUse func(foodID uuid.UUID) bool
}

func NewFoodsMemoryStorage() *FoodsMemoryStorage {
	return &FoodsMemoryStorage{foods: make(map[uuid.UUID]storage.Food)}
}

func (s *FoodsMemoryStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	now := time.Now().UTC()
	food.CreatedAt = now
	food.UpdatedAt = now
	s.foods[food.ID] = *food

	return nil
}

func (s *FoodsMemoryStorage) GetFood(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.foods[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &f, nil
}

func (s *FoodsMemoryStorage) ListFoods(ctx context.Context, query string, limit, offset int) ([]storage.Food, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	matched := []storage.Food{}
	for _, f := range s.foods {
		if query != "" && !strings.Contains(strings.ToLower(f.Name), query) {
			continue
		}
		matched = append(matched, f)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	return page(matched, limit, offset), len(matched), nil
}

func (s *FoodsMemoryStorage) UpdateFood(ctx context.Context, food *storage.Food) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.foods[food.ID]
	if !ok {
		return storage.ErrNotFound
	}
	food.CreatedAt = existing.CreatedAt
	food.UpdatedAt = time.Now().UTC()
	s.foods[food.ID] = *food

	return nil
}

func (s *FoodsMemoryStorage) DeleteFood(ctx context.Context, id uuid.UUID) error {
	// checked before taking s.mu: diet plans read foods while holding their own lock
	if s.inUse != nil && s.inUse(id) {
		return storage.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.foods[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.foods, id)
	return nil
}
