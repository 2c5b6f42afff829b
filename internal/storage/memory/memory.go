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

// MemoryStorage — in-memory реализация Storage и всех доменных хранилищ
type MemoryStorage struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]storage.User
	coachLinks *CoachLinksMemoryStorage
	foods      *FoodsMemoryStorage
	dietPlans  *DietPlansMemoryStorage
	workouts   *WorkoutsMemoryStorage
	intakes    *IntakesMemoryStorage
	reports    *ReportsMemoryStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	foods := NewFoodsMemoryStorage()
	dietPlans := NewDietPlansMemoryStorage(foods)
	intakes := NewIntakesMemoryStorage()
	foods.inUse = func(id uuid.UUID) bool {
		return dietPlans.foodInUse(id) || intakes.foodInUse(id)
	}

	return &MemoryStorage{
		users:      make(map[uuid.UUID]storage.User),
		coachLinks: NewCoachLinksMemoryStorage(),
		foods:      foods,
		dietPlans:  dietPlans,
		workouts:   NewWorkoutsMemoryStorage(),
		intakes:    intakes,
		reports:    NewReportsMemoryStorage(),
	}
}

func (m *MemoryStorage) ListUsers(ctx context.Context, filter storage.UserFilter) ([]storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]storage.User, 0, len(m.users))
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.AgencyID != nil && (u.AgencyID == nil || *u.AgencyID != *filter.AgencyID) {
			continue
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &u, nil
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (m *MemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return storage.ErrConflict
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = *user

	return nil
}

func (m *MemoryStorage) UpdateUser(ctx context.Context, user *storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = *user

	return nil
}

func (m *MemoryStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}

	delete(m.users, id)

	return nil
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

// GetCoachLinksStorage returns the coach links storage
func (m *MemoryStorage) GetCoachLinksStorage() *CoachLinksMemoryStorage {
	return m.coachLinks
}

// GetFoodsStorage returns the foods storage
func (m *MemoryStorage) GetFoodsStorage() *FoodsMemoryStorage {
	return m.foods
}

// GetDietPlansStorage returns the diet plans storage
func (m *MemoryStorage) GetDietPlansStorage() *DietPlansMemoryStorage {
	return m.dietPlans
}

// GetWorkoutsStorage returns the workouts storage
func (m *MemoryStorage) GetWorkoutsStorage() *WorkoutsMemoryStorage {
	return m.workouts
}

// GetIntakesStorage returns the consumption log storage
func (m *MemoryStorage) GetIntakesStorage() *IntakesMemoryStorage {
	return m.intakes
}

// GetReportsStorage returns the reports storage
func (m *MemoryStorage) GetReportsStorage() *ReportsMemoryStorage {
	return m.reports
}

// page вырезает страницу [offset, offset+limit); limit <= 0 означает «без ограничения»
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
