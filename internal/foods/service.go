package foods

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("food not found")
	ErrInUse          = errors.New("food is used by a meal or an intake")
)

// Service handles the food catalog.
type Service struct {
	storage storage.FoodsStorage
	access  *access.Checker
}

// NewService creates a new foods service.
func NewService(storage storage.FoodsStorage, checker *access.Checker) *Service {
	return &Service{storage: storage, access: checker}
}

// List returns foods whose name contains query.
func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]FoodDTO, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	list, total, err := s.storage.ListFoods(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]FoodDTO, len(list))
	for i, f := range list {
		items[i] = toDTO(f)
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*FoodDTO, error) {
	f, err := s.storage.GetFood(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	dto := toDTO(*f)
	return &dto, nil
}

// Create adds a food to the catalog, attributed to the caller when known.
func (s *Service) Create(ctx context.Context, req FoodRequest) (*FoodDTO, error) {
	if err := req.Validate(true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	caller, err := s.access.Caller(ctx)
	if err != nil {
		return nil, err
	}

	food := &storage.Food{
		Name:            *req.Name,
		CaloriesPer100g: req.CaloriesPer100g,
		ProteinPer100g:  req.ProteinPer100g,
		CarbsPer100g:    req.CarbsPer100g,
		FatPer100g:      req.FatPer100g,
	}
	if caller != nil {
		food.CreatedBy = &caller.ID
	}
	if err := s.storage.CreateFood(ctx, food); err != nil {
		return nil, err
	}
	dto := toDTO(*food)
	return &dto, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req FoodRequest) (*FoodDTO, error) {
	if err := req.Validate(false); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	food, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		food.Name = *req.Name
	}
	if req.CaloriesPer100g != nil {
		food.CaloriesPer100g = req.CaloriesPer100g
	}
	if req.ProteinPer100g != nil {
		food.ProteinPer100g = req.ProteinPer100g
	}
	if req.CarbsPer100g != nil {
		food.CarbsPer100g = req.CarbsPer100g
	}
	if req.FatPer100g != nil {
		food.FatPer100g = req.FatPer100g
	}

	if err := s.storage.UpdateFood(ctx, food); err != nil {
		return nil, err
	}
	dto := toDTO(*food)
	return &dto, nil
}

// Delete removes a food that nothing references.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.editable(ctx, id); err != nil {
		return err
	}
	err := s.storage.DeleteFood(ctx, id)
	switch {
	case errors.Is(err, storage.ErrConflict):
		return ErrInUse
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	}
	return err
}

// editable loads a food the caller may change: its author, an admin,
// or anyone for foods without an author.
func (s *Service) editable(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	food, err := s.storage.GetFood(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	caller, err := s.access.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if caller != nil && caller.Role != storage.RoleAdmin && food.CreatedBy != nil && *food.CreatedBy != caller.ID {
		return nil, access.ErrForbidden
	}
	return food, nil
}
