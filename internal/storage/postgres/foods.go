package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresFoodsStorage implements storage.FoodsStorage.
type PostgresFoodsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresFoodsStorage(pool *pgxpool.Pool) *PostgresFoodsStorage {
	return &PostgresFoodsStorage{pool: pool}
}

const foodColumns = `id, name, calories_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g, created_by, created_at, updated_at`

func scanFood(row pgx.Row) (*storage.Food, error) {
	var f storage.Food
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.CaloriesPer100g,
		&f.ProteinPer100g,
		&f.CarbsPer100g,
		&f.FatPer100g,
		&f.CreatedBy,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (s *PostgresFoodsStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	now := time.Now().UTC()
	food.CreatedAt = now
	food.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO foods (`+foodColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, food.ID, food.Name, food.CaloriesPer100g, food.ProteinPer100g, food.CarbsPer100g, food.FatPer100g,
		food.CreatedBy, food.CreatedAt, food.UpdatedAt)

	return mapWriteErr(err)
}

func (s *PostgresFoodsStorage) GetFood(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	return scanFood(s.pool.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1`, id))
}

func (s *PostgresFoodsStorage) ListFoods(ctx context.Context, query string, limit, offset int) ([]storage.Food, int, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM foods WHERE LOWER(name) LIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count foods: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+foodColumns+`
		FROM foods
		WHERE LOWER(name) LIKE $1
		ORDER BY name ASC, id ASC
		LIMIT $2 OFFSET $3
	`, pattern, limitOrAll(limit), offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	foods := []storage.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan food: %w", err)
		}
		foods = append(foods, *f)
	}
	return foods, total, rows.Err()
}

func (s *PostgresFoodsStorage) UpdateFood(ctx context.Context, food *storage.Food) error {
	food.UpdatedAt = time.Now().UTC()

	return execOne(ctx, s.pool, `
		UPDATE foods
		SET name = $2, calories_per_100g = $3, protein_per_100g = $4, carbs_per_100g = $5, fat_per_100g = $6, updated_at = $7
		WHERE id = $1
	`, food.ID, food.Name, food.CaloriesPer100g, food.ProteinPer100g, food.CarbsPer100g, food.FatPer100g, food.UpdatedAt)
}

func (s *PostgresFoodsStorage) DeleteFood(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM foods WHERE id = $1`, id)
}
