package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresIntakesStorage — Postgres журнал питания
type PostgresIntakesStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresIntakesStorage(pool *pgxpool.Pool) *PostgresIntakesStorage {
	return &PostgresIntakesStorage{pool: pool}
}

const consumptionColumns = `id, athlete_id, food_id, quantity_grams, meal_type, consumed_at, note, created_at`

func scanConsumption(row pgx.Row) (*storage.ConsumptionLog, error) {
	var e storage.ConsumptionLog
	err := row.Scan(&e.ID, &e.AthleteID, &e.FoodID, &e.QuantityGrams, &e.MealType, &e.ConsumedAt, &e.Note, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *PostgresIntakesStorage) CreateConsumption(ctx context.Context, entry *storage.ConsumptionLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO consumption_logs (`+consumptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.AthleteID, entry.FoodID, entry.QuantityGrams, entry.MealType, entry.ConsumedAt, entry.Note, entry.CreatedAt)
	return mapWriteErr(err)
}

func (s *PostgresIntakesStorage) GetConsumption(ctx context.Context, id uuid.UUID) (*storage.ConsumptionLog, error) {
	return scanConsumption(s.pool.QueryRow(ctx, `SELECT `+consumptionColumns+` FROM consumption_logs WHERE id = $1`, id))
}

// ListConsumption возвращает записи за полуинтервал [from, to)
func (s *PostgresIntakesStorage) ListConsumption(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]storage.ConsumptionLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+consumptionColumns+`
		FROM consumption_logs
		WHERE athlete_id = $1 AND consumed_at >= $2 AND consumed_at < $3
		ORDER BY consumed_at ASC
	`, athleteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list consumption: %w", err)
	}
	return collect(rows, scanConsumption)
}

func (s *PostgresIntakesStorage) DeleteConsumption(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM consumption_logs WHERE id = $1`, id)
}
