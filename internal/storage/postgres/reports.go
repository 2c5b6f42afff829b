package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresReportsStorage — Postgres storage для отчётов
type PostgresReportsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresReportsStorage создаёт новое Postgres хранилище
func NewPostgresReportsStorage(pool *pgxpool.Pool) *PostgresReportsStorage {
	return &PostgresReportsStorage{pool: pool}
}

const reportColumns = `id, athlete_id, format, from_date, to_date, object_key, size_bytes, status, error, created_at, updated_at`

func scanReport(row pgx.Row, withData bool) (*storage.ReportMeta, error) {
	var r storage.ReportMeta
	dest := []any{
		&r.ID,
		&r.AthleteID,
		&r.Format,
		&r.FromDate,
		&r.ToDate,
		&r.ObjectKey,
		&r.SizeBytes,
		&r.Status,
		&r.Error,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
	if withData {
		dest = append(dest, &r.Data)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// CreateReport создаёт новый отчёт; Data сохраняется только без S3
func (s *PostgresReportsStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	query := `
		INSERT INTO reports (id, athlete_id, format, from_date, to_date, object_key, size_bytes, status, error, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	var data []byte
	if report.ObjectKey == nil {
		data = report.Data
	}

	err := s.pool.QueryRow(ctx, query,
		report.ID,
		report.AthleteID,
		report.Format,
		report.FromDate,
		report.ToDate,
		report.ObjectKey,
		report.SizeBytes,
		report.Status,
		report.Error,
		data,
	).Scan(&report.CreatedAt, &report.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create report: %w", mapWriteErr(err))
	}

	return nil
}

// GetReport возвращает отчёт по ID вместе с содержимым
func (s *PostgresReportsStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	return scanReport(s.pool.QueryRow(ctx, `SELECT `+reportColumns+`, data FROM reports WHERE id = $1`, id), true)
}

// ListReports возвращает метаданные без содержимого
func (s *PostgresReportsStorage) ListReports(ctx context.Context, athleteID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE athlete_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, athleteID, limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return collect(rows, func(row pgx.Row) (*storage.ReportMeta, error) {
		return scanReport(row, false)
	})
}

// DeleteReport удаляет отчёт
func (s *PostgresReportsStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM reports WHERE id = $1`, id)
}
