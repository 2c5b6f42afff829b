package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCoachLinksStorage implements storage.CoachLinksStorage.
type PostgresCoachLinksStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresCoachLinksStorage(pool *pgxpool.Pool) *PostgresCoachLinksStorage {
	return &PostgresCoachLinksStorage{pool: pool}
}

func (s *PostgresCoachLinksStorage) CreateCoachLink(ctx context.Context, link *storage.CoachLink) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO coach_links (id, athlete_id, coach_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, link.ID, link.AthleteID, link.CoachID, link.Kind, link.CreatedAt)

	return mapWriteErr(err)
}

func (s *PostgresCoachLinksStorage) GetCoachLink(ctx context.Context, id uuid.UUID) (*storage.CoachLink, error) {
	var l storage.CoachLink
	err := s.pool.QueryRow(ctx, `
		SELECT id, athlete_id, coach_id, kind, created_at
		FROM coach_links
		WHERE id = $1
	`, id).Scan(&l.ID, &l.AthleteID, &l.CoachID, &l.Kind, &l.CreatedAt)

	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *PostgresCoachLinksStorage) ListCoachLinks(ctx context.Context, filter storage.CoachLinkFilter) ([]storage.CoachLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, athlete_id, coach_id, kind, created_at
		FROM coach_links
		WHERE ($1::uuid IS NULL OR athlete_id = $1)
		  AND ($2::uuid IS NULL OR coach_id = $2)
		  AND ($3::text = '' OR kind = $3)
		ORDER BY created_at ASC
	`, filter.AthleteID, filter.CoachID, filter.Kind)
	if err != nil {
		return nil, fmt.Errorf("list coach links: %w", err)
	}
	defer rows.Close()

	links := []storage.CoachLink{}
	for rows.Next() {
		var l storage.CoachLink
		if err := rows.Scan(&l.ID, &l.AthleteID, &l.CoachID, &l.Kind, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coach link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *PostgresCoachLinksStorage) DeleteCoachLink(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, s.pool, `DELETE FROM coach_links WHERE id = $1`, id)
}
