package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage — Postgres реализация Storage и всех доменных хранилищ
type PostgresStorage struct {
	pool       *pgxpool.Pool
	coachLinks *PostgresCoachLinksStorage
	foods      *PostgresFoodsStorage
	dietPlans  *PostgresDietPlansStorage
	workouts   *PostgresWorkoutsStorage
	intakes    *PostgresIntakesStorage
	reports    *PostgresReportsStorage
}

// New открывает пул соединений и проверяет доступность базы
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:       pool,
		coachLinks: NewPostgresCoachLinksStorage(pool),
		foods:      NewPostgresFoodsStorage(pool),
		dietPlans:  NewPostgresDietPlansStorage(pool),
		workouts:   NewPostgresWorkoutsStorage(pool),
		intakes:    NewPostgresIntakesStorage(pool),
		reports:    NewPostgresReportsStorage(pool),
	}, nil
}

const userColumns = `id, email, password_hash, name, role, agency_id, created_at, updated_at`

func scanUser(row pgx.Row) (*storage.User, error) {
	var u storage.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.AgencyID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (p *PostgresStorage) ListUsers(ctx context.Context, filter storage.UserFilter) ([]storage.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1::text = '' OR role = $1)
		  AND ($2::uuid IS NULL OR agency_id = $2)
		ORDER BY created_at ASC
	`

	rows, err := p.pool.Query(ctx, query, filter.Role, filter.AgencyID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []storage.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

func (p *PostgresStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, strings.ToLower(email)))
}

func (p *PostgresStorage) CreateUser(ctx context.Context, user *storage.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, password_hash, name, role, agency_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.AgencyID,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return mapWriteErr(err)
}

func (p *PostgresStorage) UpdateUser(ctx context.Context, user *storage.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $2, role = $3, agency_id = $4, password_hash = $5, updated_at = $6
		WHERE id = $1
	`

	return execOne(ctx, p.pool, query,
		user.ID, user.Name, user.Role, user.AgencyID, user.PasswordHash, user.UpdatedAt)
}

func (p *PostgresStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, p.pool, `DELETE FROM users WHERE id = $1`, id)
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// GetCoachLinksStorage returns the coach links storage
func (p *PostgresStorage) GetCoachLinksStorage() *PostgresCoachLinksStorage {
	return p.coachLinks
}

// GetFoodsStorage returns the foods storage
func (p *PostgresStorage) GetFoodsStorage() *PostgresFoodsStorage {
	return p.foods
}

// GetDietPlansStorage returns the diet plans storage
func (p *PostgresStorage) GetDietPlansStorage() *PostgresDietPlansStorage {
	return p.dietPlans
}

// GetWorkoutsStorage returns the workouts storage
func (p *PostgresStorage) GetWorkoutsStorage() *PostgresWorkoutsStorage {
	return p.workouts
}

// GetIntakesStorage returns the consumption log storage
func (p *PostgresStorage) GetIntakesStorage() *PostgresIntakesStorage {
	return p.intakes
}

// GetReportsStorage returns the reports storage
func (p *PostgresStorage) GetReportsStorage() *PostgresReportsStorage {
	return p.reports
}

// mapWriteErr переводит нарушения unique / foreign key в storage.ErrConflict
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%w: %s", storage.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}

// notFound заменяет pgx.ErrNoRows на storage.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// execOne выполняет UPDATE/DELETE и возвращает ErrNotFound, если строка не затронута
func execOne(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) error {
	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// limitOrAll: LIMIT NULL в Postgres означает «без ограничения»
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
