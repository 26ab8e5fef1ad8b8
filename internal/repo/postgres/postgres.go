package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sitepulse/internal/domain"
	"sitepulse/internal/repo"
)

var _ repo.WebsiteStore = (*Store)(nil)
var _ repo.LogStore = (*Store)(nil)

// Same DDL as migrations/1_schema.sql; applied on startup so a fresh
// database works without a separate migration step.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS websites (
    id SERIAL PRIMARY KEY,
    url VARCHAR NOT NULL,
    alias VARCHAR(75) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS logs (
    id SERIAL PRIMARY KEY,
    website_alias VARCHAR(75) NOT NULL REFERENCES websites(alias),
    status SMALLINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT date_trunc('minute', now()),
    UNIQUE (website_alias, created_at)
);

CREATE INDEX IF NOT EXISTS idx_logs_alias_created_at ON logs (website_alias, created_at);
`

// SQLSTATE codes relied on for error mapping.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- WebsiteStore ----

func (s *Store) Register(ctx context.Context, url, alias string) (*domain.Website, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO websites (url, alias) VALUES ($1, $2) RETURNING id`,
		url, alias).Scan(&id)
	if err != nil {
		if isPgErr(err, codeUniqueViolation) {
			return nil, fmt.Errorf("alias %q: %w", alias, repo.ErrConflict)
		}
		return nil, fmt.Errorf("insert website: %w", err)
	}
	return &domain.Website{ID: id, URL: url, Alias: alias}, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Website, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, alias FROM websites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	defer rows.Close()

	var out []domain.Website
	for rows.Next() {
		var w domain.Website
		if err := rows.Scan(&w.ID, &w.URL, &w.Alias); err != nil {
			return nil, fmt.Errorf("scan website: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) GetByAlias(ctx context.Context, alias string) (*domain.Website, error) {
	var w domain.Website
	err := s.pool.QueryRow(ctx,
		`SELECT id, url, alias FROM websites WHERE alias = $1`, alias).
		Scan(&w.ID, &w.URL, &w.Alias)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
		}
		return nil, fmt.Errorf("get website: %w", err)
	}
	return &w, nil
}

// Delete removes the website and its logs in one transaction. The
// schema has no ON DELETE clause, so the log cascade is explicit.
func (s *Store) Delete(ctx context.Context, alias string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM logs WHERE website_alias = $1`, alias); err != nil {
		return fmt.Errorf("delete logs: %w", err)
	}
	ct, err := tx.Exec(ctx, `DELETE FROM websites WHERE alias = $1`, alias)
	if err != nil {
		return fmt.Errorf("delete website: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
	}
	return tx.Commit(ctx)
}

// ---- LogStore ----

func (s *Store) RecordProbe(ctx context.Context, alias string, status *int, at time.Time) error {
	minute := at.UTC().Truncate(time.Minute)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO logs (website_alias, status, created_at) VALUES ($1, $2, $3)`,
		alias, status, minute)
	if err != nil {
		switch {
		case isPgErr(err, codeUniqueViolation):
			return fmt.Errorf("alias %q at %s: %w", alias, minute.Format(time.RFC3339), repo.ErrConflict)
		case isPgErr(err, codeForeignKeyViolation):
			return fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
		}
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

func (s *Store) QueryLogs(ctx context.Context, alias string, since, until time.Time) ([]domain.Log, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, website_alias, status, created_at
		   FROM logs
		  WHERE website_alias = $1
		    AND created_at BETWEEN $2 AND $3
		  ORDER BY created_at ASC`,
		alias, since, until)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var out []domain.Log
	for rows.Next() {
		var l domain.Log
		if err := rows.Scan(&l.ID, &l.WebsiteAlias, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

func isPgErr(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
