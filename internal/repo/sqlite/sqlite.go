package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sitepulse/internal/domain"
	"sitepulse/internal/repo"
)

var _ repo.WebsiteStore = (*Store)(nil)
var _ repo.LogStore = (*Store)(nil)

// timeFormat keeps timestamps lexicographically sortable in TEXT columns.
const timeFormat = time.RFC3339

// Store is a single-file store for deployments without a Postgres.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

// migrate carries the SQLite translation of migrations/1_schema.sql.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS websites (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	url   TEXT NOT NULL,
	alias TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS logs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	website_alias TEXT NOT NULL REFERENCES websites(alias),
	status        INTEGER,
	created_at    TEXT NOT NULL,
	UNIQUE (website_alias, created_at)
);
CREATE INDEX IF NOT EXISTS idx_logs_alias_created_at ON logs (website_alias, created_at);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// ---- WebsiteStore ----

func (s *Store) Register(ctx context.Context, url, alias string) (*domain.Website, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM websites WHERE alias = ?`, alias).Scan(&exists)
	if err == nil {
		return nil, fmt.Errorf("alias %q: %w", alias, repo.ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check alias: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO websites (url, alias) VALUES (?, ?)`, url, alias)
	if err != nil {
		return nil, fmt.Errorf("insert website: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &domain.Website{ID: id, URL: url, Alias: alias}, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Website, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, url, alias FROM websites ORDER BY id`)
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
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, alias FROM websites WHERE alias = ?`, alias).
		Scan(&w.ID, &w.URL, &w.Alias)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
		}
		return nil, fmt.Errorf("get website: %w", err)
	}
	return &w, nil
}

func (s *Store) Delete(ctx context.Context, alias string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM logs WHERE website_alias = ?`, alias); err != nil {
		return fmt.Errorf("delete logs: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM websites WHERE alias = ?`, alias)
	if err != nil {
		return fmt.Errorf("delete website: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
	}
	return tx.Commit()
}

// ---- LogStore ----

func (s *Store) RecordProbe(ctx context.Context, alias string, status *int, at time.Time) error {
	minute := at.UTC().Truncate(time.Minute)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Pre-check instead of parsing driver error strings.
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM websites WHERE alias = ?`, alias).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check alias: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM logs WHERE website_alias = ? AND created_at = ?`,
		alias, minute.Format(timeFormat)).Scan(&one)
	if err == nil {
		return fmt.Errorf("alias %q at %s: %w", alias, minute.Format(timeFormat), repo.ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check minute: %w", err)
	}

	var st sql.NullInt64
	if status != nil {
		st = sql.NullInt64{Int64: int64(*status), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO logs (website_alias, status, created_at) VALUES (?, ?, ?)`,
		alias, st, minute.Format(timeFormat)); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return tx.Commit()
}

func (s *Store) QueryLogs(ctx context.Context, alias string, since, until time.Time) ([]domain.Log, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, website_alias, status, created_at
		   FROM logs
		  WHERE website_alias = ?
		    AND created_at BETWEEN ? AND ?
		  ORDER BY created_at ASC`,
		alias, since.UTC().Format(timeFormat), until.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var out []domain.Log
	for rows.Next() {
		var (
			l  domain.Log
			st sql.NullInt64
			ts string
		)
		if err := rows.Scan(&l.ID, &l.WebsiteAlias, &st, &ts); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if st.Valid {
			v := int(st.Int64)
			l.Status = &v
		}
		l.CreatedAt, err = time.Parse(timeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
