package repo

import (
	"context"
	"errors"
	"time"

	"sitepulse/internal/domain"
)

var (
	// ErrConflict is returned for a duplicate alias on registration, or
	// a second log row for the same (alias, minute).
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when the alias is not registered.
	ErrNotFound = errors.New("not found")
)

// Ports (interfaces) — swap in any DB adapter later.
type WebsiteStore interface {
	// Register creates a website. The alias is immutable afterwards.
	Register(ctx context.Context, url, alias string) (*domain.Website, error)
	// List returns websites in insertion order.
	List(ctx context.Context) ([]domain.Website, error)
	GetByAlias(ctx context.Context, alias string) (*domain.Website, error)
	// Delete removes a website and its logs in one transaction.
	Delete(ctx context.Context, alias string) error
}

// LogStore is the append-only audit trail of probe outcomes.
type LogStore interface {
	// RecordProbe truncates at to the minute before writing. A nil
	// status records a transport-level failure.
	RecordProbe(ctx context.Context, alias string, status *int, at time.Time) error
	// QueryLogs returns logs with created_at in [since, until],
	// ordered by created_at ascending.
	QueryLogs(ctx context.Context, alias string, since, until time.Time) ([]domain.Log, error)
}
