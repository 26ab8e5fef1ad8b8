package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"sitepulse/internal/repo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_RegisterListGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	w, err := s.Register(ctx, "https://example.com", "site-a")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if w.ID == 0 {
		t.Fatalf("expected sequence-assigned id")
	}

	if _, err := s.Register(ctx, "https://b.example.com", "site-b"); err != nil {
		t.Fatalf("Register second: %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Alias != "site-a" || all[1].Alias != "site-b" {
		t.Fatalf("want insertion order [site-a site-b], got %+v", all)
	}

	got, err := s.GetByAlias(ctx, "site-a")
	if err != nil {
		t.Fatalf("GetByAlias: %v", err)
	}
	if got.URL != "https://example.com" {
		t.Fatalf("unexpected URL: %s", got.URL)
	}
	if _, err := s.GetByAlias(ctx, "nope"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_DuplicateAliasConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Register(ctx, "https://example.com", "site-a"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := s.Register(ctx, "https://other.example.com", "site-a"); !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	all, _ := s.List(ctx)
	if len(all) != 1 {
		t.Fatalf("failed register must not change state, got %d rows", len(all))
	}
}

func TestSQLiteStore_RecordProbeAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Register(ctx, "https://example.com", "site-a"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ok := 200
	bad := 503
	if err := s.RecordProbe(ctx, "site-a", &ok, base.Add(42*time.Second)); err != nil {
		t.Fatalf("RecordProbe: %v", err)
	}
	if err := s.RecordProbe(ctx, "site-a", nil, base.Add(time.Minute)); err != nil {
		t.Fatalf("RecordProbe nil status: %v", err)
	}
	if err := s.RecordProbe(ctx, "site-a", &bad, base.Add(2*time.Minute)); err != nil {
		t.Fatalf("RecordProbe 503: %v", err)
	}

	// Same minute is rejected.
	if err := s.RecordProbe(ctx, "site-a", &ok, base.Add(10*time.Second)); !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("want ErrConflict for duplicate minute, got %v", err)
	}
	// Unknown alias is rejected.
	if err := s.RecordProbe(ctx, "nope", &ok, base); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	logs, err := s.QueryLogs(ctx, "site-a", base, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("want 3 rows, got %d", len(logs))
	}
	if logs[0].Status == nil || *logs[0].Status != 200 {
		t.Fatalf("first row: want status 200, got %v", logs[0].Status)
	}
	if logs[1].Status != nil {
		t.Fatalf("second row: want nil status, got %v", *logs[1].Status)
	}
	if !logs[0].CreatedAt.Equal(base) {
		t.Fatalf("created_at not truncated to minute: %v", logs[0].CreatedAt)
	}
}

func TestSQLiteStore_DeleteCascadesLogs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Register(ctx, "https://example.com", "site-a"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ok := 200
	now := time.Now().UTC()
	if err := s.RecordProbe(ctx, "site-a", &ok, now); err != nil {
		t.Fatalf("RecordProbe: %v", err)
	}

	if err := s.Delete(ctx, "site-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByAlias(ctx, "site-a"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "site-a"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}
