package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sitepulse/internal/domain"
	"sitepulse/internal/repo"
)

var _ repo.WebsiteStore = (*Store)(nil)
var _ repo.LogStore = (*Store)(nil)

// Store keeps everything in process memory with the same semantics as
// the database-backed stores (alias uniqueness, one log per minute).
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	websites []*domain.Website // insertion order
	byAlias  map[string]*domain.Website
	logs     []*domain.Log
}

func New() *Store {
	return &Store{
		byAlias: make(map[string]*domain.Website),
		logs:    make([]*domain.Log, 0, 128),
	}
}

func (m *Store) Register(ctx context.Context, url, alias string) (*domain.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byAlias[alias]; ok {
		return nil, fmt.Errorf("alias %q: %w", alias, repo.ErrConflict)
	}
	m.nextID++
	w := &domain.Website{ID: m.nextID, URL: url, Alias: alias}
	m.websites = append(m.websites, w)
	m.byAlias[alias] = w
	return w, nil
}

func (m *Store) List(ctx context.Context) ([]domain.Website, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Website, 0, len(m.websites))
	for _, w := range m.websites {
		out = append(out, *w)
	}
	return out, nil
}

func (m *Store) GetByAlias(ctx context.Context, alias string) (*domain.Website, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.byAlias[alias]
	if !ok {
		return nil, fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
	}
	cp := *w
	return &cp, nil
}

func (m *Store) Delete(ctx context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byAlias[alias]; !ok {
		return fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
	}
	delete(m.byAlias, alias)
	for i, w := range m.websites {
		if w.Alias == alias {
			m.websites = append(m.websites[:i], m.websites[i+1:]...)
			break
		}
	}
	kept := m.logs[:0]
	for _, l := range m.logs {
		if l.WebsiteAlias != alias {
			kept = append(kept, l)
		}
	}
	m.logs = kept
	return nil
}

func (m *Store) RecordProbe(ctx context.Context, alias string, status *int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byAlias[alias]; !ok {
		return fmt.Errorf("alias %q: %w", alias, repo.ErrNotFound)
	}
	minute := at.UTC().Truncate(time.Minute)
	for _, l := range m.logs {
		if l.WebsiteAlias == alias && l.CreatedAt.Equal(minute) {
			return fmt.Errorf("alias %q at %s: %w", alias, minute.Format(time.RFC3339), repo.ErrConflict)
		}
	}
	m.nextID++
	var st *int
	if status != nil {
		v := *status
		st = &v
	}
	m.logs = append(m.logs, &domain.Log{
		ID:           m.nextID,
		WebsiteAlias: alias,
		Status:       st,
		CreatedAt:    minute,
	})
	return nil
}

func (m *Store) QueryLogs(ctx context.Context, alias string, since, until time.Time) ([]domain.Log, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Log, 0)
	for _, l := range m.logs {
		if l.WebsiteAlias != alias {
			continue
		}
		if l.CreatedAt.Before(since) || l.CreatedAt.After(until) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
