package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"sitepulse/internal/domain"
	"sitepulse/internal/probe"
	"sitepulse/internal/repo"
)

// --- fakes ---

type fakeWebsites struct {
	sites []domain.Website
}

func (f *fakeWebsites) Register(ctx context.Context, url, alias string) (*domain.Website, error) {
	return nil, nil
}
func (f *fakeWebsites) List(ctx context.Context) ([]domain.Website, error) {
	return f.sites, nil
}
func (f *fakeWebsites) GetByAlias(ctx context.Context, alias string) (*domain.Website, error) {
	return nil, repo.ErrNotFound
}
func (f *fakeWebsites) Delete(ctx context.Context, alias string) error { return nil }

type fakeLogs struct {
	mu       sync.Mutex
	recorded map[string]*int // alias -> last status
	errFor   map[string]error
}

func newFakeLogs() *fakeLogs {
	return &fakeLogs{recorded: make(map[string]*int), errFor: make(map[string]error)}
}

func (f *fakeLogs) RecordProbe(ctx context.Context, alias string, status *int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[alias]; err != nil {
		return err
	}
	f.recorded[alias] = status
	return nil
}

func (f *fakeLogs) QueryLogs(ctx context.Context, alias string, since, until time.Time) ([]domain.Log, error) {
	return nil, nil
}

func (f *fakeLogs) get(alias string) (*int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.recorded[alias]
	return st, ok
}

// slowOnChecker answers 200 immediately except for one URL, where it
// blocks until the probe's ctx deadline and reports a transport failure.
type slowOnChecker struct {
	slowURL string
}

func (c *slowOnChecker) Check(ctx context.Context, url string) probe.Outcome {
	if url == c.slowURL {
		<-ctx.Done()
		return probe.Outcome{Reason: ctx.Err().Error()}
	}
	status := 200
	return probe.Outcome{Status: &status, Succeeded: true, Reason: "200 OK"}
}

func sites(n int) []domain.Website {
	out := make([]domain.Website, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Website{
			ID:    int64(i + 1),
			URL:   fmt.Sprintf("https://site-%d.example.com", i),
			Alias: fmt.Sprintf("site-%d", i),
		})
	}
	return out
}

// --- tests ---

func TestScheduler_ImmediatePassRecordsAll(t *testing.T) {
	ws := &fakeWebsites{sites: sites(3)}
	ls := newFakeLogs()
	s := New(zap.NewNop(), ws, ls, &slowOnChecker{}, time.Hour, time.Second, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { defer close(done); s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := ls.get("site-2"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("immediate pass did not record all sites in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	for i := 0; i < 3; i++ {
		st, ok := ls.get(fmt.Sprintf("site-%d", i))
		if !ok {
			t.Fatalf("site-%d not recorded", i)
		}
		if st == nil || *st != 200 {
			t.Fatalf("site-%d: want status 200, got %v", i, st)
		}
	}
}

func TestScheduler_TimedOutProbeRecordedAsFailure(t *testing.T) {
	all := sites(3)
	ws := &fakeWebsites{sites: all}
	ls := newFakeLogs()
	chk := &slowOnChecker{slowURL: all[1].URL}
	s := New(zap.NewNop(), ws, ls, chk, time.Hour, 30*time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := ls.get("site-1"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed-out probe was never recorded")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	// The slow one lands as a nil-status failure.
	if st, _ := ls.get("site-1"); st != nil {
		t.Fatalf("slow site: want nil status, got %d", *st)
	}
	// The other two are unaffected.
	for _, alias := range []string{"site-0", "site-2"} {
		st, ok := ls.get(alias)
		if !ok || st == nil || *st != 200 {
			t.Fatalf("%s: want status 200 recorded, got %v (ok=%v)", alias, st, ok)
		}
	}
}

func TestScheduler_ConflictIsIsolated(t *testing.T) {
	all := sites(3)
	ws := &fakeWebsites{sites: all}
	ls := newFakeLogs()
	ls.errFor["site-0"] = fmt.Errorf("alias %q: %w", "site-0", repo.ErrConflict)
	s := New(zap.NewNop(), ws, ls, &slowOnChecker{}, time.Hour, time.Second, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := ls.get("site-2"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("tick did not survive a record conflict")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if _, ok := ls.get("site-0"); ok {
		t.Fatal("conflicting record should not have landed")
	}
	for _, alias := range []string{"site-1", "site-2"} {
		if _, ok := ls.get(alias); !ok {
			t.Fatalf("%s should still be recorded", alias)
		}
	}
}

func TestScheduler_ZeroIntervalDisabled(t *testing.T) {
	s := New(zap.NewNop(), &fakeWebsites{sites: sites(1)}, newFakeLogs(), &slowOnChecker{}, 0, time.Second, 1)

	done := make(chan struct{})
	go func() { defer close(done); s.Run(context.Background()) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero interval should return immediately")
	}
}

func TestScheduler_ClampsConcurrency(t *testing.T) {
	s := New(zap.NewNop(), nil, nil, nil, time.Minute, time.Second, 0)
	if s.Concurrency != 1 {
		t.Fatalf("want concurrency clamped to 1, got %d", s.Concurrency)
	}
}
