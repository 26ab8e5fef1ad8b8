package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"sitepulse/internal/probe"
	"sitepulse/internal/repo"
)

// Scheduler drives one probe per registered website every Interval,
// bounded by Concurrency probes in flight. A probe that exceeds
// Timeout is recorded as a transport failure (nil status).
type Scheduler struct {
	Logger      *zap.Logger
	Websites    repo.WebsiteStore
	Logs        repo.LogStore
	Checker     probe.Checker
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
}

func New(
	logger *zap.Logger,
	ws repo.WebsiteStore,
	ls repo.LogStore,
	checker probe.Checker,
	interval time.Duration,
	timeout time.Duration,
	concurrency int,
) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scheduler{
		Logger:      logger,
		Websites:    ws,
		Logs:        ls,
		Checker:     checker,
		Interval:    interval,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Run starts the loop. It does an immediate pass, then one per tick.
// Returns when ctx is cancelled; in-flight probes are joined first.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Interval == 0 {
		// disabled
		s.Logger.Info("scheduler_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("scheduler_stopped")
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

// tick probes a snapshot of the website list. Websites registered
// mid-tick are picked up on the next tick.
func (s *Scheduler) tick(ctx context.Context) {
	sites, err := s.Websites.List(ctx)
	if err != nil {
		// Transient store failure: abandon this tick, the next one retries.
		s.Logger.Warn("scheduler_list_error", zap.Error(err))
		return
	}
	if len(sites) == 0 {
		return
	}

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	for _, site := range sites {
		site := site
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, s.Timeout)
			defer cancel()

			out := s.Checker.Check(cctx, site.URL)

			// Record with the outer ctx so a timed-out probe still lands.
			err := s.Logs.RecordProbe(ctx, site.Alias, out.Status, time.Now().UTC())
			switch {
			case errors.Is(err, repo.ErrConflict):
				s.Logger.Warn("scheduler_duplicate_minute",
					zap.String("alias", site.Alias),
					zap.String("url", site.URL),
				)
			case err != nil:
				s.Logger.Warn("scheduler_record_error",
					zap.String("alias", site.Alias),
					zap.String("url", site.URL),
					zap.Error(err),
				)
			default:
				s.Logger.Debug("scheduler_probed",
					zap.String("alias", site.Alias),
					zap.String("url", site.URL),
					zap.Bool("up", out.Succeeded),
					zap.Float64("latency_ms", out.LatencyMS),
					zap.String("reason", out.Reason),
				)
			}
		}()
	}

	wg.Wait()
}
