package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitepulse/internal/domain"
	"sitepulse/internal/repo"
)

// ErrNoData is returned when a window holds zero logs. Distinct from a
// 0% result, which needs at least one failed probe on record.
var ErrNoData = errors.New("no data in window")

// The two canonical query windows.
const (
	Window24h = 24 * time.Hour
	Window30d = 30 * 24 * time.Hour
)

// By selects the bucket granularity for Buckets.
type By int

const (
	ByHour By = iota // last 24 hours, one bucket per hour
	ByDay            // last 30 days, one bucket per day
)

// Bucket is one slice of a bucketed uptime series. UptimePct is nil
// when the bucket holds no logs (gap is kept, not dropped).
type Bucket struct {
	Time      time.Time `json:"time"`
	UptimePct *float64  `json:"uptime_pct"`
}

// Aggregator reduces stored logs into uptime figures. Percentages
// reflect observed samples only: if the scheduler was down for part of
// a window, missing minutes neither penalize nor pad the result.
type Aggregator struct {
	Websites     repo.WebsiteStore
	Logs         repo.LogStore
	SuccessBelow int
	Now          func() time.Time
}

func New(ws repo.WebsiteStore, ls repo.LogStore, successBelow int) *Aggregator {
	if successBelow <= 0 {
		successBelow = 500
	}
	return &Aggregator{
		Websites:     ws,
		Logs:         ls,
		SuccessBelow: successBelow,
		Now:          time.Now,
	}
}

func (a *Aggregator) succeeded(l domain.Log) bool {
	return l.Status != nil && *l.Status < a.SuccessBelow
}

// UptimePercent returns successful/total*100 over [now-window, now].
func (a *Aggregator) UptimePercent(ctx context.Context, alias string, window time.Duration) (float64, error) {
	logs, err := a.windowLogs(ctx, alias, window)
	if err != nil {
		return 0, err
	}
	if len(logs) == 0 {
		return 0, fmt.Errorf("alias %q over %s: %w", alias, window, ErrNoData)
	}
	var up int
	for _, l := range logs {
		if a.succeeded(l) {
			up++
		}
	}
	return float64(up) / float64(len(logs)) * 100, nil
}

// Buckets returns a fixed-length uptime series: 24 hourly buckets or
// 30 daily buckets, oldest first.
func (a *Aggregator) Buckets(ctx context.Context, alias string, by By) ([]Bucket, error) {
	if _, err := a.Websites.GetByAlias(ctx, alias); err != nil {
		return nil, err
	}

	step := time.Hour
	n := 24
	if by == ByDay {
		step = 24 * time.Hour
		n = 30
	}
	now := a.Now().UTC()
	end := now.Truncate(step)
	start := end.Add(-time.Duration(n-1) * step)

	logs, err := a.Logs.QueryLogs(ctx, alias, start, now)
	if err != nil {
		return nil, err
	}

	totals := make([]int, n)
	ups := make([]int, n)
	for _, l := range logs {
		idx := int(l.CreatedAt.UTC().Truncate(step).Sub(start) / step)
		if idx < 0 || idx >= n {
			continue
		}
		totals[idx]++
		if a.succeeded(l) {
			ups[idx]++
		}
	}

	out := make([]Bucket, n)
	for i := range out {
		out[i] = Bucket{Time: start.Add(time.Duration(i) * step)}
		if totals[i] > 0 {
			pct := float64(ups[i]) / float64(totals[i]) * 100
			out[i].UptimePct = &pct
		}
	}
	return out, nil
}

// Incidents returns the failed logs in [now-window, now], oldest first.
func (a *Aggregator) Incidents(ctx context.Context, alias string, window time.Duration) ([]domain.Log, error) {
	logs, err := a.windowLogs(ctx, alias, window)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Log, 0)
	for _, l := range logs {
		if !a.succeeded(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (a *Aggregator) windowLogs(ctx context.Context, alias string, window time.Duration) ([]domain.Log, error) {
	if _, err := a.Websites.GetByAlias(ctx, alias); err != nil {
		return nil, err
	}
	now := a.Now().UTC()
	return a.Logs.QueryLogs(ctx, alias, now.Add(-window), now)
}
