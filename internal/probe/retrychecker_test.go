package probe

import (
	"context"
	"testing"
	"time"
)

type scriptedChecker struct {
	calls    int
	outcomes []Outcome
}

func (s *scriptedChecker) Check(ctx context.Context, url string) Outcome {
	out := s.outcomes[s.calls%len(s.outcomes)]
	s.calls++
	return out
}

func status(code int) *int { return &code }

func TestRetryChecker_RetriesTransportFailures(t *testing.T) {
	inner := &scriptedChecker{outcomes: []Outcome{
		{Reason: "dial tcp: connection refused"},
		{Reason: "dial tcp: connection refused"},
		{Status: status(200), Succeeded: true, Reason: "200 OK"},
	}}
	r := &RetryChecker{Inner: inner, Attempts: 3, Backoff: time.Millisecond}

	out := r.Check(context.Background(), "https://example.com")
	if inner.calls != 3 {
		t.Fatalf("want 3 attempts, got %d", inner.calls)
	}
	if !out.Succeeded || out.Status == nil || *out.Status != 200 {
		t.Fatalf("want final success, got %+v", out)
	}
}

func TestRetryChecker_ResponseIsDefinitive(t *testing.T) {
	// A 503 is an answer, not a transport failure: no retry.
	inner := &scriptedChecker{outcomes: []Outcome{
		{Status: status(503), Reason: "503 Service Unavailable"},
	}}
	r := &RetryChecker{Inner: inner, Attempts: 3, Backoff: time.Millisecond}

	out := r.Check(context.Background(), "https://example.com")
	if inner.calls != 1 {
		t.Fatalf("want 1 attempt, got %d", inner.calls)
	}
	if out.Status == nil || *out.Status != 503 {
		t.Fatalf("want 503 passed through, got %+v", out)
	}
}

func TestRetryChecker_ExhaustedReturnsLastFailure(t *testing.T) {
	inner := &scriptedChecker{outcomes: []Outcome{{Reason: "timeout"}}}
	r := &RetryChecker{Inner: inner, Attempts: 2, Backoff: time.Millisecond}

	out := r.Check(context.Background(), "https://example.com")
	if inner.calls != 2 {
		t.Fatalf("want 2 attempts, got %d", inner.calls)
	}
	if out.Succeeded || out.Status != nil {
		t.Fatalf("want transport failure outcome, got %+v", out)
	}
}

func TestRetryChecker_StopsOnCancelledContext(t *testing.T) {
	inner := &scriptedChecker{outcomes: []Outcome{{Reason: "timeout"}}}
	r := &RetryChecker{Inner: inner, Attempts: 5, Backoff: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := r.Check(ctx, "https://example.com")
	if inner.calls != 1 {
		t.Fatalf("cancelled ctx should stop after first attempt, got %d", inner.calls)
	}
	if out.Status != nil {
		t.Fatalf("want failure outcome, got %+v", out)
	}
}
