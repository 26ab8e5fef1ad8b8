package probe

import (
	"context"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
	// SuccessBelow is the exclusive upper bound for status codes that
	// count as up, e.g. 500 treats every non-5xx response as success.
	SuccessBelow int
}

func NewHTTPChecker(timeout time.Duration, successBelow int) *HTTPChecker {
	if successBelow <= 0 {
		successBelow = 500
	}
	return &HTTPChecker{
		Client:       &http.Client{Timeout: timeout},
		SuccessBelow: successBelow,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, url string) Outcome {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Outcome{Reason: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return Outcome{LatencyMS: latency, Reason: err.Error()}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	return Outcome{
		Status:    &status,
		Succeeded: status < h.SuccessBelow,
		LatencyMS: latency,
		Reason:    resp.Status,
	}
}
