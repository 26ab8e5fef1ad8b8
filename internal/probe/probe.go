package probe

import "context"

// Outcome is the result of a single probe. Status is nil for
// transport-level failures (DNS failure, connection refused, timeout);
// Succeeded is false whenever Status is nil or at/above the checker's
// success threshold.
type Outcome struct {
	Status    *int
	Succeeded bool
	LatencyMS float64
	Reason    string
}

// Checker performs a single reachability check for a URL. It never
// returns an error: every failure mode is represented in the Outcome.
type Checker interface {
	Check(ctx context.Context, url string) Outcome
}
