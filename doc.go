// Package ng provides a resilient outbound HTTP client for market data
// retrieval, layering reliability primitives around the standard net/http
// Client:
//
//   - Bounded concurrency through an admission gate (local or shared)
//   - Retries with exponential backoff + jitter and per-status policies
//   - Retry-After compliance (numeric seconds and HTTP date forms)
//   - Optional token-bucket request pacing
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Immutable configuration; per-call overrides build a transient Client
//   - Safe concurrent use of a single *Client instance
//   - Extensibility via pluggable Logger, RetryDecider and metrics
//
// Typical usage:
//
//	client := ng.New(ng.NewSimpleLogger(),
//	    ng.WithRetryCount(2),
//	    ng.WithConcurrencyLimit(4),
//	    ng.WithBackoffLimit(10*time.Second),
//	)
//	resp, err := ng.Get[Quote](ctx, client, url, headers)
//
// Callers must branch on both layers of the result: a nil error with
// resp.Success == false means the request completed with a non-2xx status
// after the retry policy ran its course; resp.ErrorBody and resp.Status
// carry the application-level failure for the caller to interpret. A
// non-nil error means the call could not be completed at all (network
// exhaustion, decode failure on a 2xx body, disallowed method).
//
// Known gap: when the last configured attempt still draws a
// Retry-After-eligible status carrying a Retry-After header, the engine
// issues one extra attempt beyond the configured budget. The wait before
// that extension is capped like any server wait; the extra attempt itself
// is what exceeds the budget.
package ng
