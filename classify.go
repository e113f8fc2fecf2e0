package ng

import "time"

// verdict is the classifier's decision for one completed attempt.
type verdict int

const (
	// verdictAccept: 2xx, hand the body to the caller's decoder.
	verdictAccept verdict = iota

	// verdictRetryAfter: the server supplied a wait directive that takes
	// priority over computed backoff.
	verdictRetryAfter

	// verdictBackoff: retryable status, wait per the backoff policy.
	verdictBackoff

	// verdictFail: terminal, returned to the caller as Success=false.
	verdictFail
)

// classification pairs a verdict with the server-directed delay when the
// verdict is verdictRetryAfter.
type classification struct {
	verdict verdict
	delay   time.Duration
}

// classify inspects a completed attempt and decides how the executor should
// proceed. Server wait directives are honored only for statuses in the
// retry-after set; other retryable statuses fall back to computed backoff.
func (c *Client) classify(res *attemptResult) classification {
	if res.success {
		return classification{verdict: verdictAccept}
	}

	if _, ok := c.retryAfterStatuses[res.status]; ok {
		if wait, found := parseRetryAfter(res.headers); found {
			return classification{verdict: verdictRetryAfter, delay: c.capRetryAfter(wait)}
		}
	}

	if _, ok := c.retryableStatuses[res.status]; ok {
		return classification{verdict: verdictBackoff}
	}

	return classification{verdict: verdictFail}
}
