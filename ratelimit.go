package ng

import (
	"context"

	"golang.org/x/time/rate"
)

// WithRateLimit paces logical requests through a token bucket before they
// compete for admission. The bound is local to this client instance; it is
// not a distributed limit.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// waitForPacing blocks until the limiter grants a token, when configured.
func (c *Client) waitForPacing(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindInternal, Message: "rate limiter wait aborted", Cause: err}
	}
	return nil
}
