package ng

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ckir/go-lib-ng/internal/backoff"
)

// Client is a resilient HTTP executor. It owns a logical request's whole
// lifecycle: concurrency admission, attempt sequencing, failure
// classification, backoff computation and Retry-After compliance. It is
// safe for concurrent use; configuration is immutable after New.
type Client struct {
	httpClient *http.Client
	logger     Logger

	timeout                time.Duration
	retryCount             int
	concurrencyLimit       int
	retryableStatuses      map[int]struct{}
	retryAfterStatuses     map[int]struct{}
	maxRetryAfter          time.Duration
	backoffLimit           time.Duration
	retryOnTimeout         bool
	retryDecider           RetryDecider
	allowedMethods         map[string]struct{}
	sharedGate             *Gate
	deterministic          bool
	disableJitter          bool
	permitReleaseThreshold time.Duration

	gate            *Gate
	limiter         *rate.Limiter
	metrics         *MetricsCollector
	debug           *DebugConfig
	validationError error
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for
// errors. The logger may be nil.
func New(logger Logger, options ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:                 logger,
		timeout:                defaultTimeout,
		retryCount:             defaultRetryCount,
		concurrencyLimit:       defaultConcurrencyLimit,
		retryableStatuses:      defaultRetryableStatuses(),
		retryAfterStatuses:     defaultRetryAfterStatuses(),
		retryOnTimeout:         false,
		allowedMethods:         defaultAllowedMethods(),
		permitReleaseThreshold: defaultPermitReleaseThreshold,
		debug:                  DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if client.sharedGate != nil {
		client.gate = client.sharedGate
	} else {
		client.gate = NewGate(client.concurrencyLimit)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// Gate returns the client's admission gate, for sharing with other
// instances via WithSharedGate.
func (c *Client) Gate() *Gate {
	return c.gate
}

// GetRaw performs a GET returning the undecoded body wrapper.
func (c *Client) GetRaw(ctx context.Context, url string, headers http.Header) (*Response[json.RawMessage], error) {
	return Get[json.RawMessage](ctx, c, url, headers)
}

// PostRaw performs a POST with a JSON body returning the undecoded wrapper.
func (c *Client) PostRaw(ctx context.Context, url string, headers http.Header, body any) (*Response[json.RawMessage], error) {
	return Post[json.RawMessage](ctx, c, url, headers, body)
}

// do drives the attempt loop for one logical request. Every exit path
// releases the held permit exactly once; Permit.Release is idempotent so
// the deferred release backs up the explicit ones.
func (c *Client) do(ctx context.Context, method, rawURL string, headers http.Header, body any) (*attemptResult, error) {
	start := time.Now()
	endpoint := endpointFromURL(rawURL)

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	// Disallowed methods never reach the network and never take a permit.
	if _, ok := c.allowedMethods[method]; !ok {
		if c.logger != nil {
			c.logger.Error("Method not allowed", "method", method, "url", rawURL)
		}
		if c.metrics != nil {
			c.metrics.RecordError(string(KindInternal), method, endpoint)
		}
		return nil, &Error{
			Kind:    KindInternal,
			Message: "method " + method + " not allowed",
			Method:  method,
			URL:     rawURL,
		}
	}

	if c.logger != nil {
		c.logger.Info("Request start", "method", method, "url", rawURL)
	}
	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
		defer c.metrics.RecordRequestEnd(method, endpoint)
	}

	if err := c.waitForPacing(ctx); err != nil {
		return nil, err
	}

	gateWaitStart := time.Now()
	permit, err := c.gate.Acquire(ctx)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordError(string(KindInternal), method, endpoint)
		}
		return nil, &Error{
			Kind:    KindInternal,
			Message: "admission gate closed",
			Cause:   err,
			Method:  method,
			URL:     rawURL,
		}
	}
	if c.metrics != nil {
		c.metrics.RecordGateWait(method, endpoint, time.Since(gateWaitStart))
	}
	defer func() { permit.Release() }()

	calc := backoff.NewCalculator(backoff.Exponential{
		DisableJitter: c.disableJitter,
		Deterministic: c.deterministic,
		MaxRetryAfter: c.maxRetryAfter,
		Limit:         c.backoffLimit,
	}, c.deterministic)

	diag := &diagnostics{}
	maxAttempts := c.retryCount + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
				c.logger.Info("Retry attempt", "requestID", requestID, "url", rawURL, "attempt", attempt)
			}
			if c.metrics != nil {
				c.metrics.RecordRetry(method, endpoint, attempt)
			}
		}

		res, err := c.attempt(ctx, method, rawURL, headers, body)
		diag.recordAttempt()

		if err != nil {
			if c.logger != nil {
				c.logger.Error("Network failure", "url", rawURL, "error", err.Error())
			}
			if c.metrics != nil {
				c.metrics.RecordError(string(KindHTTP), method, endpoint)
			}

			// Timeouts fail fast when not retryable; the decider is not
			// consulted on this path.
			if isTimeout(err) && !c.retryOnTimeout {
				permit.Release()
				c.finishRequest(method, endpoint, 0, start)
				return nil, &Error{
					Kind:    KindHTTP,
					Message: "attempt timed out",
					Cause:   err,
					Method:  method,
					URL:     rawURL,
				}
			}

			diag.recordError(err)

			should := true
			if c.retryDecider != nil {
				should = c.retryDecider.Decide(nil, err, attempt)
			}
			if should && attempt < maxAttempts {
				c.sleepAndMaybeReacquire(ctx, calc.Delay(attempt), &permit, requestID)
				continue
			}

			permit.Release()
			c.finishRequest(method, endpoint, 0, start)
			return nil, diag.compose(method, rawURL)
		}

		decision := c.classify(res)

		switch decision.verdict {
		case verdictAccept:
			permit.Release()
			c.finishRequest(method, endpoint, res.status, start)
			return res, nil

		case verdictRetryAfter:
			diag.recordStatus(res.status, res.body)
			diag.recordError(&Error{Kind: KindHTTP, Message: fmt.Sprintf("status %d", res.status), Status: res.status})

			if c.logger != nil {
				c.logger.Info("Respecting Retry-After header",
					"url", rawURL, "retryAfter", decision.delay.String(), "attempt", attempt)
			}
			if c.metrics != nil {
				c.metrics.RecordRetryAfter(method, endpoint)
			}

			if attempt < maxAttempts {
				c.sleepAndMaybeReacquire(ctx, decision.delay, &permit, requestID)
				continue
			}

			// Last configured attempt, but the server explicitly asked for
			// a wait: honor it (capped like any server wait) and issue
			// exactly one additional final request instead of giving up.
			// The extra attempt beyond the configured budget is a known
			// design gap, see package docs.
			c.sleepAndMaybeReacquire(ctx, decision.delay, &permit, requestID)
			final, ferr := c.attempt(ctx, method, rawURL, headers, body)
			diag.recordAttempt()
			permit.Release()
			if ferr != nil {
				c.finishRequest(method, endpoint, 0, start)
				return nil, &Error{
					Kind:    KindHTTP,
					Message: "final server-directed attempt failed",
					Cause:   ferr,
					Method:  method,
					URL:     rawURL,
				}
			}
			c.finishRequest(method, endpoint, final.status, start)
			return final, nil

		case verdictBackoff:
			diag.recordStatus(res.status, res.body)
			diag.recordError(&Error{Kind: KindHTTP, Message: fmt.Sprintf("status %d", res.status), Status: res.status})

			if attempt < maxAttempts {
				c.sleepAndMaybeReacquire(ctx, calc.Delay(attempt), &permit, requestID)
				continue
			}

			// Attempts exhausted on a retryable status: recoverable
			// application-level outcome, not a call failure.
			permit.Release()
			c.finishRequest(method, endpoint, res.status, start)
			return res, nil

		default: // verdictFail
			permit.Release()
			c.finishRequest(method, endpoint, res.status, start)
			return res, nil
		}
	}

	// Unreachable: every branch above returns or continues within budget.
	permit.Release()
	return nil, diag.compose(method, rawURL)
}

// attempt issues one HTTP round-trip and reads the complete body exactly
// once into memory regardless of outcome.
func (c *Client) attempt(ctx context.Context, method, rawURL string, headers http.Header, body any) (*attemptResult, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindInternal, Message: "encoding request body", Cause: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "building request", Cause: err}
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// A failed read degrades to an empty body rather than failing the
	// attempt; the status line already arrived.
	text, _ := io.ReadAll(resp.Body)

	return &attemptResult{
		status:  resp.StatusCode,
		headers: resp.Header.Clone(),
		body:    text,
		success: resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}

// sleepAndMaybeReacquire sleeps for the given duration. Short waits keep
// the permit to preserve relative admission ordering. Waits at or above the
// release threshold give the permit back first, then make one bounded
// re-acquisition attempt; on failure the request proceeds without a permit
// rather than blocking indefinitely (documented oversubscription risk).
func (c *Client) sleepAndMaybeReacquire(ctx context.Context, d time.Duration, permit **Permit, requestID string) {
	if d < c.permitReleaseThreshold || *permit == nil {
		sleepContext(ctx, d)
		return
	}

	(*permit).Release()
	*permit = nil
	if c.metrics != nil {
		c.metrics.RecordEarlyRelease()
	}
	if c.debug != nil && c.debug.Enabled && c.debug.LogGate && c.logger != nil {
		c.logger.Debug("Permit released for long wait", "requestID", requestID, "wait", d.String())
	}

	sleepContext(ctx, d)

	if p := c.gate.TryReacquire(ctx, defaultReacquireTimeout); p != nil {
		*permit = p
		return
	}
	if c.metrics != nil {
		c.metrics.RecordReacquireFailure()
	}
	if c.logger != nil {
		c.logger.Warn("Permit re-acquisition timed out, proceeding without permit", "requestID", requestID)
	}
}

func (c *Client) finishRequest(method, endpoint string, status int, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRequest(method, endpoint, status, time.Since(start))
	}
}

// sleepContext waits for d or until the caller's context ends.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// isTimeout reports whether a transport error represents a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// endpointFromURL reduces a URL to a host+path metric label.
func endpointFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}
	return builder.String()
}
