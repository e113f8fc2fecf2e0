package ng

import (
	"fmt"
	"net/http"
	"time"
)

// Default configuration values, matching the engine's conservative profile
// for scraping-grade market data endpoints.
const (
	defaultTimeout                = 15 * time.Second
	defaultRetryCount             = 2
	defaultConcurrencyLimit       = 2
	defaultPermitReleaseThreshold = 2 * time.Second
	defaultReacquireTimeout       = 200 * time.Millisecond
)

func defaultRetryableStatuses() map[int]struct{} {
	return map[int]struct{}{
		http.StatusRequestTimeout:        {},
		http.StatusRequestEntityTooLarge: {},
		http.StatusTooManyRequests:       {},
		http.StatusInternalServerError:   {},
		http.StatusBadGateway:            {},
		http.StatusServiceUnavailable:    {},
		http.StatusGatewayTimeout:        {},
	}
}

func defaultRetryAfterStatuses() map[int]struct{} {
	return map[int]struct{}{
		http.StatusRequestEntityTooLarge: {},
		http.StatusTooManyRequests:       {},
		http.StatusServiceUnavailable:    {},
	}
}

func defaultAllowedMethods() map[string]struct{} {
	return map[string]struct{}{
		http.MethodGet:     {},
		http.MethodHead:    {},
		http.MethodOptions: {},
		http.MethodPost:    {},
		http.MethodPut:     {},
		http.MethodPatch:   {},
		http.MethodDelete:  {},
		http.MethodTrace:   {},
	}
}

// WithTimeout bounds one individual attempt (not the whole retry
// sequence). Zero removes the per-attempt bound entirely.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetryCount sets the number of retries beyond the first attempt, so
// total attempts = n + 1.
func WithRetryCount(n int) Option {
	return func(c *Client) {
		c.retryCount = n
	}
}

// WithConcurrencyLimit sets the instance-local admission bound. Ignored
// when a shared gate is supplied.
func WithConcurrencyLimit(n int) Option {
	return func(c *Client) {
		c.concurrencyLimit = n
	}
}

// WithRetryableStatuses replaces the set of status codes eligible for
// backoff-based retry.
func WithRetryableStatuses(statuses ...int) Option {
	return func(c *Client) {
		c.retryableStatuses = make(map[int]struct{}, len(statuses))
		for _, s := range statuses {
			c.retryableStatuses[s] = struct{}{}
		}
	}
}

// WithRetryAfterStatuses replaces the set of status codes for which a
// server wait directive takes priority.
func WithRetryAfterStatuses(statuses ...int) Option {
	return func(c *Client) {
		c.retryAfterStatuses = make(map[int]struct{}, len(statuses))
		for _, s := range statuses {
			c.retryAfterStatuses[s] = struct{}{}
		}
	}
}

// WithMaxRetryAfter caps any server-supplied wait.
func WithMaxRetryAfter(d time.Duration) Option {
	return func(c *Client) {
		c.maxRetryAfter = d
	}
}

// WithBackoffLimit caps any computed or server-supplied wait.
func WithBackoffLimit(d time.Duration) Option {
	return func(c *Client) {
		c.backoffLimit = d
	}
}

// WithRetryOnTimeout treats a per-attempt timeout as retryable.
func WithRetryOnTimeout(retry bool) Option {
	return func(c *Client) {
		c.retryOnTimeout = retry
	}
}

// WithRetryDecider installs a predicate consulted on network-level
// failures. Absent a decider, network errors are always retried while
// attempts remain.
func WithRetryDecider(d RetryDecider) Option {
	return func(c *Client) {
		c.retryDecider = d
	}
}

// WithAllowedMethods replaces the method allow-list. Methods outside the
// list fail immediately without a network call.
func WithAllowedMethods(methods ...string) Option {
	return func(c *Client) {
		c.allowedMethods = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			c.allowedMethods[m] = struct{}{}
		}
	}
}

// WithSharedGate admits this client through an externally-owned gate so
// several instances share one concurrency limit.
func WithSharedGate(g *Gate) Option {
	return func(c *Client) {
		c.sharedGate = g
	}
}

// WithDeterministicMode seeds backoff randomness for reproducible tests.
func WithDeterministicMode() Option {
	return func(c *Client) {
		c.deterministic = true
	}
}

// WithJitterDisabled removes backoff jitter entirely.
func WithJitterDisabled() Option {
	return func(c *Client) {
		c.disableJitter = true
	}
}

// WithPermitReleaseThreshold sets the wait duration at or above which the
// concurrency permit is released before sleeping.
func WithPermitReleaseThreshold(d time.Duration) Option {
	return func(c *Client) {
		c.permitReleaseThreshold = d
	}
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		if c.timeout != 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithMetrics enables Prometheus metrics on the default registry.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithRequestIDGenerator overrides the request ID source used in debug
// logs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an
// error if invalid.
func (c *Client) ValidateConfiguration() error {
	var errs []string

	errs = append(errs, c.validateRetryConfig()...)
	errs = append(errs, c.validateGateConfig()...)
	errs = append(errs, c.validateHTTPClientConfig()...)
	errs = append(errs, c.validateExtremeValues()...)

	if len(errs) > 0 {
		return &Error{
			Kind:    KindConfig,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errs),
		}
	}

	return nil
}

func (c *Client) validateRetryConfig() []string {
	var errs []string

	if c.retryCount < 0 {
		errs = append(errs, "retryCount must be non-negative")
	}
	if c.timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}
	if c.maxRetryAfter < 0 {
		errs = append(errs, "maxRetryAfter must be non-negative")
	}
	if c.backoffLimit < 0 {
		errs = append(errs, "backoffLimit must be non-negative")
	}
	if len(c.allowedMethods) == 0 {
		errs = append(errs, "allowedMethods must not be empty")
	}

	return errs
}

func (c *Client) validateGateConfig() []string {
	var errs []string

	if c.sharedGate == nil && c.concurrencyLimit < 1 {
		errs = append(errs, "concurrencyLimit must be at least 1")
	}
	if c.permitReleaseThreshold <= 0 {
		errs = append(errs, "permitReleaseThreshold must be positive")
	}

	return errs
}

func (c *Client) validateHTTPClientConfig() []string {
	var errs []string

	if c.httpClient == nil {
		errs = append(errs, "HTTP client cannot be nil")
	}

	return errs
}

func (c *Client) validateExtremeValues() []string {
	var errs []string

	if c.retryCount > 100 {
		errs = append(errs, "retryCount > 100 may cause excessive resource usage")
	}
	if c.timeout > 10*time.Minute {
		errs = append(errs, "timeout > 10m may cause requests to hang for too long")
	}
	if c.backoffLimit > time.Hour {
		errs = append(errs, "backoffLimit > 1h may cause extremely long delays")
	}

	return errs
}
