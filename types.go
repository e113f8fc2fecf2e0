package ng

import (
	"net/http"

	"github.com/google/uuid"
)

// Option represents a configuration option applied at construction.
type Option func(*Client)

// RetryDecider decides whether a network-level failure should be retried.
// It receives the response when one exists (nil for pure network errors),
// the error, and the 1-based attempt number. A nil decider on the client
// means "always retry".
type RetryDecider interface {
	Decide(resp *http.Response, err error, attempt int) bool
}

// RetryDeciderFunc adapts a plain function to the RetryDecider interface.
type RetryDeciderFunc func(resp *http.Response, err error, attempt int) bool

// Decide implements RetryDecider.
func (f RetryDeciderFunc) Decide(resp *http.Response, err error, attempt int) bool {
	return f(resp, err, attempt)
}

// DebugConfig controls the client's debug instrumentation.
type DebugConfig struct {
	Enabled      bool
	LogRetries   bool
	LogGate      bool
	RequestIDGen func() string
}

// DefaultDebugConfig returns debug settings with all event classes enabled
// and UUID request IDs. Debug output is still off until WithDebug is used.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRetries:   true,
		LogGate:      true,
		RequestIDGen: func() string { return uuid.NewString() },
	}
}

// attemptResult captures one completed HTTP attempt. The body is read
// exactly once into memory regardless of outcome.
type attemptResult struct {
	status  int
	headers http.Header
	body    []byte
	success bool
}
