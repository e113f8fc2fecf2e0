package ng

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a client failure.
type ErrorKind string

const (
	// KindConfig marks invalid client configuration detected at construction.
	KindConfig ErrorKind = "Config"

	// KindHTTP marks network or transport failures, JSON decode failures on
	// an otherwise successful response, and exhausted retries.
	KindHTTP ErrorKind = "Http"

	// KindInternal marks disallowed methods and internal invariant
	// violations such as a closed admission gate.
	KindInternal ErrorKind = "Internal"
)

// ErrGateClosed is returned when a permit cannot be issued because the
// admission gate's context was cancelled before a slot became free.
var ErrGateClosed = errors.New("ng: admission gate closed")

// Error is the typed error returned by the client. Recoverable
// application-level outcomes (non-2xx after the retry policy ran) are NOT
// represented as an Error; they travel through Response with Success=false.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error

	// Diagnostic context, populated where known.
	Method   string
	URL      string
	Status   int
	Attempts int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s (attempts %d)", msg, e.Attempts)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error kinds for errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Kind == targetErr.Kind
	}
	return false
}

// IsTransient reports whether an error represents a failure that might
// succeed on retry. Network failures and exhausted-retry errors are
// transient; configuration errors, disallowed methods and decode failures
// are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var clientErr *Error
	if errors.As(err, &clientErr) {
		switch clientErr.Kind {
		case KindHTTP:
			// Decode failures on a 2xx body carry the status they decoded
			// from; a malformed success body is not transient.
			return !(clientErr.Status >= 200 && clientErr.Status < 300)
		default:
			return false
		}
	}

	return false
}
