package ng

import "fmt"

// snippetLimit bounds stored body snippets.
const snippetLimit = 1024

// diagnostics accumulates cross-attempt state for one logical call. It is
// the only place diagnostic information crosses attempt boundaries; on
// final exhaustion without success it composes one enriched error.
type diagnostics struct {
	lastStatus  int
	lastSnippet string
	attempts    int
	lastErr     error
}

func (d *diagnostics) recordAttempt() {
	d.attempts++
}

func (d *diagnostics) recordStatus(status int, body []byte) {
	d.lastStatus = status
	d.lastSnippet = snippet(body)
}

func (d *diagnostics) recordError(err error) {
	d.lastErr = err
}

// compose builds the terminal error for a call that exhausted every attempt
// without success.
func (d *diagnostics) compose(method, url string) *Error {
	msg := fmt.Sprintf("all %d attempts failed", d.attempts)
	if d.lastStatus > 0 {
		msg = fmt.Sprintf("%s, last status %d", msg, d.lastStatus)
	}
	if d.lastSnippet != "" {
		msg = fmt.Sprintf("%s, last body %q", msg, d.lastSnippet)
	}
	return &Error{
		Kind:     KindHTTP,
		Message:  msg,
		Cause:    d.lastErr,
		Method:   method,
		URL:      url,
		Status:   d.lastStatus,
		Attempts: d.attempts,
	}
}

// snippet returns a length-bounded copy of a response body for diagnostics.
func snippet(body []byte) string {
	if len(body) > snippetLimit {
		return string(body[:snippetLimit]) + "...[truncated]"
	}
	return string(body)
}
