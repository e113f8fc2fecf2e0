package ng

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryAfterLayouts are the date forms accepted for Retry-After, tried in
// order after the numeric-seconds form: IMF-fixdate, RFC 2822, RFC 3339.
var retryAfterLayouts = []string{
	http.TimeFormat,
	time.RFC1123Z,
	time.RFC3339,
}

// parseRetryAfter extracts a server-supplied wait directive from response
// headers. It recognizes a non-negative integer (seconds) and the date
// layouts above. Zero seconds and instants in the past both coerce to a
// minimal one-second wait: the server asked for a delay, and that intent is
// preserved even under clock skew. An absent or unparseable header returns
// ok=false so the caller falls back to computed backoff.
func parseRetryAfter(headers http.Header) (time.Duration, bool) {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	value = strings.TrimSpace(value)

	if secs, err := strconv.ParseUint(value, 10, 64); err == nil {
		if secs == 0 {
			secs = 1
		}
		return time.Duration(secs) * time.Second, true
	}

	for _, layout := range retryAfterLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		secs := int64(time.Until(t).Seconds())
		if secs < 1 {
			secs = 1
		}
		return time.Duration(secs) * time.Second, true
	}

	return 0, false
}

// capRetryAfter bounds a server-supplied wait by maxRetryAfter and then by
// backoffLimit; the tighter ceiling wins.
func (c *Client) capRetryAfter(d time.Duration) time.Duration {
	if c.maxRetryAfter > 0 && d > c.maxRetryAfter {
		d = c.maxRetryAfter
	}
	if c.backoffLimit > 0 && d > c.backoffLimit {
		d = c.backoffLimit
	}
	return d
}
