package ng

import (
	"net/http"
	"testing"
	"time"
)

func result(status int, retryAfter string) *attemptResult {
	h := http.Header{}
	if retryAfter != "" {
		h.Set("Retry-After", retryAfter)
	}
	return &attemptResult{
		status:  status,
		headers: h,
		success: status >= 200 && status < 300,
	}
}

func TestClassify(t *testing.T) {
	client := New(nil)

	tests := []struct {
		name string
		res  *attemptResult
		want verdict
	}{
		{"2xx accepts", result(200, ""), verdictAccept},
		{"204 accepts", result(204, ""), verdictAccept},
		{"429 with directive", result(429, "2"), verdictRetryAfter},
		{"503 with directive", result(503, "2"), verdictRetryAfter},
		{"429 without directive backs off", result(429, ""), verdictBackoff},
		{"500 ignores directive", result(500, "2"), verdictBackoff},
		{"500 backs off", result(500, ""), verdictBackoff},
		{"404 fails", result(404, ""), verdictFail},
		{"403 fails", result(403, ""), verdictFail},
		{"429 with garbage directive backs off", result(429, "whenever"), verdictBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := client.classify(tt.res)
			if got.verdict != tt.want {
				t.Errorf("classify(%d) = %v, want %v", tt.res.status, got.verdict, tt.want)
			}
		})
	}
}

func TestClassifyRetryAfterDelayIsCapped(t *testing.T) {
	client := New(nil, WithMaxRetryAfter(3*time.Second))
	got := client.classify(result(429, "60"))
	if got.verdict != verdictRetryAfter {
		t.Fatalf("Expected verdictRetryAfter, got %v", got.verdict)
	}
	if got.delay != 3*time.Second {
		t.Errorf("Expected capped delay 3s, got %v", got.delay)
	}
}

func TestClassifyCustomSets(t *testing.T) {
	client := New(nil,
		WithRetryableStatuses(http.StatusTeapot),
		WithRetryAfterStatuses(http.StatusTeapot),
	)

	if got := client.classify(result(418, "1")); got.verdict != verdictRetryAfter {
		t.Errorf("Expected custom retry-after status honored, got %v", got.verdict)
	}
	if got := client.classify(result(500, "")); got.verdict != verdictFail {
		t.Errorf("Expected 500 terminal after replacement, got %v", got.verdict)
	}
}
