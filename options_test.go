package ng

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestValidateConfigurationDefaults(t *testing.T) {
	client := New(nil)
	if err := client.ValidateConfiguration(); err != nil {
		t.Errorf("Expected default configuration to validate, got %v", err)
	}
}

func TestValidateConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
	}{
		{"negative retry count", []Option{WithRetryCount(-1)}},
		{"negative timeout", []Option{WithTimeout(-time.Second)}},
		{"negative max retry after", []Option{WithMaxRetryAfter(-time.Second)}},
		{"negative backoff limit", []Option{WithBackoffLimit(-time.Second)}},
		{"zero concurrency", []Option{WithConcurrencyLimit(0)}},
		{"empty allowed methods", []Option{WithAllowedMethods()}},
		{"zero release threshold", []Option{WithPermitReleaseThreshold(0)}},
		{"nil http client", []Option{WithHTTPClient(nil)}},
		{"extreme retry count", []Option{WithRetryCount(101)}},
		{"extreme timeout", []Option{WithTimeout(11 * time.Minute)}},
		{"extreme backoff limit", []Option{WithBackoffLimit(2 * time.Hour)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(nil, tt.options...)
			if client.IsValid() {
				t.Fatal("Expected configuration to be invalid")
			}
			var clientErr *Error
			if !errors.As(client.ValidationError(), &clientErr) || clientErr.Kind != KindConfig {
				t.Errorf("Expected KindConfig error, got %v", client.ValidationError())
			}
		})
	}
}

func TestWithHTTPClientNilFailsValidationInsteadOfPanicking(t *testing.T) {
	client := New(nil, WithHTTPClient(nil))
	if client.IsValid() {
		t.Error("Expected nil HTTP client to fail validation")
	}
}

func TestSharedGateSkipsLocalLimitValidation(t *testing.T) {
	gate := NewGate(4)
	client := New(nil, WithSharedGate(gate), WithConcurrencyLimit(0))
	if !client.IsValid() {
		t.Errorf("Shared gate should make the local limit irrelevant, got %v", client.ValidationError())
	}
}

func TestWithRetryableStatusesReplacesSet(t *testing.T) {
	client := New(nil, WithRetryableStatuses(http.StatusTeapot))
	if _, ok := client.retryableStatuses[http.StatusTeapot]; !ok {
		t.Error("Expected 418 in replaced set")
	}
	if _, ok := client.retryableStatuses[http.StatusInternalServerError]; ok {
		t.Error("Expected defaults to be gone after replacement")
	}
}

func TestWithTimeoutPropagatesToHTTPClient(t *testing.T) {
	client := New(nil, WithTimeout(3*time.Second))
	if client.httpClient.Timeout != 3*time.Second {
		t.Errorf("Expected http.Client timeout 3s, got %v", client.httpClient.Timeout)
	}
}

func TestWithTimeoutZeroRemovesAttemptBound(t *testing.T) {
	client := New(nil, WithTimeout(0))
	if !client.IsValid() {
		t.Fatalf("Expected zero timeout to validate, got %v", client.ValidationError())
	}
	if client.httpClient.Timeout != 0 {
		t.Errorf("Expected unbounded http.Client timeout, got %v", client.httpClient.Timeout)
	}
}

func TestWithDebugEnablesRequestIDs(t *testing.T) {
	client := New(nil, WithDebug())
	if client.debug == nil || !client.debug.Enabled {
		t.Fatal("Expected debug enabled")
	}
	if client.debug.RequestIDGen == nil {
		t.Fatal("Expected a default request ID generator")
	}
	if id := client.debug.RequestIDGen(); id == "" {
		t.Error("Expected non-empty request ID")
	}
}

func TestWithRequestIDGeneratorOverride(t *testing.T) {
	client := New(nil, WithRequestIDGenerator(func() string { return "fixed" }))
	if got := client.debug.RequestIDGen(); got != "fixed" {
		t.Errorf("Expected overridden generator, got %q", got)
	}
}
