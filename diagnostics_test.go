package ng

import (
	"fmt"
	"strings"
	"testing"
)

func TestDiagnosticsCompose(t *testing.T) {
	d := &diagnostics{}
	d.recordAttempt()
	d.recordAttempt()
	d.recordAttempt()
	d.recordStatus(503, []byte(`{"error":"maintenance"}`))
	d.recordError(fmt.Errorf("status 503"))

	err := d.compose("GET", "https://api.example.com/quotes")
	if err.Kind != KindHTTP {
		t.Errorf("Expected KindHTTP, got %s", err.Kind)
	}
	if err.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", err.Attempts)
	}
	if err.Status != 503 {
		t.Errorf("Expected status 503, got %d", err.Status)
	}
	msg := err.Message
	if !strings.Contains(msg, "all 3 attempts failed") {
		t.Errorf("Expected attempt summary in %q", msg)
	}
	if !strings.Contains(msg, "last status 503") {
		t.Errorf("Expected last status in %q", msg)
	}
	if !strings.Contains(msg, "maintenance") {
		t.Errorf("Expected body snippet in %q", msg)
	}
}

func TestDiagnosticsComposeWithoutStatus(t *testing.T) {
	d := &diagnostics{}
	d.recordAttempt()
	d.recordError(fmt.Errorf("connection refused"))

	err := d.compose("GET", "https://api.example.com/quotes")
	if strings.Contains(err.Message, "last status") {
		t.Errorf("Expected no status clause for pure network failures, got %q", err.Message)
	}
	if err.Cause == nil {
		t.Error("Expected the last error carried as cause")
	}
}

func TestSnippetTruncation(t *testing.T) {
	long := strings.Repeat("x", snippetLimit+100)
	got := snippet([]byte(long))
	if len(got) != snippetLimit+len("...[truncated]") {
		t.Errorf("Unexpected snippet length %d", len(got))
	}
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Error("Expected truncation marker")
	}

	short := "short body"
	if snippet([]byte(short)) != short {
		t.Error("Expected short bodies unchanged")
	}
}
