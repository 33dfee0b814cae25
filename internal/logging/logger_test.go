// Package logging tests for the structured logger.
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(min LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Logger{out: buf, minLevel: min}, buf
}

// TestLogger_LevelFiltering verifies entries below the minimum level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Fatalf("entries below WARN were written: %s", buf.String())
	}

	logger.Warn("warn message")
	logger.Error("error message", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d entries, want 2", len(lines))
	}
}

// TestLogger_EntryShape verifies the JSON structure of entries.
func TestLogger_EntryShape(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug)

	logger.Error("delete failed", errors.New("not found"), map[string]interface{}{
		"collection": "contacts",
		"id":         "abc",
	})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not valid JSON: %v", err)
	}
	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Message != "delete failed" {
		t.Errorf("Message = %q", entry.Message)
	}
	if entry.Error != "not found" {
		t.Errorf("Error = %q", entry.Error)
	}
	if entry.Context["collection"] != "contacts" {
		t.Errorf("Context[collection] = %v", entry.Context["collection"])
	}
	if entry.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
}

// TestLogger_ContextMerge verifies multiple context maps are merged.
func TestLogger_ContextMerge(t *testing.T) {
	merged := mergeContext(
		map[string]interface{}{"a": 1},
		map[string]interface{}{"b": 2},
	)
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("mergeContext = %v", merged)
	}

	if mergeContext() != nil {
		t.Error("mergeContext() with no args should be nil")
	}
}

// TestParseLevel verifies level parsing with the INFO fallback.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
