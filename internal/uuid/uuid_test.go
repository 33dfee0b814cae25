// Package uuid tests for UUID generation and validation.
package uuid

import "testing"

// TestNew verifies generated UUIDs are valid v4 and unique.
func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		if !IsValid(id) {
			t.Fatalf("New() produced invalid UUID v4: %q", id)
		}
		if seen[id] {
			t.Fatalf("New() produced duplicate UUID: %q", id)
		}
		seen[id] = true
	}
}

// TestIsValid verifies format validation.
func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid lowercase", "6ba7b810-9dad-41d1-80b4-00c04fd430c8", true},
		{"valid uppercase", "6BA7B810-9DAD-41D1-80B4-00C04FD430C8", true},
		{"empty", "", false},
		{"missing dashes", "6ba7b8109dad41d180b400c04fd430c8", false},
		{"wrong version", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"wrong variant", "6ba7b810-9dad-41d1-00b4-00c04fd430c8", false},
		{"too short", "6ba7b810-9dad-41d1-80b4", false},
		{"garbage", "not-a-uuid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.input); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

// TestValidate verifies the error form of validation.
func TestValidate(t *testing.T) {
	if err := Validate(New()); err != nil {
		t.Errorf("Validate(New()) = %v, want nil", err)
	}
	if err := Validate("bogus"); err == nil {
		t.Error("Validate(\"bogus\") = nil, want error")
	}
}
