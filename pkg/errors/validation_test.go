package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "orders", false},
		{"valid namespaced", "postgres://db:5432/public.orders", false},
		{"valid unicode", "données", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", 513), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidGraph) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidGraph)
			}
		})
	}
}

func TestValidateDirection(t *testing.T) {
	for _, d := range []string{"", "up", "down", "left", "right", "RIGHT"} {
		if err := ValidateDirection(d); err != nil {
			t.Errorf("ValidateDirection(%q) = %v", d, err)
		}
	}
	err := ValidateDirection("diagonal")
	if !Is(err, ErrCodeInvalidDirection) {
		t.Errorf("ValidateDirection(diagonal) = %v, want INVALID_DIRECTION", err)
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat("svg", "svg", "json"); err != nil {
		t.Errorf("svg should be valid: %v", err)
	}
	if err := ValidateFormat("png", "svg", "json"); !Is(err, ErrCodeInvalidFormat) {
		t.Errorf("png should be rejected, got %v", err)
	}
	if err := ValidateFormat("", "svg"); err == nil {
		t.Error("empty format should be rejected")
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "out/graph.svg", false},
		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
