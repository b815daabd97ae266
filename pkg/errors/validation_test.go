package errors

import (
	"strings"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "profile-2024.out", false},
		{"nested", "web/requests.out", false},
		{"traversal is left to Resolve", "../x", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateFilename(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateWeightName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"calls", "calls", false},
		{"pprof type", "cpu", false},
		{"underscore", "alloc_space", false},
		{"dotted", "wall.ns", false},

		{"empty", "", true},
		{"leading digit", "1calls", true},
		{"space", "cpu time", true},
		{"too long", strings.Repeat("w", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeightName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWeightName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	allowed := []string{"json", "dot", "svg"}

	if err := ValidateFormat("SVG", allowed); err != nil {
		t.Errorf("ValidateFormat(SVG) error = %v, want nil", err)
	}
	err := ValidateFormat("png", allowed)
	if err == nil {
		t.Fatal("ValidateFormat(png) should fail")
	}
	if !Is(err, ErrCodeInvalidFormat) {
		t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidFormat)
	}
}
