package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedProfile, "unexpected %s", "token")

	if err.Code != ErrCodeMalformedProfile {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedProfile)
	}

	if err.Message != "unexpected token" {
		t.Errorf("Message = %v, want %v", err.Message, "unexpected token")
	}

	expected := "MALFORMED_PROFILE: unexpected token"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeIO, cause, "failed to read")

	if err.Code != ErrCodeIO {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeIO)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodePathEscape, "test"),
			code:     ErrCodePathEscape,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodePathEscape, "test"),
			code:     ErrCodeIO,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      fmt.Errorf("load: %w", New(ErrCodeMalformedProfile, "inner")),
			code:     ErrCodeMalformedProfile,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeFileNotFound, "test"),
			expected: ErrCodeFileNotFound,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFromFS(t *testing.T) {
	if FromFS(nil, "x") != nil {
		t.Error("FromFS(nil) should be nil")
	}

	missing := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}
	err := FromFS(missing, "x")
	if !Is(err, ErrCodeFileNotFound) {
		t.Errorf("code = %v, want %v", GetCode(err), ErrCodeFileNotFound)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is(err, fs.ErrNotExist) = false, want true")
	}

	denied := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}
	if got := GetCode(FromFS(denied, "x")); got != ErrCodeIO {
		t.Errorf("code = %v, want %v", got, ErrCodeIO)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{New(ErrCodePathEscape, "x"), http.StatusForbidden},
		{New(ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeMalformedProfile, "x"), http.StatusUnprocessableEntity},
		{New(ErrCodeIO, "x"), http.StatusInternalServerError},
		{New(ErrCodeInternal, "x"), http.StatusInternalServerError},
		{New(Code("UNSUPPORTED"), "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
