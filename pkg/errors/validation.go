package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxFilenameLength bounds profile filenames accepted from query parameters.
const maxFilenameLength = 500

// weightNameRe matches weight dimension names such as "calls" or "cpu_nanoseconds".
var weightNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]{0,63}$`)

// ValidateFilename validates a profile filename received from a user.
//
// The validation only rejects values that can never name a profile (empty,
// overlong, control characters). Containment inside the data directory is
// checked separately by datadir.Resolve, which is the authoritative guard.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "filename cannot be empty")
	}
	if len(name) > maxFilenameLength {
		return New(ErrCodeInvalidInput, "filename too long (max %d characters)", maxFilenameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "filename contains invalid control characters")
		}
	}
	return nil
}

// ValidateWeightName validates a weight dimension name used in ranking queries.
func ValidateWeightName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "weight name cannot be empty")
	}
	if !weightNameRe.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid weight name: %q", name)
	}
	return nil
}

// ValidateFormat checks that format is one of the allowed output formats.
// The comparison is case-insensitive.
func ValidateFormat(format string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
