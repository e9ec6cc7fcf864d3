package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node and edge identifiers.
const maxIDLength = 512

// ValidateNodeID validates a node or edge identifier.
//
// Identifiers end up in SVG element ids, DOT source and cache keys, so the
// rules are conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of 512 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidGraph, "id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "id %q contains control characters", id)
		}
	}
	return nil
}

// ValidateDirection validates a layout direction name.
// The empty string is accepted and means the default direction.
func ValidateDirection(dir string) error {
	switch strings.ToLower(dir) {
	case "", "up", "down", "left", "right":
		return nil
	}
	return New(ErrCodeInvalidDirection, "invalid direction %q (want up, down, left or right)", dir)
}

// ValidateFormat validates an output format against the allowed set.
func ValidateFormat(format string, allowed ...string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// ValidatePath validates a relative output path.
// It rejects traversal sequences and control characters.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
