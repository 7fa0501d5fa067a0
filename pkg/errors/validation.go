package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDatasetName validates a dataset namespace name such as "EdgeIndex".
// Names become key segments in every store backend, so they must not contain
// separators or anything that could escape the checkpoint root:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateDatasetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "dataset name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "dataset name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "dataset name contains invalid control characters")
		}
	}

	if !datasetNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid dataset name: %q", name)
	}

	return nil
}

var datasetNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateOutputPrefix validates an export file prefix.
//
// Validation rules:
//   - Prefix cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateOutputPrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidPath, "output prefix cannot be empty")
	}

	const maxPathLength = 500
	if len(prefix) > maxPathLength {
		return New(ErrCodeInvalidPath, "output prefix too long (max %d characters)", maxPathLength)
	}

	for _, r := range prefix {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output prefix contains invalid characters")
		}
	}

	if strings.Contains(prefix, "..") {
		return New(ErrCodeInvalidPath, "output prefix cannot contain path traversal sequences (..)")
	}

	return nil
}
