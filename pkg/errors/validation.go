package errors

import (
	"math"
	"unicode"
)

// maxIdentifierLength bounds node, edge and attribute identifiers.
const maxIdentifierLength = 512

// ValidateIdentifier validates a node, edge or attribute identifier arriving
// from outside the process (interchange files, HTTP requests).
//
// The rules are:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 512 bytes
//
// kind names the identifier in the error message ("node", "edge", ...).
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIdentifierLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}

	return nil
}

// ValidateTime rejects NaN time stamps. Infinite values are allowed because
// unbounded presence intervals are legal.
func ValidateTime(t float64) error {
	if math.IsNaN(t) {
		return New(ErrCodeInvalidInput, "time must be a number")
	}
	return nil
}

// ValidatePositive checks that a tuning value is finite and strictly positive.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidOption, "%s must be a positive number, got %v", name, v)
	}
	return nil
}

// ValidateRatio checks that v lies in the half-open range (0, 1].
func ValidateRatio(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v > 1 {
		return New(ErrCodeInvalidOption, "%s must be in (0, 1], got %v", name, v)
	}
	return nil
}
