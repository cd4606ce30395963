package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)
	ErrScenarioNotFound = fmt.Errorf("%w: scenario", ErrNotFound)

	// Shape errors
	ErrShape          = errors.New("shape mismatch")
	ErrLengthMismatch = errors.New("length mismatch")
	ErrEmptyInput     = errors.New("empty input")

	// Conversion and argument errors
	ErrTypeConversion  = errors.New("type conversion failed")
	ErrInvalidCoverage = errors.New("coverage must lie strictly between 0 and 1")
	ErrInvalidInput    = errors.New("invalid input")
)

// Error constructors with context
func NewShapeError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}

func NewLengthMismatchError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, want %d", ErrLengthMismatch, what, got, want)
}

func NewTypeConversionError(v interface{}) error {
	return fmt.Errorf("%w: cannot use %T (%v) as a day offset", ErrTypeConversion, v, v)
}

func NewEmptyInputError(what string) error {
	return fmt.Errorf("%w: %s", ErrEmptyInput, what)
}

func NewVariableNotFoundError(name string) error {
	return fmt.Errorf("%w %q", ErrVariableNotFound, name)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports whether err was caused by malformed caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrShape) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrTypeConversion) ||
		errors.Is(err, ErrInvalidCoverage) ||
		errors.Is(err, ErrInvalidInput)
}
