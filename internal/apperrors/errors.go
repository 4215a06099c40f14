// Package apperrors defines the error taxonomy for the verification driver.
// Failures are classified with sentinel errors so callers can branch on the
// failure class via errors.Is without inspecting message text.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	// ErrDiscovery covers an empty or unreadable unit set, and malformed
	// unit identifiers.
	ErrDiscovery = errors.New("discovery error")

	// ErrGeneration covers a non-zero exit from the external generator.
	ErrGeneration = errors.New("generation failure")

	// ErrTemplate covers unresolved placeholders in a job template or argv.
	ErrTemplate = errors.New("template error")

	// ErrVerification covers a non-zero exit from the model checker.
	ErrVerification = errors.New("verification failure")

	// ErrIO covers unreadable or unwritable artifacts.
	ErrIO = errors.New("io failure")
)

// Error is a structured error carrying the unit and phase it belongs to.
type Error struct {
	Sentinel error  // wrapped sentinel for errors.Is() classification
	Unit     string // unit whose chain failed, empty for batch-level errors
	Phase    string // pipeline phase (discover, generate, render, check)
	Message  string // human-readable message
	Cause    error  // underlying error, may be nil
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause, so that
// errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Sentinel, e.Cause}
	}
	return []error{e.Sentinel}
}

// Discovery creates a batch-level discovery error.
func Discovery(message string) error {
	return &Error{
		Sentinel: ErrDiscovery,
		Phase:    "discover",
		Message:  message,
	}
}

// Generation creates a generation failure for a unit.
func Generation(unit, message string) error {
	return &Error{
		Sentinel: ErrGeneration,
		Unit:     unit,
		Phase:    "generate",
		Message:  message,
	}
}

// Template creates a template error for a unit.
func Template(unit, message string) error {
	return &Error{
		Sentinel: ErrTemplate,
		Unit:     unit,
		Phase:    "render",
		Message:  message,
	}
}

// Verification creates a verification failure for a unit.
func Verification(unit, message string) error {
	return &Error{
		Sentinel: ErrVerification,
		Unit:     unit,
		Phase:    "check",
		Message:  message,
	}
}

// IO creates an io failure wrapping an underlying cause.
func IO(unit, op string, cause error) error {
	return &Error{
		Sentinel: ErrIO,
		Unit:     unit,
		Phase:    "io",
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Cause:    cause,
	}
}
