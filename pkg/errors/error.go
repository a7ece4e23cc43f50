// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, signals, orders, configs
//   - Market data errors (200-299): Stale ticks, unknown symbols, feed failures
//   - Signal errors (300-399): Expired signals, strategy lookup and evaluation
//   - Risk errors (400-499): Gate rejections, halt state, capacity limits
//   - Position and order errors (500-599): Lifecycle, fills, broker failures
//   - Invariant violations (600-699): Programming errors, always fatal
//   - Engine errors (700-799): Initialization and wiring errors
//   - Audit store errors (800-899): Persistence failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeStaleTick, "tick older than stored snapshot")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeUnknownSymbol, "symbol %s not registered", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeAuditWriteFailed, "failed to persist decision", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeRiskHalted) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsRiskRejection reports whether the error carries one of the risk gate
// rejection codes. Rejections are terminal for the signal that produced them.
func IsRiskRejection(err error) bool {
	switch GetCode(err) {
	case ErrCodeRiskHalted, ErrCodeRiskConcentration, ErrCodeRiskPositionLimit,
		ErrCodeRiskDailyLoss, ErrCodeRiskBudget, ErrCodeSignalExpired:
		return true
	default:
		return false
	}
}

// InvariantViolationError represents a broken internal invariant, for example a
// mismatch between the risk gate's open-position count and the position
// manager's non-terminal positions. It is always fatal to the affected
// subsystem and must never be swallowed.
type InvariantViolationError struct {
	Subsystem string // Component that detected the violation
	Message   string // Human-readable description
}

// NewInvariantViolation creates a new InvariantViolationError.
func NewInvariantViolation(subsystem, message string) *InvariantViolationError {
	return &InvariantViolationError{
		Subsystem: subsystem,
		Message:   message,
	}
}

// NewInvariantViolationf creates a new InvariantViolationError with a formatted message.
func NewInvariantViolationf(subsystem, format string, args ...any) *InvariantViolationError {
	return &InvariantViolationError{
		Subsystem: subsystem,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Subsystem, e.Message)
}

// IsInvariantViolation checks if an error is an InvariantViolationError.
// It uses errors.As to check the error chain.
func IsInvariantViolation(err error) bool {
	var invariantErr *InvariantViolationError

	return errors.As(err, &invariantErr)
}
