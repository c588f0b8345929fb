package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for syntheseus errors.
type ErrorCode string

// Graph error codes
const (
	CYCLE_DETECTED   ErrorCode = "CYCLE_DETECTED"
	MOLECULE_INVALID ErrorCode = "MOLECULE_INVALID"
)

// Prediction error codes
const (
	PREDICTION_UNAVAILABLE ErrorCode = "PREDICTION_UNAVAILABLE"
	PREDICTION_MALFORMED   ErrorCode = "PREDICTION_MALFORMED"
)

// Search error codes
const (
	SEARCH_BUDGET_INVALID   ErrorCode = "SEARCH_BUDGET_INVALID"
	SEARCH_STRATEGY_UNKNOWN ErrorCode = "SEARCH_STRATEGY_UNKNOWN"
	NO_ROUTE_FOUND          ErrorCode = "NO_ROUTE_FOUND"
)

// Inventory error codes
const (
	INVENTORY_OPEN_FAILED  ErrorCode = "INVENTORY_OPEN_FAILED"
	INVENTORY_QUERY_FAILED ErrorCode = "INVENTORY_QUERY_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// SynthError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type SynthError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *SynthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *SynthError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a SynthError with the same Code.
func (e *SynthError) Is(target error) bool {
	var synthErr *SynthError
	if errors.As(target, &synthErr) {
		return e.Code == synthErr.Code
	}
	return false
}

// NewError creates a new non-retryable SynthError with the given code and message.
func NewError(code ErrorCode, message string) *SynthError {
	return &SynthError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable SynthError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., predictor timeouts).
func NewRetryableError(code ErrorCode, message string) *SynthError {
	return &SynthError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable SynthError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *SynthError {
	return &SynthError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError creates a new retryable SynthError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *SynthError {
	return &SynthError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether err (or any error in its chain) is a retryable SynthError.
func IsRetryable(err error) bool {
	var synthErr *SynthError
	if errors.As(err, &synthErr) {
		return synthErr.Retryable
	}
	return false
}

// CodeOf returns the error code of err if it is a SynthError, or an empty code otherwise.
func CodeOf(err error) ErrorCode {
	var synthErr *SynthError
	if errors.As(err, &synthErr) {
		return synthErr.Code
	}
	return ""
}
