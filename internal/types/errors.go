package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for engine errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Database error codes
const (
	DB_OPEN_FAILED        ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED   ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED       ErrorCode = "DB_QUERY_FAILED"
	DB_CONSTRAINT_FAILED  ErrorCode = "DB_CONSTRAINT_FAILED"
)

// Plan error codes
const (
	PLAN_NOT_FOUND        ErrorCode = "PLAN_NOT_FOUND"
	PLAN_INVALID          ErrorCode = "PLAN_INVALID"
	PLAN_NOT_APPROVED     ErrorCode = "PLAN_NOT_APPROVED"
	PLAN_REVISION_LIMIT   ErrorCode = "PLAN_REVISION_LIMIT"
	SUGGESTION_NOT_FOUND  ErrorCode = "SUGGESTION_NOT_FOUND"
)

// Execution error codes
const (
	EXECUTION_NOT_FOUND     ErrorCode = "EXECUTION_NOT_FOUND"
	EXECUTION_INVALID_STATE ErrorCode = "EXECUTION_INVALID_STATE"
)

// Generation error codes
const (
	MODEL_CALL_FAILED       ErrorCode = "MODEL_CALL_FAILED"
	MODEL_PARSE_FAILED      ErrorCode = "MODEL_PARSE_FAILED"
	GATE_INSUFFICIENT_INPUT ErrorCode = "GATE_INSUFFICIENT_INPUT"
	STORAGE_SAVE_FAILED     ErrorCode = "STORAGE_SAVE_FAILED"
	COPY_GENERATION_FAILED  ErrorCode = "COPY_GENERATION_FAILED"
	QUEUE_SUBMIT_FAILED     ErrorCode = "QUEUE_SUBMIT_FAILED"
)

// ForgeError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints.
type ForgeError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *ForgeError) Is(target error) bool {
	var forgeErr *ForgeError
	if errors.As(target, &forgeErr) {
		return e.Code == forgeErr.Code
	}
	return false
}

// NewError creates a new non-retryable ForgeError with the given code and message.
func NewError(code ErrorCode, message string) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable ForgeError.
// Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *ForgeError {
	return &ForgeError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable ForgeError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	var forgeErr *ForgeError
	if !errors.As(err, &forgeErr) {
		return false
	}
	return forgeErr.Code == code
}

// IsNotFound reports whether err carries a not-found error code. Missing
// records and records owned by a different user are deliberately
// indistinguishable to callers.
func IsNotFound(err error) bool {
	var forgeErr *ForgeError
	if !errors.As(err, &forgeErr) {
		return false
	}
	return forgeErr.Code == PLAN_NOT_FOUND || forgeErr.Code == EXECUTION_NOT_FOUND
}
