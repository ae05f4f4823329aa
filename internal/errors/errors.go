package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigError indicates the run could not be configured (no standard, no theme)
	ConfigError ErrorCode = "CONFIG_ERROR"
	// FileReadError indicates a single file could not be read; never fatal
	FileReadError ErrorCode = "FILE_READ_ERROR"
	// EngineFatal indicates the rule engine could not start or complete
	EngineFatal ErrorCode = "ENGINE_FATAL"
	// UnknownStandard indicates a selected standard id has no registry entry
	UnknownStandard ErrorCode = "UNKNOWN_STANDARD"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// SniffError represents a themesniff error with a stable code
type SniffError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a new SniffError
func New(code ErrorCode, message string, cause error) *SniffError {
	return &SniffError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a SniffError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *SniffError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *SniffError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SniffError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SniffError) WithDetails(details interface{}) *SniffError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first SniffError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var se *SniffError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsFatal reports whether err aborts a whole run.
func IsFatal(code ErrorCode) bool {
	switch code {
	case ConfigError, EngineFatal, InternalError:
		return true
	default:
		return false
	}
}
