package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error code
type ErrorCode string

const (
	// Validation errors
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Store errors
	CodePersistence     ErrorCode = "PERSISTENCE_ERROR"
	CodeStoreConnection ErrorCode = "STORE_CONNECTION_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"

	// Upstream fetch failure kinds. Adapters attach exactly one of these so
	// the selection engine can map failures to display reasons without
	// inspecting error text.
	CodeSourceNotFound ErrorCode = "SOURCE_NOT_FOUND"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeEmptyResult    ErrorCode = "EMPTY_RESULT"
	CodeMissingConfig  ErrorCode = "MISSING_CONFIG"
	CodeUnreachable    ErrorCode = "SERVICE_UNREACHABLE"
	CodeRateLimited    ErrorCode = "RATE_LIMITED"

	// Selection engine outcomes
	CodeNoCandidates  ErrorCode = "NO_CANDIDATES"
	CodePoolExhausted ErrorCode = "POOL_EXHAUSTED"

	// Config errors
	CodeConfig ErrorCode = "CONFIG_ERROR"

	// Internal errors
	CodeInternal ErrorCode = "INTERNAL_ERROR"
	CodeUnknown  ErrorCode = "UNKNOWN_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// PersistenceError creates a store persistence error
func PersistenceError(message string, err error) *AppError {
	return Wrap(err, CodePersistence, message)
}

// FetchError creates an upstream fetch error carrying its failure kind
func FetchError(provider string, code ErrorCode, message string, err error) *AppError {
	appErr := &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
	return appErr.WithContext("provider", provider)
}

// ConfigError creates a configuration error
func ConfigError(message string, err error) *AppError {
	if err != nil {
		return Wrap(err, CodeConfig, message)
	}
	return New(CodeConfig, message)
}

// NotFoundError creates a not found error for a stored resource
func NotFoundError(resource, identifier string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, identifier))
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeValidation || appErr.Code == CodeInvalidInput
	}
	return false
}

// IsNotFound checks if an error is a stored-resource not-found error
func IsNotFound(err error) bool {
	return GetErrorCode(err) == CodeNotFound
}

// IsRetryable determines if an upstream error is worth retrying
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeUnreachable, CodeRateLimited, CodeStoreConnection:
			return true
		}
	}
	return false
}
