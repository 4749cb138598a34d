// Package errors defines the application error taxonomy and its HTTP mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error
type ErrorType string

const (
	TypeValidation ErrorType = "validation_error"
	TypeNotFound   ErrorType = "not_found"
	TypeConflict   ErrorType = "conflict"
	TypeForbidden  ErrorType = "forbidden"
	TypeStorage    ErrorType = "storage_error"
	TypeInternal   ErrorType = "internal_error"
)

// Common error codes
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeForbidden          = "FORBIDDEN"
	CodeStorage            = "STORAGE_ERROR"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is the error returned by repositories and services
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry on its next cycle
func (e *AppError) Retryable() bool {
	return e.Type == TypeStorage
}

// WithDetail attaches a detail entry and returns the same error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Validation reports a missing or malformed input
func Validation(message string) *AppError {
	return &AppError{
		Type:    TypeValidation,
		Code:    CodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// MissingField reports a required identifier that was not supplied
func MissingField(field string) *AppError {
	return Validation(fmt.Sprintf("%s is required", field)).WithDetail("field", field)
}

// NotFound reports a referenced resource that does not exist
func NotFound(resource string, id interface{}) *AppError {
	return &AppError{
		Type:    TypeNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]interface{}{"resource": resource, "id": id},
		Status:  http.StatusNotFound,
	}
}

// Conflict reports a write that collides with existing state
func Conflict(message string) *AppError {
	return &AppError{
		Type:    TypeConflict,
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// Forbidden reports a write rejected by a relation between users
func Forbidden(message string) *AppError {
	return &AppError{
		Type:    TypeForbidden,
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// Storage wraps a failed statement
func Storage(op string, err error) *AppError {
	return &AppError{
		Type:    TypeStorage,
		Code:    CodeStorage,
		Message: fmt.Sprintf("storage operation %s failed", op),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// StorageUnavailable wraps a failure to reach the store at all
func StorageUnavailable(op string, err error) *AppError {
	return &AppError{
		Type:    TypeStorage,
		Code:    CodeStorageUnavailable,
		Message: fmt.Sprintf("storage unavailable during %s", op),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Internal reports an unexpected failure outside the taxonomy
func Internal(message string, err error) *AppError {
	return &AppError{
		Type:    TypeInternal,
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// As extracts an *AppError from err
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an *AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool { return IsType(err, TypeNotFound) }

// IsValidation reports whether err is a Validation error
func IsValidation(err error) bool { return IsType(err, TypeValidation) }

// StatusOf returns the HTTP status for err, 500 for unknown errors
func StatusOf(err error) int {
	if appErr, ok := As(err); ok && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
