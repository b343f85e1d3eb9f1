package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data or a rejected state change.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data. Never reaches the network.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeAuth indicates the platform rejected the access token (HTTP 401).
	ErrCodeAuth ErrorCode = "auth"
	// ErrCodeRefreshFailed indicates the access token could not be renewed; the session is gone.
	ErrCodeRefreshFailed ErrorCode = "refresh_failed"
	// ErrCodeNetwork indicates the platform could not be reached.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeServer indicates the platform answered with a 5xx.
	ErrCodeServer ErrorCode = "server"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// GenericRetryMessage is shown for network and server failures.
const GenericRetryMessage = "Something went wrong. Please try again."

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
	// Status is the upstream HTTP status when the error came from the platform API (optional)
	Status int
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newf(code ErrorCode, format string, args ...any) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{Code: code, Message: msg}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError { return newf(ErrCodeNotFound, message) }

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError { return newf(ErrCodeNotFound, format, args...) }

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError { return newf(ErrCodeConflict, message) }

// Conflictf creates a new Conflict error with formatted message.
func Conflictf(format string, args ...any) *AppError { return newf(ErrCodeConflict, format, args...) }

// Validation creates a new Validation error.
func Validation(message string) *AppError { return newf(ErrCodeValidation, message) }

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return newf(ErrCodeValidation, format, args...)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Auth creates a new Auth error.
func Auth(message string) *AppError { return newf(ErrCodeAuth, message) }

// RefreshFailed wraps the cause of a failed token refresh.
func RefreshFailed(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeRefreshFailed,
		Message: "Your session has expired. Please sign in again.",
		Cause:   cause,
	}
}

// Network wraps a transport failure.
func Network(cause error) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: GenericRetryMessage, Cause: cause}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError { return newf(ErrCodeInternal, message) }

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError { return newf(ErrCodeInternal, format, args...) }

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// FromStatus maps a non-2xx platform response to the error taxonomy.
// 4xx messages are surfaced verbatim; 5xx collapse to the generic retry message.
func FromStatus(status int, message string) *AppError {
	code := ErrCodeConflict
	switch {
	case status == 401:
		code = ErrCodeAuth
	case status == 400 || status == 422:
		code = ErrCodeValidation
	case status == 404:
		code = ErrCodeNotFound
	case status >= 500:
		return &AppError{Code: ErrCodeServer, Message: GenericRetryMessage, Status: status}
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &AppError{Code: code, Message: message, Status: status}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsAuth checks if an error is an Auth error.
func IsAuth(err error) bool { return isCode(err, ErrCodeAuth) }

// IsRefreshFailure checks if the session could not be renewed.
func IsRefreshFailure(err error) bool { return isCode(err, ErrCodeRefreshFailed) }

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool { return isCode(err, ErrCodeNetwork) }

// IsServer checks if an error is a Server error.
func IsServer(err error) bool { return isCode(err, ErrCodeServer) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserMessage returns the text to show an admin for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return GenericRetryMessage
	}
	switch appErr.Code {
	case ErrCodeNetwork, ErrCodeServer, ErrCodeInternal, ErrCodeTimeout:
		return GenericRetryMessage
	default:
		return appErr.Message
	}
}
