// Package errors provides stable error codes surfaced to the dashboard UI.
package errors

import "fmt"

// ErrorCode is a stable category the UI can map to a banner message.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Store errors
	ErrDatabase         ErrorCode = "DATABASE_ERROR"
	ErrMigration        ErrorCode = "MIGRATION_FAILED"
	ErrOperationPending ErrorCode = "OPERATION_PENDING"
	ErrSubscription     ErrorCode = "SUBSCRIPTION_FAILED"

	// Auth errors, mirroring the sign-in provider's categories
	ErrInvalidEmail        ErrorCode = "AUTH_INVALID_EMAIL"
	ErrUserDisabled        ErrorCode = "AUTH_USER_DISABLED"
	ErrUserNotFound        ErrorCode = "AUTH_USER_NOT_FOUND"
	ErrWrongPassword       ErrorCode = "AUTH_WRONG_PASSWORD"
	ErrWeakPassword        ErrorCode = "AUTH_WEAK_PASSWORD"
	ErrTooManyRequests     ErrorCode = "AUTH_TOO_MANY_REQUESTS"
	ErrRequiresRecentLogin ErrorCode = "AUTH_REQUIRES_RECENT_LOGIN"
	ErrNoSession           ErrorCode = "AUTH_NO_SESSION"
	ErrUnauthorized        ErrorCode = "AUTH_UNAUTHORIZED"
	ErrResetTokenInvalid   ErrorCode = "AUTH_RESET_TOKEN_INVALID"

	// Media errors
	ErrUploadFailed ErrorCode = "UPLOAD_FAILED"
	ErrExportFailed ErrorCode = "EXPORT_FAILED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or ErrInternal for plain errors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}
