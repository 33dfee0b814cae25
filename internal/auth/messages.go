package auth

import "github.com/shahriarsany/portfolio/backend/internal/errors"

// messages maps auth error codes to the banner text shown in the
// dashboard. The wording is part of the admin UI contract and must not
// drift.
var messages = map[errors.ErrorCode]string{
	errors.ErrInvalidEmail:        "The email address is not valid.",
	errors.ErrUserDisabled:        "This user account has been disabled.",
	errors.ErrUserNotFound:        "No user found with this email address.",
	errors.ErrWrongPassword:       "Incorrect password. Please try again.",
	errors.ErrWeakPassword:        "Password is too weak. Use at least 6 characters.",
	errors.ErrTooManyRequests:     "Too many unsuccessful login attempts. Please try again later.",
	errors.ErrRequiresRecentLogin: "This operation requires recent authentication. Please sign in again.",
	errors.ErrNoSession:           "Your session has expired. Please sign in again.",
	errors.ErrUnauthorized:        "You do not have access to the admin panel.",
	errors.ErrResetTokenInvalid:   "This password reset link is invalid or has expired.",
}

// Message returns the user-facing text for an auth error. Unmapped
// errors fall back to a generic line so internals never leak to the
// login form.
func Message(err error) string {
	if msg, ok := messages[errors.CodeOf(err)]; ok {
		return msg
	}
	return "An unexpected error occurred. Please try again."
}
