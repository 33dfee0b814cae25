// Package handlers provides the REST handlers for the portfolio
// backend: the public site endpoints and the guarded admin panel API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shahriarsany/portfolio/backend/internal/auth"
	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
)

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrInvalid, errors.ErrValidation, errors.ErrInvalidEmail,
		errors.ErrWeakPassword, errors.ErrUploadFailed:
		return http.StatusBadRequest
	case errors.ErrOperationPending:
		return http.StatusConflict
	case errors.ErrWrongPassword, errors.ErrUserNotFound, errors.ErrUserDisabled,
		errors.ErrNoSession, errors.ErrRequiresRecentLogin, errors.ErrResetTokenInvalid:
		return http.StatusUnauthorized
	case errors.ErrUnauthorized:
		return http.StatusForbidden
	case errors.ErrTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("failed to encode response", err)
	}
}

// writeError renders an error envelope. Auth codes carry the dashboard
// banner text; everything else uses the error's own message.
func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)

	var message string
	if strings.HasPrefix(string(code), "AUTH_") {
		message = auth.Message(err)
	} else if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	} else {
		message = "internal error"
	}

	writeJSON(w, statusFor(code), map[string]string{
		"code":    string(code),
		"message": message,
	})
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(errors.ErrInvalid, "invalid request body", err)
	}
	return nil
}
