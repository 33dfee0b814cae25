package handlers

import (
	"net/http"
	"strings"

	"github.com/shahriarsany/portfolio/backend/internal/auth"
	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
)

// AuthHandler serves sign-in, sign-out, password management and the
// profile endpoints.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignIn handles POST /api/auth/sign-in.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	token, session, err := h.service.SignIn(strings.TrimSpace(request.Email), request.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"email":      session.Email,
		"expires_at": session.ExpiresAt,
	})
}

// SignOut handles POST /api/auth/sign-out.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, errors.New(errors.ErrNoSession, "not signed in"))
		return
	}
	token := bearerFromRequest(r)
	if err := h.service.SignOut(token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Session handles GET /api/auth/session: the dashboard polls this on
// load to leave its pre-resolution state.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, errors.New(errors.ErrNoSession, "not signed in"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":      string(h.service.Resolve(session)),
		"email":      session.Email,
		"expires_at": session.ExpiresAt,
	})
}

// ForgotPassword handles POST /api/auth/forgot-password. The raw token
// is logged for the mail path; the response never carries it.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.service.RequestPasswordReset(strings.TrimSpace(request.Email))
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Info("password reset token issued", map[string]interface{}{"token": token})
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset email sent"})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ResetPassword(request.Token, request.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

// ChangePassword handles POST /api/auth/password (guarded).
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, errors.New(errors.ErrNoSession, "not signed in"))
		return
	}

	var request struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ChangePassword(session, request.CurrentPassword, request.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// UpdateProfile handles PATCH /api/auth/profile (guarded).
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, errors.New(errors.ErrNoSession, "not signed in"))
		return
	}

	var request struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.service.UpdateProfile(session, strings.TrimSpace(request.DisplayName))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// bearerFromRequest mirrors the guard's token extraction for the
// sign-out path.
func bearerFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}
