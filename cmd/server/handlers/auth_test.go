package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/shahriarsany/portfolio/backend/internal/auth"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/models"
)

const adminEmail = "shahriarsany57@gmail.com"

func newAuthRouter(t *testing.T) (*chi.Mux, *auth.Service) {
	t.Helper()
	repo := newTestRepo(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := repo.SaveAdminAccount(&models.AdminAccount{
		Email:        adminEmail,
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	service := auth.NewService(repo, logging.Get(), adminEmail, time.Hour, time.Hour)
	h := NewAuthHandler(service)

	r := chi.NewRouter()
	r.Post("/api/auth/sign-in", h.SignIn)
	r.Post("/api/auth/forgot-password", h.ForgotPassword)
	r.Post("/api/auth/reset-password", h.ResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(service.Middleware)
		r.Get("/api/auth/session", h.Session)
		r.Post("/api/auth/sign-out", h.SignOut)
		r.Post("/api/auth/password", h.ChangePassword)
		r.Patch("/api/auth/profile", h.UpdateProfile)
	})
	return r, service
}

func TestSignInEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/api/auth/sign-in", map[string]string{
		"email":    adminEmail,
		"password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Token == "" || body.Email != adminEmail {
		t.Fatalf("body = %+v", body)
	}

	// The token works against a guarded route.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	sessionRec := httptest.NewRecorder()
	router.ServeHTTP(sessionRec, req)
	if sessionRec.Code != http.StatusOK {
		t.Fatalf("session: status = %d", sessionRec.Code)
	}
	var session struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(sessionRec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.State != string(auth.StateAuthorized) {
		t.Errorf("state = %q", session.State)
	}
}

func TestSignInEndpointWrongPassword(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/api/auth/sign-in", map[string]string{
		"email":    adminEmail,
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "Incorrect password. Please try again." {
		t.Errorf("message = %q", body["message"])
	}
	if body["code"] != "AUTH_WRONG_PASSWORD" {
		t.Errorf("code = %q", body["code"])
	}
}

func TestSignOutEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/api/auth/sign-in", map[string]string{
		"email":    adminEmail,
		"password": "correct-horse",
	})
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-out", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	outRec := httptest.NewRecorder()
	router.ServeHTTP(outRec, req)
	if outRec.Code != http.StatusOK {
		t.Fatalf("sign out: status = %d", outRec.Code)
	}

	// The token is dead now.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	deadRec := httptest.NewRecorder()
	router.ServeHTTP(deadRec, req)
	if deadRec.Code != http.StatusUnauthorized {
		t.Errorf("after sign out: status = %d, want 401", deadRec.Code)
	}
}

func TestResetPasswordEndpoints(t *testing.T) {
	router, service := newAuthRouter(t)

	rec := postJSON(t, router, "/api/auth/forgot-password", map[string]string{"email": adminEmail})
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, leaked := body["token"]; leaked {
		t.Fatal("reset token leaked in response")
	}

	// Mint another token through the service to drive the redeem step.
	token, err := service.RequestPasswordReset(adminEmail)
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	rec = postJSON(t, router, "/api/auth/reset-password", map[string]string{
		"token":        token,
		"new_password": "fresh-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, router, "/api/auth/sign-in", map[string]string{
		"email":    adminEmail,
		"password": "fresh-password",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("sign in after reset: status = %d", rec.Code)
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/api/auth/sign-in", map[string]string{
		"email":    adminEmail,
		"password": "correct-horse",
	})
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{
		"current_password": "correct-horse",
		"new_password":     "changed-password",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/password", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+body.Token)
	changeRec := httptest.NewRecorder()
	router.ServeHTTP(changeRec, req)
	if changeRec.Code != http.StatusOK {
		t.Fatalf("change: status = %d, body %s", changeRec.Code, changeRec.Body.String())
	}

	if rec := postJSON(t, router, "/api/auth/sign-in", map[string]string{
		"email":    adminEmail,
		"password": "changed-password",
	}); rec.Code != http.StatusOK {
		t.Errorf("sign in with new password: status = %d", rec.Code)
	}
}
