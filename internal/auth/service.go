// Package auth implements admin sign-in, sessions, password management
// and the route guard for the admin panel.
package auth

import (
	"net/mail"
	"sync"
	"time"

	"github.com/shahriarsany/portfolio/backend/internal/crypto"
	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Failed sign-in throttling.
const (
	maxFailedAttempts = 5
	lockoutWindow     = 15 * time.Minute
)

// Passwords shorter than this are rejected at change and reset.
const minPasswordLength = 6

// Sessions older than this cannot authorize a password change; the
// admin has to sign in again first.
const recentLoginWindow = 5 * time.Minute

// Store is the persistence surface the service needs.
type Store interface {
	GetAdminAccount(email string) (*models.AdminAccount, error)
	SaveAdminAccount(a *models.AdminAccount) error
	CreateSession(s *models.Session) error
	GetSessionByTokenHash(tokenHash string) (*models.Session, error)
	DeleteSession(tokenHash string) error
	DeleteSessionsForEmail(email string) error
	CreateResetToken(t *models.ResetToken) error
	GetResetToken(tokenHash string) (*models.ResetToken, error)
	MarkResetTokenUsed(tokenHash string) error
}

// failureRecord tracks consecutive failed sign-ins for one email.
type failureRecord struct {
	count       int
	lockedUntil time.Time
}

// Service implements sign-in, sessions and password management for the
// single admin account.
type Service struct {
	store      Store
	logger     *logging.Logger
	adminEmail string
	sessionTTL time.Duration
	resetTTL   time.Duration

	mu       sync.Mutex
	failures map[string]*failureRecord

	watchMu  sync.Mutex
	watchers map[int]chan State
	nextID   int
	state    State
}

// NewService creates the auth service.
func NewService(store Store, logger *logging.Logger, adminEmail string, sessionTTL, resetTTL time.Duration) *Service {
	return &Service{
		store:      store,
		logger:     logger,
		adminEmail: adminEmail,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		failures:   make(map[string]*failureRecord),
		watchers:   make(map[int]chan State),
		state:      StateUnknown,
	}
}

// AdminEmail returns the email authorized for the admin panel.
func (s *Service) AdminEmail() string {
	return s.adminEmail
}

// SignIn verifies credentials and opens a session. The returned token
// is the only copy of the raw credential; the store keeps its digest.
func (s *Service) SignIn(email, password string) (string, *models.Session, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return "", nil, errors.New(errors.ErrInvalidEmail, "malformed email address")
	}
	if err := s.checkLockout(email); err != nil {
		return "", nil, err
	}

	account, err := s.store.GetAdminAccount(email)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			s.recordFailure(email)
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		s.recordFailure(email)
		s.logger.Warn("sign-in rejected", map[string]interface{}{"email": email})
		return "", nil, errors.New(errors.ErrWrongPassword, "password mismatch")
	}
	s.clearFailures(email)

	token, err := crypto.NewToken()
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInternal, "failed to mint session token", err)
	}
	session := &models.Session{
		Email:     account.Email,
		TokenHash: crypto.HashToken(token),
		ExpiresAt: time.Now().Add(s.sessionTTL).Unix(),
	}
	if err := s.store.CreateSession(session); err != nil {
		return "", nil, err
	}

	s.logger.Info("admin signed in", map[string]interface{}{"email": account.Email})
	s.publish(s.Resolve(session))
	return token, session, nil
}

// SignOut closes the session for a raw token. Unknown tokens are a
// no-op so sign-out is idempotent.
func (s *Service) SignOut(token string) error {
	if err := s.store.DeleteSession(crypto.HashToken(token)); err != nil {
		return err
	}
	s.publish(StateUnauthenticated)
	return nil
}

// SessionFor resolves a raw token to its live session. Expired
// sessions are removed on sight.
func (s *Service) SessionFor(token string) (*models.Session, error) {
	if token == "" {
		return nil, errors.New(errors.ErrNoSession, "no session token")
	}
	session, err := s.store.GetSessionByTokenHash(crypto.HashToken(token))
	if err != nil {
		return nil, err
	}
	if session.Expired() {
		_ = s.store.DeleteSession(session.TokenHash)
		return nil, errors.New(errors.ErrNoSession, "session expired")
	}
	return session, nil
}

// ChangePassword sets a new password after re-verifying the current
// one. Sessions older than the recent-login window are refused, and
// every session is closed on success so the new password takes effect
// everywhere.
func (s *Service) ChangePassword(session *models.Session, currentPassword, newPassword string) error {
	if time.Since(time.Unix(session.CreatedAt, 0)) > recentLoginWindow {
		return errors.New(errors.ErrRequiresRecentLogin, "session too old for password change")
	}
	if len(newPassword) < minPasswordLength {
		return errors.New(errors.ErrWeakPassword, "password below minimum length")
	}

	account, err := s.store.GetAdminAccount(session.Email)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)) != nil {
		return errors.New(errors.ErrWrongPassword, "current password mismatch")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to hash password", err)
	}
	account.PasswordHash = string(hash)
	if err := s.store.SaveAdminAccount(account); err != nil {
		return err
	}
	if err := s.store.DeleteSessionsForEmail(account.Email); err != nil {
		return err
	}

	s.logger.Info("admin password changed", map[string]interface{}{"email": account.Email})
	s.publish(StateUnauthenticated)
	return nil
}

// UpdateProfile changes the display name on the account.
func (s *Service) UpdateProfile(session *models.Session, displayName string) (*models.AdminAccount, error) {
	account, err := s.store.GetAdminAccount(session.Email)
	if err != nil {
		return nil, err
	}
	account.DisplayName = displayName
	account.Touch()
	if err := s.store.SaveAdminAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// RequestPasswordReset mints a single-use reset token for the account.
// The raw token goes out through the mail path; the store keeps its
// digest.
func (s *Service) RequestPasswordReset(email string) (string, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New(errors.ErrInvalidEmail, "malformed email address")
	}
	account, err := s.store.GetAdminAccount(email)
	if err != nil {
		return "", err
	}

	token, err := crypto.NewToken()
	if err != nil {
		return "", errors.Wrap(errors.ErrInternal, "failed to mint reset token", err)
	}
	reset := &models.ResetToken{
		Email:     account.Email,
		TokenHash: crypto.HashToken(token),
		ExpiresAt: time.Now().Add(s.resetTTL).Unix(),
	}
	if err := s.store.CreateResetToken(reset); err != nil {
		return "", err
	}

	s.logger.Info("password reset requested", map[string]interface{}{"email": account.Email})
	return token, nil
}

// ResetPassword redeems a reset token for a new password. The token is
// consumed first so a raced second redeem fails even if the password
// write does not complete.
func (s *Service) ResetPassword(token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errors.New(errors.ErrWeakPassword, "password below minimum length")
	}

	reset, err := s.store.GetResetToken(crypto.HashToken(token))
	if err != nil {
		return err
	}
	if !reset.Usable() {
		return errors.New(errors.ErrResetTokenInvalid, "reset token expired or already used")
	}
	if err := s.store.MarkResetTokenUsed(reset.TokenHash); err != nil {
		return err
	}

	account, err := s.store.GetAdminAccount(reset.Email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to hash password", err)
	}
	account.PasswordHash = string(hash)
	if err := s.store.SaveAdminAccount(account); err != nil {
		return err
	}
	if err := s.store.DeleteSessionsForEmail(account.Email); err != nil {
		return err
	}

	s.logger.Info("password reset completed", map[string]interface{}{"email": account.Email})
	s.publish(StateUnauthenticated)
	return nil
}

// EnsureAccount creates the admin account with the given password if
// it does not exist yet. Used at first boot.
func (s *Service) EnsureAccount(password string) error {
	_, err := s.store.GetAdminAccount(s.adminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.ErrUserNotFound) {
		return err
	}
	if len(password) < minPasswordLength {
		return errors.New(errors.ErrWeakPassword, "password below minimum length")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to hash password", err)
	}
	account := &models.AdminAccount{
		Email:        s.adminEmail,
		PasswordHash: string(hash),
	}
	if err := s.store.SaveAdminAccount(account); err != nil {
		return err
	}
	s.logger.Info("admin account created", map[string]interface{}{"email": s.adminEmail})
	return nil
}

func (s *Service) checkLockout(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.failures[email]
	if !ok {
		return nil
	}
	if rec.count >= maxFailedAttempts {
		if time.Now().Before(rec.lockedUntil) {
			return errors.New(errors.ErrTooManyRequests, "sign-in locked out")
		}
		delete(s.failures, email)
	}
	return nil
}

func (s *Service) recordFailure(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.failures[email]
	if !ok {
		rec = &failureRecord{}
		s.failures[email] = rec
	}
	rec.count++
	if rec.count >= maxFailedAttempts {
		rec.lockedUntil = time.Now().Add(lockoutWindow)
	}
}

func (s *Service) clearFailures(email string) {
	s.mu.Lock()
	delete(s.failures, email)
	s.mu.Unlock()
}
