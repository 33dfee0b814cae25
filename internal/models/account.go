// Package models provides data model definitions for the portfolio backend.
package models

import "time"

// AdminAccount holds the single administrator credential.
// PasswordHash is a bcrypt hash and is never exposed in JSON responses.
type AdminAccount struct {
	ID           UUID   `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	DisplayName  string `db:"display_name" json:"display_name,omitempty"`
	PasswordHash string `db:"password_hash" json:"-"` // Never expose
	CreatedAt    int64  `db:"created_at" json:"created_at"`
	UpdatedAt    int64  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for AdminAccount.
func (AdminAccount) TableName() string {
	return "admin_accounts"
}

// Touch updates the UpdatedAt timestamp.
func (a *AdminAccount) Touch() {
	a.UpdatedAt = time.Now().Unix()
}

// Session represents one signed-in admin session.
// TokenHash is the SHA-256 digest of the bearer token; the raw token is
// only ever returned to the client at sign-in.
type Session struct {
	ID        UUID   `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	TokenHash string `db:"token_hash" json:"-"` // Never expose
	ExpiresAt int64  `db:"expires_at" json:"expires_at"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// TableName returns the table name for Session.
func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().Unix() >= s.ExpiresAt
}

// ResetToken represents one single-use password reset token.
type ResetToken struct {
	ID        UUID   `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	TokenHash string `db:"token_hash" json:"-"` // Never expose
	Used      bool   `db:"used" json:"used"`
	ExpiresAt int64  `db:"expires_at" json:"expires_at"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// TableName returns the table name for ResetToken.
func (ResetToken) TableName() string {
	return "reset_tokens"
}

// Usable reports whether the token can still redeem a password reset.
func (t *ResetToken) Usable() bool {
	return !t.Used && time.Now().Unix() < t.ExpiresAt
}
