// Package db provides database schema migration management.
package db

import (
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/shahriarsany/portfolio/backend/internal/errors"
)

// Migration represents one ordered schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of schema changes. Versions are
// contiguous and never reordered once released.
var migrations = []Migration{
	{
		Version:     1,
		Description: "create contacts collection",
		SQL: `
		CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			topic TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL CHECK(created_at > 0)
		);
		CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at DESC);`,
	},
	{
		Version:     2,
		Description: "create visitors collection",
		SQL: `
		CREATE TABLE IF NOT EXISTS visitors (
			id TEXT PRIMARY KEY,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			page TEXT NOT NULL DEFAULT '',
			device TEXT NOT NULL DEFAULT '',
			browser TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL CHECK(created_at > 0)
		);
		CREATE INDEX IF NOT EXISTS idx_visitors_created_at ON visitors(created_at DESC);`,
	},
	{
		Version:     3,
		Description: "create blogs collection",
		SQL: `
		CREATE TABLE IF NOT EXISTS blogs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'text' CHECK(type IN ('text', 'image')),
			image_url TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft', 'published')),
			slug TEXT NOT NULL DEFAULT '',
			author_id TEXT NOT NULL DEFAULT '',
			views INTEGER NOT NULL DEFAULT 0,
			featured INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL CHECK(created_at > 0),
			updated_at INTEGER NOT NULL CHECK(updated_at > 0)
		);
		CREATE INDEX IF NOT EXISTS idx_blogs_created_at ON blogs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_blogs_status ON blogs(status);`,
	},
	{
		Version:     4,
		Description: "create auth tables",
		SQL: `
		CREATE TABLE IF NOT EXISTS admin_accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_token_hash ON sessions(token_hash);
		CREATE TABLE IF NOT EXISTS reset_tokens (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			used INTEGER NOT NULL DEFAULT 0,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	},
}

// Migrator applies schema migrations in order.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Up applies all pending migrations inside transactions.
func (m *Migrator) Up() error {
	if err := m.Initialize(); err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to initialize migrations", err)
	}

	current, err := m.CurrentVersion()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to read schema version", err)
	}

	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}

		tx, err := m.db.Begin()
		if err != nil {
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("failed to begin migration %d", mig.Version), err)
		}

		if _, err := tx.Exec(mig.SQL); err != nil {
			tx.Rollback()
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("migration %d (%s) failed", mig.Version, mig.Description), err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
			mig.Version, time.Now().Unix(), mig.Description,
		); err != nil {
			tx.Rollback()
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("failed to record migration %d", mig.Version), err)
		}

		if err := tx.Commit(); err != nil {
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("failed to commit migration %d", mig.Version), err)
		}
	}

	return nil
}
