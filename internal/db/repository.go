// Package db provides CRUD repository operations for portfolio collections.
package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/models"
	"github.com/shahriarsany/portfolio/backend/internal/uuid"
)

// Repository provides CRUD operations for all collections. Every
// committed mutation signals the Notifier so live queries can re-read
// their snapshot.
type Repository struct {
	db       *sql.DB
	notifier *Notifier

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB, notifier *Notifier) *Repository {
	return &Repository{db: db, notifier: notifier}
}

// Notifier returns the change notifier mutations signal through.
func (r *Repository) Notifier() *Notifier {
	return r.notifier
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// notify signals listeners after a committed mutation.
func (r *Repository) notify(collection string) {
	if r.notifier != nil {
		r.notifier.Notify(collection)
	}
}

// materializeTimestamp substitutes "now" for a missing created_at so
// ordering never sees a zero value. A record only lacks its timestamp
// while the write is still in flight.
func materializeTimestamp(ts sql.NullInt64) int64 {
	if ts.Valid && ts.Int64 > 0 {
		return ts.Int64
	}
	return time.Now().Unix()
}

// =====================================================
// Lead Operations
// =====================================================

// CreateLead creates a new contact-form lead. The identity and creation
// timestamp are assigned here, never by the caller.
func (r *Repository) CreateLead(lead *models.Lead) error {
	lead.ID = models.UUID(uuid.New())
	lead.CreatedAt = time.Now().Unix()

	query := `
	INSERT INTO contacts (id, name, email, phone, topic, message, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, lead.ID, lead.Name, lead.Email, lead.Phone,
		lead.Topic, lead.Message, lead.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to create lead", err)
	}
	r.notify(CollectionContacts)
	return nil
}

// ListLeads returns all leads, newest first.
func (r *Repository) ListLeads() ([]*models.Lead, error) {
	query := `
	SELECT id, name, email, phone, topic, message, created_at
	FROM contacts ORDER BY created_at DESC
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list leads", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		var lead models.Lead
		var createdAt sql.NullInt64
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone,
			&lead.Topic, &lead.Message, &createdAt); err != nil {
			return nil, err
		}
		lead.CreatedAt = materializeTimestamp(createdAt)
		leads = append(leads, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leads, nil
}

// DeleteLead removes a lead. A second delete on the same id reports
// not-found; the backend does not pretend idempotence.
func (r *Repository) DeleteLead(id string) error {
	result, err := r.db.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete lead", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("lead not found: %s", id))
	}
	r.notify(CollectionContacts)
	return nil
}

// =====================================================
// Visitor Operations
// =====================================================

// CreateVisitor records a page visit.
func (r *Repository) CreateVisitor(v *models.Visitor) error {
	v.ID = models.UUID(uuid.New())
	v.CreatedAt = time.Now().Unix()

	query := `
	INSERT INTO visitors (id, ip_address, user_agent, page, device, browser, location, duration, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, v.ID, v.IPAddress, v.UserAgent, v.Page,
		v.Device, v.Browser, v.Location, v.Duration, v.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to create visitor", err)
	}
	r.notify(CollectionVisitors)
	return nil
}

// ListVisitors returns all visitors, newest first.
func (r *Repository) ListVisitors() ([]*models.Visitor, error) {
	query := `
	SELECT id, ip_address, user_agent, page, device, browser, location, duration, created_at
	FROM visitors ORDER BY created_at DESC
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list visitors", err)
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		var v models.Visitor
		var createdAt sql.NullInt64
		if err := rows.Scan(&v.ID, &v.IPAddress, &v.UserAgent, &v.Page,
			&v.Device, &v.Browser, &v.Location, &v.Duration, &createdAt); err != nil {
			return nil, err
		}
		v.CreatedAt = materializeTimestamp(createdAt)
		visitors = append(visitors, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return visitors, nil
}

// DeleteVisitor removes a visitor record.
func (r *Repository) DeleteVisitor(id string) error {
	result, err := r.db.Exec(`DELETE FROM visitors WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete visitor", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("visitor not found: %s", id))
	}
	r.notify(CollectionVisitors)
	return nil
}

// =====================================================
// BlogPost Operations
// =====================================================

const blogColumns = `id, title, description, content, type, image_url, tags, status, slug, author_id, views, featured, created_at, updated_at`

func scanBlog(scan func(dest ...interface{}) error) (*models.BlogPost, error) {
	var b models.BlogPost
	var createdAt, updatedAt sql.NullInt64
	err := scan(&b.ID, &b.Title, &b.Description, &b.Content, &b.Type, &b.ImageURL,
		&b.Tags, &b.Status, &b.Slug, &b.AuthorID, &b.Views, &b.Featured,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = materializeTimestamp(createdAt)
	b.UpdatedAt = materializeTimestamp(updatedAt)
	return &b, nil
}

// CreateBlogPost creates a new post with server-assigned identity and
// timestamps. The slug is derived from the title at write time.
func (r *Repository) CreateBlogPost(post *models.BlogPost) error {
	now := time.Now().Unix()
	post.ID = models.UUID(uuid.New())
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Slug = models.Slugify(post.Title)

	query := `
	INSERT INTO blogs (` + blogColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, post.ID, post.Title, post.Description, post.Content,
		post.Type, post.ImageURL, post.Tags, post.Status, post.Slug, post.AuthorID,
		post.Views, post.Featured, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to create blog post", err)
	}
	r.notify(CollectionBlogs)
	return nil
}

// GetBlogPost retrieves one post by ID, any status.
func (r *Repository) GetBlogPost(id string) (*models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	post, err := scanBlog(stmt.QueryRow(id).Scan)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("blog post not found: %s", id))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get blog post", err)
	}
	return post, nil
}

// ListBlogPosts returns posts newest first. An empty status lists every
// post; the public listing passes "published".
func (r *Repository) ListBlogPosts(status string) ([]*models.BlogPost, error) {
	baseQuery := `SELECT ` + blogColumns + ` FROM blogs`
	order := ` ORDER BY created_at DESC`

	var query string
	var args []interface{}
	if status != "" {
		query = baseQuery + ` WHERE status = ?` + order
		args = []interface{}{status}
	} else {
		query = baseQuery + order
	}

	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list blog posts", err)
	}
	defer rows.Close()

	var posts []*models.BlogPost
	for rows.Next() {
		post, err := scanBlog(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateBlogPost merges the post's fields into the existing row,
// refreshes updated_at and recomputes the slug from the current title.
func (r *Repository) UpdateBlogPost(post *models.BlogPost) error {
	post.Touch()
	post.Slug = models.Slugify(post.Title)

	query := `
	UPDATE blogs
	SET title = ?, description = ?, content = ?, type = ?, image_url = ?,
		tags = ?, status = ?, slug = ?, featured = ?, updated_at = ?
	WHERE id = ?
	`
	result, err := r.db.Exec(query, post.Title, post.Description, post.Content,
		post.Type, post.ImageURL, post.Tags, post.Status, post.Slug,
		post.Featured, post.UpdatedAt, post.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to update blog post", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("blog post not found: %s", post.ID))
	}
	r.notify(CollectionBlogs)
	return nil
}

// DeleteBlogPost removes a post.
func (r *Repository) DeleteBlogPost(id string) error {
	result, err := r.db.Exec(`DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete blog post", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("blog post not found: %s", id))
	}
	r.notify(CollectionBlogs)
	return nil
}

// IncrementBlogViews bumps a post's view counter by one in a single
// atomic UPDATE. Callers issue exactly one increment per detail fetch.
func (r *Repository) IncrementBlogViews(id string) error {
	result, err := r.db.Exec(`UPDATE blogs SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to increment views", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("blog post not found: %s", id))
	}
	r.notify(CollectionBlogs)
	return nil
}

// =====================================================
// AdminAccount Operations
// =====================================================

// GetAdminAccount retrieves the account for an email.
func (r *Repository) GetAdminAccount(email string) (*models.AdminAccount, error) {
	query := `
	SELECT id, email, display_name, password_hash, created_at, updated_at
	FROM admin_accounts WHERE email = ?
	`
	var a models.AdminAccount
	err := r.db.QueryRow(query, email).Scan(&a.ID, &a.Email, &a.DisplayName,
		&a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrUserNotFound, "no account for email")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get account", err)
	}
	return &a, nil
}

// SaveAdminAccount inserts the account if new, otherwise updates it.
func (r *Repository) SaveAdminAccount(a *models.AdminAccount) error {
	now := time.Now().Unix()

	if a.ID == "" {
		a.ID = models.UUID(uuid.New())
		a.CreatedAt = now
		a.UpdatedAt = now
		query := `
		INSERT INTO admin_accounts (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := r.db.Exec(query, a.ID, a.Email, a.DisplayName, a.PasswordHash,
			a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to create account", err)
		}
		return nil
	}

	a.UpdatedAt = now
	query := `
	UPDATE admin_accounts
	SET email = ?, display_name = ?, password_hash = ?, updated_at = ?
	WHERE id = ?
	`
	result, err := r.db.Exec(query, a.Email, a.DisplayName, a.PasswordHash, a.UpdatedAt, a.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to update account", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrUserNotFound, "account no longer exists")
	}
	return nil
}

// =====================================================
// Session Operations
// =====================================================

// CreateSession persists a new session keyed by the token digest.
func (r *Repository) CreateSession(s *models.Session) error {
	s.ID = models.UUID(uuid.New())
	s.CreatedAt = time.Now().Unix()

	query := `
	INSERT INTO sessions (id, email, token_hash, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, s.ID, s.Email, s.TokenHash, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to create session", err)
	}
	return nil
}

// GetSessionByTokenHash retrieves a session by its token digest.
func (r *Repository) GetSessionByTokenHash(tokenHash string) (*models.Session, error) {
	query := `SELECT id, email, token_hash, expires_at, created_at FROM sessions WHERE token_hash = ?`
	var s models.Session
	err := r.db.QueryRow(query, tokenHash).Scan(&s.ID, &s.Email, &s.TokenHash,
		&s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNoSession, "session not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get session", err)
	}
	return &s, nil
}

// DeleteSession removes a session by token digest.
func (r *Repository) DeleteSession(tokenHash string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete session", err)
	}
	return nil
}

// DeleteSessionsForEmail removes every session for an account, used
// after a password change or reset.
func (r *Repository) DeleteSessionsForEmail(email string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE email = ?`, email)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete sessions", err)
	}
	return nil
}

// =====================================================
// ResetToken Operations
// =====================================================

// CreateResetToken persists a single-use password reset token digest.
func (r *Repository) CreateResetToken(t *models.ResetToken) error {
	t.ID = models.UUID(uuid.New())
	t.CreatedAt = time.Now().Unix()

	query := `
	INSERT INTO reset_tokens (id, email, token_hash, used, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, t.ID, t.Email, t.TokenHash, t.Used, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to create reset token", err)
	}
	return nil
}

// GetResetToken retrieves a reset token by its digest.
func (r *Repository) GetResetToken(tokenHash string) (*models.ResetToken, error) {
	query := `SELECT id, email, token_hash, used, expires_at, created_at FROM reset_tokens WHERE token_hash = ?`
	var t models.ResetToken
	err := r.db.QueryRow(query, tokenHash).Scan(&t.ID, &t.Email, &t.TokenHash,
		&t.Used, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrResetTokenInvalid, "reset token not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get reset token", err)
	}
	return &t, nil
}

// MarkResetTokenUsed consumes a reset token so it cannot redeem twice.
func (r *Repository) MarkResetTokenUsed(tokenHash string) error {
	result, err := r.db.Exec(`UPDATE reset_tokens SET used = 1 WHERE token_hash = ? AND used = 0`, tokenHash)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to consume reset token", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrResetTokenInvalid, "reset token already used")
	}
	return nil
}
