// Package models provides data model definitions for the portfolio backend.
package models

import (
	"strings"
	"time"
)

// Blog post status values.
const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

// Blog post content types.
const (
	BlogTypeText  = "text"
	BlogTypeImage = "image"
)

// BlogPost represents one blog entry, draft or published.
type BlogPost struct {
	ID          UUID   `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Content     string `db:"content" json:"content"`
	Type        string `db:"type" json:"type"`
	ImageURL    string `db:"image_url" json:"image_url,omitempty"`
	Tags        string `db:"tags" json:"tags"` // Comma-separated
	Status      string `db:"status" json:"status"`
	Slug        string `db:"slug" json:"slug"`
	AuthorID    string `db:"author_id" json:"author_id"`
	Views       int64  `db:"views" json:"views"`
	Featured    bool   `db:"featured" json:"featured"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	UpdatedAt   int64  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for BlogPost.
func (BlogPost) TableName() string {
	return "blogs"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (b *BlogPost) CreatedAtTime() time.Time {
	return time.Unix(b.CreatedAt, 0)
}

// UpdatedAtTime returns the UpdatedAt as time.Time.
func (b *BlogPost) UpdatedAtTime() time.Time {
	return time.Unix(b.UpdatedAt, 0)
}

// Touch updates the UpdatedAt timestamp.
func (b *BlogPost) Touch() {
	b.UpdatedAt = time.Now().Unix()
}

// IsPublished reports whether the post is publicly visible.
func (b *BlogPost) IsPublished() bool {
	return b.Status == BlogStatusPublished
}

// Slugify derives a URL slug from a post title: lowercased, characters
// outside [a-z0-9 -] stripped, runs of spaces replaced by hyphens and
// repeated hyphens collapsed. A title with no usable characters yields
// an empty slug.
func Slugify(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}

	slug := strings.TrimSpace(b.String())
	slug = strings.Join(strings.Fields(slug), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return slug
}

// ReadingTime estimates reading time in minutes at 200 words per minute,
// rounded up. Empty content reads in zero minutes.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return (words + 199) / 200
}
