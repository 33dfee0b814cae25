// Package models provides data model definitions for the portfolio backend.
package models

import "time"

// Lead represents one contact-form submission.
type Lead struct {
	ID        UUID   `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Topic     string `db:"topic" json:"topic"`
	Message   string `db:"message" json:"message,omitempty"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// TableName returns the table name for Lead.
func (Lead) TableName() string {
	return "contacts"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (l *Lead) CreatedAtTime() time.Time {
	return time.Unix(l.CreatedAt, 0)
}
