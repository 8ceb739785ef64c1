package model

import "time"

// Document is a shared markdown file as stored by the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, repository) without coupling to persistence.
// Apart from ViewCount a document never changes after insertion.
type Document struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Filename   string     `json:"filename"`
	Content    string     `json:"content"`
	ShareToken string     `json:"share_token"`
	FileSize   int64      `json:"file_size"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ViewCount  int64      `json:"view_count"`
}

// Expired reports whether the document's expiry time has passed.
// Documents without an expiry never expire. Expired rows stay in storage;
// expiration is a read-time gate, not a deletion.
func (d *Document) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && d.ExpiresAt.Before(now)
}
