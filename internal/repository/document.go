package repository

import (
	"context"
	"errors"

	"mdshare/internal/model"
)

// ErrDuplicateToken is returned by Insert when the share token already
// identifies another document. The generator does not pre-check tokens, so
// callers must treat this as an ordinary per-item failure and retry with a
// fresh token.
var ErrDuplicateToken = errors.New("share token already exists")

// DocumentRepository defines persistence for shared documents.
// No business logic here — strictly storage operations. Lookups that match
// no row return sql.ErrNoRows unchanged; the service layer translates it.
type DocumentRepository interface {
	// Insert stores a new document. The caller provides all fields except
	// ViewCount, which starts at zero. Uniqueness of ShareToken is enforced
	// by the store; a violation surfaces as ErrDuplicateToken.
	Insert(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByToken returns the document identified by the share token.
	FindByToken(ctx context.Context, token string) (*model.Document, error)

	// IncrementViewCount atomically adds one to the view counter of the
	// document identified by the share token and returns the new value.
	// A single UPDATE ... RETURNING round trip, never read-then-write, so
	// concurrent resolutions cannot lose updates.
	IncrementViewCount(ctx context.Context, token string) (int64, error)
}
