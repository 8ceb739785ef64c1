package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"mdshare/internal/model"
	"mdshare/internal/repository"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Insert stores a new document row and returns the stored record.
// A share-token collision maps to repository.ErrDuplicateToken.
func (r *DocumentPostgres) Insert(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO markdown_files (id, title, filename, content, share_token, file_size, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, title, filename, content, share_token, file_size, created_at, expires_at, view_count
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Filename,
		doc.Content,
		doc.ShareToken,
		doc.FileSize,
		doc.CreatedAt,
		doc.ExpiresAt,
	)
	var out model.Document
	if err := row.Scan(
		&out.ID,
		&out.Title,
		&out.Filename,
		&out.Content,
		&out.ShareToken,
		&out.FileSize,
		&out.CreatedAt,
		&out.ExpiresAt,
		&out.ViewCount,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrDuplicateToken
		}
		return nil, err
	}
	return &out, nil
}

// FindByToken fetches a single document by its share token.
func (r *DocumentPostgres) FindByToken(ctx context.Context, token string) (*model.Document, error) {
	const q = `
		SELECT id, title, filename, content, share_token, file_size, created_at, expires_at, view_count
		FROM markdown_files
		WHERE share_token = $1
	`
	row := r.db.QueryRowContext(ctx, q, token)
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Filename,
		&d.Content,
		&d.ShareToken,
		&d.FileSize,
		&d.CreatedAt,
		&d.ExpiresAt,
		&d.ViewCount,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// IncrementViewCount bumps the view counter in a single statement so that
// concurrent increments on the same token serialize at the database.
func (r *DocumentPostgres) IncrementViewCount(ctx context.Context, token string) (int64, error) {
	const q = `
		UPDATE markdown_files
		SET view_count = view_count + 1
		WHERE share_token = $1
		RETURNING view_count
	`
	var count int64
	if err := r.db.QueryRowContext(ctx, q, token).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
