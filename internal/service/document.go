package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mdshare/internal/model"
	"mdshare/internal/repository"
	"mdshare/internal/token"
)

var (
	ErrNoFiles       = errors.New("no files provided")
	ErrTokenRequired = errors.New("token is required")
	ErrNotFound      = errors.New("document not found")
	ErrExpired       = errors.New("document has expired")
)

// Validation messages surfaced to clients in per-item error entries.
const (
	msgBadExtension = "Only .md and .markdown files are allowed"
	msgEmptyContent = "File content is empty"
	msgTooLarge     = "File size exceeds 5MB limit"
	msgSaveFailed   = "Failed to save file"
)

// maxTokenAttempts bounds the collision retry loop. The token space is
// 64 bits of entropy, so a second collision in a row already indicates
// something is badly wrong with the store.
const maxTokenAttempts = 3

// UploadItem is one document within an upload batch.
type UploadItem struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Title    string `json:"title,omitempty"`
}

// UploadResult is the per-item success entry of a batch upload.
type UploadResult struct {
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	ShareToken string `json:"shareToken"`
	ShareURL   string `json:"shareUrl"`
	FileSize   int64  `json:"fileSize"`
}

// UploadError is the per-item failure entry of a batch upload.
type UploadError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchSummary counts the outcomes of a batch upload.
type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BatchResult partitions a batch upload into successes and failures.
// Both lists preserve submission order within their own category.
type BatchResult struct {
	Success bool           `json:"success"`
	Results []UploadResult `json:"results"`
	Errors  []UploadError  `json:"errors"`
	Summary BatchSummary   `json:"summary"`
}

// ResolvedDocument is the payload returned for a successful share resolution.
// ViewCount already includes the view being served.
type ResolvedDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	ViewCount int64     `json:"viewCount"`
	FileSize  int64     `json:"fileSize"`
}

// DocumentService defines the use cases for sharing markdown documents.
type DocumentService interface {
	// UploadBatch validates and persists each item independently, in order.
	// One item's failure never aborts its siblings; the result is always a
	// full partition with a summary. It returns an error only for a
	// malformed batch (empty file list).
	// origin is the scheme://host prefix used to build share URLs; when
	// empty the configured base URL is used.
	UploadBatch(ctx context.Context, files []UploadItem, origin string) (*BatchResult, error)

	// Resolve looks up a share token, enforces expiration, counts the view
	// and returns content plus metadata.
	Resolve(ctx context.Context, shareToken string) (*ResolvedDocument, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	repo         repository.DocumentRepository
	log          *zap.Logger
	baseURL      string
	maxFileBytes int64
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(repo repository.DocumentRepository, log *zap.Logger, baseURL string, maxFileBytes int64) DocumentService {
	return &documentService{
		repo:         repo,
		log:          log,
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxFileBytes: maxFileBytes,
	}
}

func (s *documentService) UploadBatch(ctx context.Context, files []UploadItem, origin string) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if origin == "" {
		origin = s.baseURL
	}
	origin = strings.TrimRight(origin, "/")

	res := &BatchResult{
		Results: make([]UploadResult, 0, len(files)),
		Errors:  make([]UploadError, 0),
	}

	for _, f := range files {
		entry, err := s.uploadOne(ctx, f, origin)
		if err != nil {
			res.Errors = append(res.Errors, UploadError{Filename: f.Filename, Error: err.Error()})
			continue
		}
		res.Results = append(res.Results, *entry)
	}

	res.Summary = BatchSummary{
		Total:      len(files),
		Successful: len(res.Results),
		Failed:     len(res.Errors),
	}
	res.Success = len(res.Results) > 0
	return res, nil
}

// uploadOne validates and persists a single batch item. The returned error
// carries the user-visible reason; storage errors are logged here and
// replaced with a generic message.
func (s *documentService) uploadOne(ctx context.Context, f UploadItem, origin string) (*UploadResult, error) {
	if !HasMarkdownExt(f.Filename) {
		return nil, errors.New(msgBadExtension)
	}
	if strings.TrimSpace(f.Content) == "" {
		return nil, errors.New(msgEmptyContent)
	}
	size := int64(len(f.Content))
	if size > s.maxFileBytes {
		return nil, errors.New(msgTooLarge)
	}

	title := f.Title
	if title == "" {
		title = TrimMarkdownExt(f.Filename)
	}

	// The generator does not pre-check tokens against the store; the UNIQUE
	// constraint catches collisions and we retry with a fresh token.
	var stored *model.Document
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		doc := &model.Document{
			ID:         uuid.NewString(),
			Title:      title,
			Filename:   f.Filename,
			Content:    f.Content,
			ShareToken: token.Generate(),
			FileSize:   size,
			CreatedAt:  time.Now().UTC(),
		}
		var err error
		stored, err = s.repo.Insert(ctx, doc)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateToken) {
			s.log.Warn("share token collision, retrying",
				zap.String("filename", f.Filename),
				zap.Int("attempt", attempt+1))
			stored = nil
			continue
		}
		s.log.Error("insert document failed",
			zap.String("filename", f.Filename),
			zap.Error(err))
		return nil, errors.New(msgSaveFailed)
	}
	if stored == nil {
		s.log.Error("share token collisions exhausted retries",
			zap.String("filename", f.Filename),
			zap.Int("attempts", maxTokenAttempts))
		return nil, errors.New(msgSaveFailed)
	}

	return &UploadResult{
		Filename:   stored.Filename,
		Title:      stored.Title,
		ShareToken: stored.ShareToken,
		ShareURL:   fmt.Sprintf("%s/share/%s", origin, stored.ShareToken),
		FileSize:   stored.FileSize,
	}, nil
}

func (s *documentService) Resolve(ctx context.Context, shareToken string) (*ResolvedDocument, error) {
	if shareToken == "" {
		return nil, ErrTokenRequired
	}

	doc, err := s.repo.FindByToken(ctx, shareToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find by token: %w", err)
	}

	if doc.Expired(time.Now()) {
		return nil, ErrExpired
	}

	count, err := s.repo.IncrementViewCount(ctx, shareToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment view count: %w", err)
	}

	return &ResolvedDocument{
		ID:        doc.ID,
		Title:     doc.Title,
		Filename:  doc.Filename,
		Content:   doc.Content,
		CreatedAt: doc.CreatedAt,
		ViewCount: count,
		FileSize:  doc.FileSize,
	}, nil
}

// HasMarkdownExt reports whether the filename ends in a recognized markdown
// extension, case-insensitively.
func HasMarkdownExt(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// TrimMarkdownExt strips a trailing .md or .markdown extension, matching
// case-insensitively. Used for title defaulting.
func TrimMarkdownExt(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".markdown"):
		return filename[:len(filename)-len(".markdown")]
	case strings.HasSuffix(lower, ".md"):
		return filename[:len(filename)-len(".md")]
	}
	return filename
}
