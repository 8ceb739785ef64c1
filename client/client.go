// Package client is a Go client for the mdshare HTTP API. It accumulates
// candidate markdown files, rejects obviously invalid ones before any network
// traffic, and submits the remaining batch in a single request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultMaxFileBytes is the per-file size ceiling applied before submission.
// The server enforces the same limit independently.
const DefaultMaxFileBytes = 5 * 1024 * 1024

// Rejection messages, matching the server's per-item validation errors.
const (
	reasonBadExtension = "Only .md and .markdown files are allowed"
	reasonTooLarge     = "File size exceeds 5MB limit"
)

// RawFile is a candidate document. Content is read lazily at submit time via
// Open, so a large pending list does not hold every file in memory.
type RawFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromPath builds a RawFile backed by a file on disk.
func FromPath(path string) (RawFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RawFile{}, err
	}
	return RawFile{
		Name: info.Name(),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FromString builds an in-memory RawFile.
func FromString(name, content string) RawFile {
	return RawFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// Rejection names one candidate refused by AddCandidates and why.
type Rejection struct {
	Filename string
	Reason   string
}

// RejectionNotice batches all rejections from one AddCandidates call.
// Accepted files from the same call are still pending; the notice exists so
// no rejection is silently dropped.
type RejectionNotice struct {
	Rejections []Rejection
}

func (n *RejectionNotice) Error() string {
	parts := make([]string, 0, len(n.Rejections))
	for _, r := range n.Rejections {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Filename, r.Reason))
	}
	return fmt.Sprintf("%d file(s) rejected: %s", len(n.Rejections), strings.Join(parts, "; "))
}

// FilePayload is one document within the upload request body.
type FilePayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Title    string `json:"title,omitempty"`
}

type uploadRequest struct {
	Files []FilePayload `json:"files"`
}

// UploadResult is a per-item success entry returned by the server.
type UploadResult struct {
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	ShareToken string `json:"shareToken"`
	ShareURL   string `json:"shareUrl"`
	FileSize   int64  `json:"fileSize"`
}

// UploadError is a per-item failure entry returned by the server.
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

// BatchResult is the server's partitioned response to a batch upload.
type BatchResult struct {
	Success bool           `json:"success"`
	Results []UploadResult `json:"results"`
	Errors  []UploadError  `json:"errors"`
	Summary BatchSummary   `json:"summary"`
}

// APIError is a non-2xx response from the server, carrying the
// server-provided message when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upload failed with status %d", e.StatusCode)
}

// Client accumulates candidates and submits them as one batch.
// It is not safe for concurrent use.
type Client struct {
	baseURL      string
	httpc        *http.Client
	maxFileBytes int64
	pending      []RawFile
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithMaxFileBytes overrides the per-file size ceiling used for pre-checks.
func WithMaxFileBytes(n int64) Option {
	return func(c *Client) { c.maxFileBytes = n }
}

// New creates a client for the mdshare server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpc:        &http.Client{Timeout: 30 * time.Second},
		maxFileBytes: DefaultMaxFileBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddCandidates appends valid files to the pending list. Files with an
// unrecognized extension or an oversized byte count are refused up front;
// all refusals from one call come back together as a *RejectionNotice.
// A nil error means every file was accepted.
func (c *Client) AddCandidates(files ...RawFile) error {
	var rejected []Rejection
	for _, f := range files {
		if !hasMarkdownExt(f.Name) {
			rejected = append(rejected, Rejection{Filename: f.Name, Reason: reasonBadExtension})
			continue
		}
		if f.Size > c.maxFileBytes {
			rejected = append(rejected, Rejection{Filename: f.Name, Reason: reasonTooLarge})
			continue
		}
		c.pending = append(c.pending, f)
	}
	if len(rejected) > 0 {
		return &RejectionNotice{Rejections: rejected}
	}
	return nil
}

// RemoveCandidate drops the pending file at index i.
func (c *Client) RemoveCandidate(i int) error {
	if i < 0 || i >= len(c.pending) {
		return fmt.Errorf("candidate index %d out of range [0,%d)", i, len(c.pending))
	}
	c.pending = append(c.pending[:i], c.pending[i+1:]...)
	return nil
}

// Pending returns the names of the files currently queued for submission.
func (c *Client) Pending() []string {
	names := make([]string, len(c.pending))
	for i, f := range c.pending {
		names[i] = f.Name
	}
	return names
}

// Submit reads every pending file and uploads the batch in one request.
// With an empty pending list it is a no-op returning (nil, nil).
//
// If any read fails the whole submission fails, since content must accompany
// the request. On transport errors or a non-2xx response the pending list is
// left untouched so the caller can retry; it is cleared only on success.
func (c *Client) Submit(ctx context.Context) (*BatchResult, error) {
	if len(c.pending) == 0 {
		return nil, nil
	}

	payload := uploadRequest{Files: make([]FilePayload, 0, len(c.pending))}
	for _, f := range c.pending {
		content, err := readAll(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		payload.Files = append(payload.Files, FilePayload{
			Filename: f.Name,
			Content:  content,
			Title:    trimMarkdownExt(f.Name),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var serverErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&serverErr); decodeErr == nil {
			apiErr.Message = serverErr.Error
		}
		return nil, apiErr
	}

	var result BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.pending = nil
	return &result, nil
}

func readAll(f RawFile) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func hasMarkdownExt(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

func trimMarkdownExt(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".markdown"):
		return name[:len(name)-len(".markdown")]
	case strings.HasSuffix(lower, ".md"):
		return name[:len(name)-len(".md")]
	}
	return name
}
