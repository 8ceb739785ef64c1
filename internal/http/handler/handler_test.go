package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mdshare/internal/service"
	serviceMocks "mdshare/internal/service/mocks"
)

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "Service unavailable", decodeError(t, resp))
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func uploadReq(t *testing.T, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(b))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestUploadDocuments(t *testing.T) {
	t.Run("success partition", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Post("/upload", UploadDocuments(mockSvc))

		files := []service.UploadItem{
			{Filename: "a.md", Content: "# Hi"},
			{Filename: "b.txt", Content: "x"},
		}
		expected := &service.BatchResult{
			Success: true,
			Results: []service.UploadResult{{
				Filename:   "a.md",
				Title:      "a",
				ShareToken: "aabbccddeeff0011",
				ShareURL:   "http://localhost:8080/share/aabbccddeeff0011",
				FileSize:   4,
			}},
			Errors: []service.UploadError{{
				Filename: "b.txt",
				Error:    "Only .md and .markdown files are allowed",
			}},
			Summary: service.BatchSummary{Total: 2, Successful: 1, Failed: 1},
		}
		mockSvc.On("UploadBatch", mock.Anything, files, "").Return(expected, nil).Once()

		resp, _ := app.Test(uploadReq(t, fiber.Map{"files": files}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.BatchResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.Success)
		assert.Len(t, result.Results, 1)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, expected.Summary, result.Summary)
		mockSvc.AssertExpectations(t)
	})

	t.Run("origin header is forwarded for share URLs", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Post("/upload", UploadDocuments(mockSvc))

		files := []service.UploadItem{{Filename: "a.md", Content: "# Hi"}}
		mockSvc.On("UploadBatch", mock.Anything, files, "https://md.example.com").
			Return(&service.BatchResult{Success: true}, nil).Once()

		req := uploadReq(t, fiber.Map{"files": files})
		req.Header.Set(fiber.HeaderOrigin, "https://md.example.com")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty file list", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Post("/upload", UploadDocuments(mockSvc))

		resp, _ := app.Test(uploadReq(t, fiber.Map{"files": []service.UploadItem{}}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No files provided", decodeError(t, resp))
		mockSvc.AssertNotCalled(t, "UploadBatch")
	})

	t.Run("missing file list", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Post("/upload", UploadDocuments(mockSvc))

		resp, _ := app.Test(uploadReq(t, fiber.Map{}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No files provided", decodeError(t, resp))
	})

	t.Run("malformed body", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Post("/upload", UploadDocuments(mockSvc))

		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader([]byte("{not json")))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unexpected service error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Post("/upload", UploadDocuments(mockSvc))

		files := []service.UploadItem{{Filename: "a.md", Content: "# Hi"}}
		mockSvc.On("UploadBatch", mock.Anything, files, "").
			Return(nil, errors.New("boom")).Once()

		resp, _ := app.Test(uploadReq(t, fiber.Map{"files": files}))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal server error", decodeError(t, resp))
	})
}

func TestGetSharedDocument(t *testing.T) {
	newApp := func(svc service.DocumentService) *fiber.App {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Get("/documents/:token?", GetSharedDocument(svc))
		return app
	}

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		mockSvc.On("Resolve", mock.Anything, "aabbccddeeff0011").Return(&service.ResolvedDocument{
			ID:        "doc-1",
			Title:     "notes",
			Filename:  "notes.md",
			Content:   "# Hi",
			CreatedAt: created,
			ViewCount: 1,
			FileSize:  4,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/aabbccddeeff0011", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body service.ResolvedDocument
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "# Hi", body.Content)
		assert.Equal(t, int64(1), body.ViewCount)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/documents/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Token is required", decodeError(t, resp))
		mockSvc.AssertNotCalled(t, "Resolve")
	})

	t.Run("unknown token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		mockSvc.On("Resolve", mock.Anything, "0000000000000000").
			Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/0000000000000000", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "File not found", decodeError(t, resp))
	})

	t.Run("expired token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		mockSvc.On("Resolve", mock.Anything, "aabbccddeeff0011").
			Return(nil, service.ErrExpired).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/aabbccddeeff0011", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusGone, resp.StatusCode)
		assert.Equal(t, "File has expired", decodeError(t, resp))
	})

	t.Run("storage failure", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		mockSvc.On("Resolve", mock.Anything, "aabbccddeeff0011").
			Return(nil, errors.New("db down")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/aabbccddeeff0011", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal server error", decodeError(t, resp))
	})
}

func TestMethodNotAllowed(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, db, mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", decodeError(t, resp))
}
