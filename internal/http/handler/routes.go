package handler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"mdshare/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; validation and batch semantics live in the service.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>mdshare API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoint: checks DB connectivity only
	app.Get("/health", HealthCheck(db))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	// Batch upload of markdown documents
	app.Post("/upload", UploadDocuments(docSvc))

	// Resolve a share token to content + metadata.
	// The token parameter is optional so that a bare /documents/ request
	// reaches the handler and yields 400 instead of a routing 404.
	app.Get("/documents/:token?", GetSharedDocument(docSvc))
}

// HealthCheck reports whether the database dependency is reachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "Service unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always returns 200 while the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// uploadRequest is the JSON body of POST /upload.
type uploadRequest struct {
	Files []service.UploadItem `json:"files"`
}

// UploadDocuments handles a batch upload. Per-item outcomes are partitioned
// by the service; the endpoint answers 200 even when every item failed. Only
// a malformed request (no parseable body, empty file list) gets a 400.
func UploadDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req uploadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if len(req.Files) == 0 {
			return writeError(c, fiber.StatusBadRequest, "No files provided")
		}

		res, err := docSvc.UploadBatch(c.UserContext(), req.Files, c.Get(fiber.HeaderOrigin))
		if err != nil {
			if errors.Is(err, service.ErrNoFiles) {
				return writeError(c, fiber.StatusBadRequest, "No files provided")
			}
			return writeError(c, fiber.StatusInternalServerError, "Internal server error")
		}
		return c.Status(fiber.StatusOK).JSON(res)
	}
}

// GetSharedDocument resolves a share token. 404 and 410 are distinct so a
// client can tell "never existed" from "existed but expired".
func GetSharedDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Params("token")
		if token == "" {
			return writeError(c, fiber.StatusBadRequest, "Token is required")
		}

		doc, err := docSvc.Resolve(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenRequired):
				return writeError(c, fiber.StatusBadRequest, "Token is required")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "File not found")
			case errors.Is(err, service.ErrExpired):
				return writeError(c, fiber.StatusGone, "File has expired")
			default:
				return writeError(c, fiber.StatusInternalServerError, "Internal server error")
			}
		}
		return c.Status(fiber.StatusOK).JSON(doc)
	}
}
