package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_markdown_files",
		SQL: `CREATE TABLE IF NOT EXISTS markdown_files (
  id          UUID        PRIMARY KEY,
  title       TEXT        NOT NULL,
  filename    TEXT        NOT NULL,
  content     TEXT        NOT NULL,
  share_token TEXT        NOT NULL UNIQUE,
  file_size   BIGINT      NOT NULL CHECK (file_size >= 0),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  expires_at  TIMESTAMPTZ,
  view_count  BIGINT      NOT NULL DEFAULT 0 CHECK (view_count >= 0)
);`,
	},
	{
		Name: "create_index_markdown_files_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_markdown_files_created_at ON markdown_files (created_at);`,
	},
}

// EnsureMigrated checks if the markdown_files table exists and runs the
// migration steps if it doesn't. The UNIQUE constraint on share_token is the
// store-level guarantee behind the upload collision retry loop.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	const query = "SELECT to_regclass('public.markdown_files') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("migration sentinel check failed", zap.Error(err))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("step", step.Name),
				zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("elapsed", time.Since(stepStart)))
	}

	log.Info("migration complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}
