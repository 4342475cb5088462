package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Dialect names accepted by EnsureMigrated; they match config.DatabaseConfig.Driver.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

type migrationStep struct {
	Name string
	SQL  string
}

var postgresSteps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                TEXT        PRIMARY KEY,
  name              TEXT        NOT NULL,
  original_name     TEXT        NOT NULL,
  path              TEXT        NOT NULL UNIQUE,
  folder_id         TEXT        NULL,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  media_type        TEXT        NOT NULL,
  uploaded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  summary           TEXT        NULL,
  markdown          TEXT        NULL,
  processing_status TEXT        NOT NULL DEFAULT 'pending',
  CONSTRAINT documents_artifacts_completed CHECK (
    (processing_status = 'completed' AND summary IS NOT NULL AND markdown IS NOT NULL)
    OR (processing_status <> 'completed' AND summary IS NULL AND markdown IS NULL)
  )
);`,
	},
	{
		Name: "create_index_documents_folder_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_folder_id ON documents (folder_id);`,
	},
	{
		Name: "create_index_documents_processing_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_processing_status ON documents (processing_status);`,
	},
	{
		Name: "create_table_folders",
		SQL: `CREATE TABLE IF NOT EXISTS folders (
  id         TEXT        PRIMARY KEY,
  name       TEXT        NOT NULL,
  parent_id  TEXT        NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
}

var sqliteSteps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                TEXT      PRIMARY KEY,
  name              TEXT      NOT NULL,
  original_name     TEXT      NOT NULL,
  path              TEXT      NOT NULL UNIQUE,
  folder_id         TEXT      NULL,
  size              INTEGER   NOT NULL CHECK (size >= 0),
  media_type        TEXT      NOT NULL,
  uploaded_at       TIMESTAMP NOT NULL,
  summary           TEXT      NULL,
  markdown          TEXT      NULL,
  processing_status TEXT      NOT NULL DEFAULT 'pending',
  CHECK (
    (processing_status = 'completed' AND summary IS NOT NULL AND markdown IS NOT NULL)
    OR (processing_status <> 'completed' AND summary IS NULL AND markdown IS NULL)
  )
);`,
	},
	{
		Name: "create_index_documents_folder_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_folder_id ON documents (folder_id);`,
	},
	{
		Name: "create_index_documents_processing_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_processing_status ON documents (processing_status);`,
	},
	{
		Name: "create_table_folders",
		SQL: `CREATE TABLE IF NOT EXISTS folders (
  id         TEXT      PRIMARY KEY,
  name       TEXT      NOT NULL,
  parent_id  TEXT      NULL,
  created_at TIMESTAMP NOT NULL
);`,
	},
}

func plan(dialect string) (sentinel string, steps []migrationStep, err error) {
	switch dialect {
	case Postgres, "":
		return "SELECT to_regclass('public.folders') IS NOT NULL", postgresSteps, nil
	case SQLite:
		return "SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = 'folders'", sqliteSteps, nil
	default:
		return "", nil, fmt.Errorf("unsupported migration dialect: %s", dialect)
	}
}

// EnsureMigrated checks if the schema exists and runs migrations if it doesn't.
// folders is created last, so its presence means every step has run.
func EnsureMigrated(ctx context.Context, db *sql.DB, dialect string, logger *zap.Logger) error {
	start := time.Now()
	log := logger.With(zap.String("component", "database"), zap.String("dialect", dialect))

	sentinel, steps, err := plan(dialect)
	if err != nil {
		return err
	}

	log.Info("db_migration_check")

	var exists bool
	if err := db.QueryRowContext(ctx, sentinel).Scan(&exists); err != nil {
		log.Error("db_migration_failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("reason", "schema already exists"),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}

	log.Info("db_migration_start", zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)),
				zap.Duration("step_duration", time.Since(stepStart)),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("migration_step", step.Name),
			zap.Duration("step_duration", time.Since(stepStart)),
		)
	}

	log.Info("db_migration_success", zap.Duration("duration", time.Since(start)))
	return nil
}
