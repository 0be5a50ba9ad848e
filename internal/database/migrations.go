package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	migrations := []string{
		createSchemaLayoutsTable,
	}

	for i, migration := range migrations {
		logger.Debug("running migration", "step", i+1, "total", len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	logger.Info("all migrations completed successfully")
	return nil
}

const createSchemaLayoutsTable = `
CREATE TABLE IF NOT EXISTS schema_layouts (
  id UUID PRIMARY KEY,
  layout_key TEXT NOT NULL UNIQUE,
  positions JSONB NOT NULL DEFAULT '{}'::jsonb,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_schema_layouts_updated_at ON schema_layouts(updated_at);
`
