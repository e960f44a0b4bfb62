package store

import (
	"context"
	"fmt"
)

// Migrate creates the application tables when they do not exist yet.
func Migrate(ctx context.Context, db *DB) error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.dialect == Postgres {
		id = "id BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_stats (
			` + id + `,
			user_id TEXT NOT NULL,
			total_counter_clicks INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ix_user_stats_user_id ON user_stats (user_id)`,
		`CREATE TABLE IF NOT EXISTS linked_items (
			` + id + `,
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			access_token TEXT NOT NULL,
			institution_name TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_linked_items_user_id ON linked_items (user_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}
