package sqlite

import (
	"database/sql"
	"fmt"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of all database migrations
// Each migration should be idempotent and safe to run multiple times
var migrations = []migration{
	{
		version: 1,
		name:    "create_media_table",
		up: `
			CREATE TABLE IF NOT EXISTS media (
				id TEXT PRIMARY KEY,
				display_name TEXT NOT NULL,
				relative_path TEXT NOT NULL,
				mime_type TEXT,
				collection TEXT NOT NULL,
				data_path TEXT NOT NULL UNIQUE,
				size INTEGER NOT NULL DEFAULT 0,
				is_pending INTEGER NOT NULL DEFAULT 1,
				date_added TIMESTAMP NOT NULL,
				date_modified TIMESTAMP
			);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_media_path_name
			ON media(relative_path, display_name);
		`,
	},
	{
		version: 2,
		name:    "index_media_display_name",
		up: `
			CREATE INDEX IF NOT EXISTS idx_media_display_name
			ON media(display_name ASC);

			CREATE INDEX IF NOT EXISTS idx_media_date_modified
			ON media(date_modified DESC)
			WHERE is_pending = 0;
		`,
	},
}

// runMigrations executes all pending migrations
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		if _, err = tx.Exec(m.up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version,
			m.name,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
