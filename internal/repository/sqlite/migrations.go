package sqlite

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			CREATE TABLE IF NOT EXISTS watches (
				id TEXT PRIMARY KEY,
				guild_id TEXT NOT NULL,
				channel_id TEXT NOT NULL,
				role_id TEXT,
				platform TEXT NOT NULL,
				identity TEXT NOT NULL,
				profile_url TEXT NOT NULL,
				message_template TEXT,
				interval_live_seconds INTEGER NOT NULL,
				interval_offline_seconds INTEGER NOT NULL,
				interval_night_seconds INTEGER NOT NULL,
				night_enabled BOOLEAN NOT NULL DEFAULT 0,
				night_start_hour INTEGER NOT NULL DEFAULT 20,
				night_end_hour INTEGER NOT NULL DEFAULT 8,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				error_message TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE (guild_id, platform, identity)
			);

			CREATE INDEX IF NOT EXISTS idx_watches_guild_id ON watches(guild_id);
			CREATE INDEX IF NOT EXISTS idx_watches_is_active ON watches(is_active);

			CREATE TABLE IF NOT EXISTS watch_runtime_state (
				guild_id TEXT NOT NULL,
				platform TEXT NOT NULL,
				identity TEXT NOT NULL,
				is_live BOOLEAN NOT NULL DEFAULT 0,
				last_check_at DATETIME,
				last_success_at DATETIME,
				consecutive_errors INTEGER NOT NULL DEFAULT 0,
				total_errors INTEGER NOT NULL DEFAULT 0,
				total_successes INTEGER NOT NULL DEFAULT 0,
				last_error TEXT,
				check_status TEXT NOT NULL DEFAULT 'Stopped',
				updated_at DATETIME NOT NULL,
				PRIMARY KEY (guild_id, platform, identity)
			);
		`,
	},
}

// Migrate runs all pending migrations
func Migrate(db *sql.DB) error {
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			migration.Version,
			migration.Name,
			sql.NullTime{Time: timeNow(), Valid: true},
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// getCurrentVersion returns the current schema version
func getCurrentVersion(db *sql.DB) (int, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query version: %w", err)
	}
	return version, nil
}
