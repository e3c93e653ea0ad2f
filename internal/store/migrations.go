package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id     TEXT NOT NULL,
			source        TEXT NOT NULL DEFAULT '',
			ts            TEXT NOT NULL,
			app_name      TEXT NOT NULL,
			window_title  TEXT NOT NULL DEFAULT '',
			bundle_id     TEXT NOT NULL DEFAULT '',
			document_path TEXT NOT NULL DEFAULT '',
			url           TEXT NOT NULL DEFAULT '',
			is_idle       BOOLEAN NOT NULL DEFAULT false,
			duration      INTEGER NOT NULL,
			UNIQUE (device_id, ts, app_name, window_title, is_idle)
		)`,

		`CREATE TABLE IF NOT EXISTS app_categories (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			app_name  TEXT NOT NULL,
			bundle_id TEXT NOT NULL DEFAULT '',
			category  TEXT NOT NULL,
			UNIQUE (app_name, bundle_id)
		)`,

		`CREATE TABLE IF NOT EXISTS domain_categories (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			domain   TEXT NOT NULL,
			pattern  TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			UNIQUE (domain, pattern)
		)`,

		`CREATE TABLE IF NOT EXISTS category_suggestions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			kind        TEXT NOT NULL,
			value       TEXT NOT NULL,
			category    TEXT NOT NULL,
			confidence  REAL NOT NULL,
			occurrences INTEGER NOT NULL DEFAULT 1,
			status      TEXT NOT NULL DEFAULT 'pending',
			first_seen  TEXT NOT NULL,
			last_seen   TEXT NOT NULL,
			UNIQUE (kind, value)
		)`,

		`CREATE TABLE IF NOT EXISTS session_summaries (
			device_id     TEXT NOT NULL,
			date          TEXT NOT NULL,
			total_active  INTEGER NOT NULL,
			total_idle    INTEGER NOT NULL,
			session_count INTEGER NOT NULL,
			payload       TEXT NOT NULL,
			computed_at   TEXT NOT NULL,
			PRIMARY KEY (device_id, date)
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_events_device_ts ON events(device_id, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_status ON category_suggestions(status)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
