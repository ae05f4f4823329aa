package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)
		`); err != nil {
			return fmt.Errorf("failed to create schema_version table: %w", err)
		}

		if err := createEngineResultsTable(tx); err != nil {
			return err
		}

		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}

		db.logger.Debug("Cache schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

func createEngineResultsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS engine_results (
			key TEXT PRIMARY KEY,
			engine TEXT NOT NULL,
			fixable INTEGER NOT NULL DEFAULT 0,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create engine_results table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_engine_results_created ON engine_results(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create engine_results index: %w", err)
	}
	return nil
}

// runMigrations checks the schema version of an existing database. The cache
// is disposable, so an unknown version is rebuilt from scratch.
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err == nil && version == currentSchemaVersion {
		return nil
	}

	db.logger.Info("Rebuilding cache database", "found_version", version, "want_version", currentSchemaVersion)
	return db.WithTx(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DROP TABLE IF EXISTS engine_results`,
			`DROP TABLE IF EXISTS schema_version`,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to drop table: %w", err)
			}
		}
		if _, err := tx.Exec(`CREATE TABLE schema_version (version INTEGER NOT NULL)`); err != nil {
			return fmt.Errorf("failed to create schema_version table: %w", err)
		}
		if err := createEngineResultsTable(tx); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
		return err
	})
}

// getSchemaVersion returns the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
