package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema statements per driver. All of them are idempotent so EnsureSchema
// can run on every start.
var schemas = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS movies (
			id     BIGSERIAL PRIMARY KEY,
			title  TEXT NOT NULL,
			year   INTEGER NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS directors (
			id   BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS movie_directors (
			movie_id    BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			director_id BIGINT NOT NULL REFERENCES directors(id),
			PRIMARY KEY (movie_id, director_id)
		)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS movies (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			title  TEXT NOT NULL,
			year   INTEGER NOT NULL DEFAULT 0,
			rating REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS directors (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS movie_directors (
			movie_id    INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			director_id INTEGER NOT NULL REFERENCES directors(id),
			PRIMARY KEY (movie_id, director_id)
		)`,
	},
}

// EnsureSchema creates the catalog tables when they are missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB, driver string) error {
	stmts, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
