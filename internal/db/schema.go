package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		submissionid SERIAL PRIMARY KEY,
		trackid      TEXT NOT NULL,
		userid       TEXT NOT NULL,
		messageid    TEXT NOT NULL
	)`,
}

// Migrate creates the config and submissions tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
