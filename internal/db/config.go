package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigRepository reads and writes named string values in the config table.
type ConfigRepository struct {
	pool *pgxpool.Pool
}

// Get returns the value stored under key, or ErrNotFound.
// A row holding NULL is reported as ErrNotFound.
func (r *ConfigRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM config WHERE key = $1`
	var value *string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && value == nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying config %q: %w", key, err)
	}
	return *value, nil
}

// Set creates or replaces the value stored under key.
func (r *ConfigRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO config (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upserting config %q: %w", key, err)
	}
	return nil
}
