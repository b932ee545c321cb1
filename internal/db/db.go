// Package db stores the bot's state in PostgreSQL: the key/value config
// table holding settings and the live credential, and the submission queue
// awaiting curator review.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a config key or submission does not exist.
var ErrNotFound = errors.New("not found")

const (
	// applicationName tags the bot's sessions in pg_stat_activity.
	applicationName = "submission-bot"

	defaultMaxConns    = 4
	defaultPingTimeout = 10 * time.Second
)

// DB is the bot's handle on the database.
type DB struct {
	pool *pgxpool.Pool
}

// Option adjusts the pool configuration before connecting.
type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		c.MaxConns = n
	}
}

// New connects to databaseURL and checks the connection. Chat events are
// handled concurrently but each touches the database briefly, so a small
// pool is enough.
func New(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	cfg, err := poolConfig(databaseURL, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func poolConfig(databaseURL string, opts ...Option) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	cfg.MaxConns = defaultMaxConns
	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

// Close releases every connection.
func (db *DB) Close() {
	db.pool.Close()
}

// Config returns the settings and credential store.
func (db *DB) Config() *ConfigRepository {
	return &ConfigRepository{pool: db.pool}
}

// Submissions returns the submission queue.
func (db *DB) Submissions() *SubmissionRepository {
	return &SubmissionRepository{pool: db.pool}
}
