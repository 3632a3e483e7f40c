package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const walletsSchema = `
CREATE TABLE IF NOT EXISTS wallets (
	id                uuid PRIMARY KEY,
	document          jsonb NOT NULL,
	concurrency_token uuid NOT NULL,
	updated_at        timestamptz NOT NULL DEFAULT now()
)`

// NewPostgresPool configures and returns a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// MigrateWallets creates the wallet document table if it does not exist.
func MigrateWallets(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, walletsSchema); err != nil {
		return fmt.Errorf("migrate wallets: %w", err)
	}
	return nil
}
