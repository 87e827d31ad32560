package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrations run one at a time on a single connection. A second
// connection covers status queries issued while a run is in flight.
const defaultMaxConns = 2

// NewPool creates a pgx connection pool for the given database URL. It
// parses the connection string, labels the session so runs are easy to
// spot in pg_stat_activity, and pings the database to verify
// connectivity before any migration work starts.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	poolCfg.MaxConns = defaultMaxConns
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "sqlshift"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return pool, nil
}
