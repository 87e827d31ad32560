package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for a primary key conflict.
const uniqueViolation = "23505"

// Entry is one row of the schema_version table: a migration that was
// applied, when, and what its script hashed to at the time.
type Entry struct {
	Version         string
	Description     string
	ScriptName      string
	Checksum        string
	ExecutedAt      time.Time
	ExecutionTimeMs int64
	Success         bool
}

// RecordParams contains the fields needed to record an applied migration.
type RecordParams struct {
	Version         string
	Description     string
	ScriptName      string
	Checksum        string
	ExecutionTimeMs int64
}

// Ledger manages the schema_version table.
type Ledger struct {
	pool *pgxpool.Pool
}

// New creates a Ledger backed by the given connection pool.
func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Ensure creates the schema_version table if it does not exist. Safe to
// call on every run.
func (l *Ledger) Ensure(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, createLedgerSQL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// Applied returns a map of version to recorded checksum for every row
// currently in the ledger.
func (l *Ledger) Applied(ctx context.Context) (map[string]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT version, checksum FROM schema_version`)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]string)

	for rows.Next() {
		var version, checksum string

		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}

		applied[version] = checksum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger rows: %w", err)
	}

	return applied, nil
}

// Entries returns every ledger row for display, in numeric version order.
// The cast is safe: only digit strings ever reach the version column.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT version, description, script_name, checksum, executed_at, execution_time_ms, success
		 FROM schema_version
		 ORDER BY version::numeric`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ledger entries: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		if scanErr := row.Scan(&e.Version, &e.Description, &e.ScriptName, &e.Checksum, &e.ExecutedAt, &e.ExecutionTimeMs, &e.Success); scanErr != nil {
			return Entry{}, fmt.Errorf("scanning ledger row: %w", scanErr)
		}

		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting ledger entries: %w", err)
	}

	return entries, nil
}

// Record inserts one ledger row inside the caller's transaction, so a
// migration's statements and its ledger row commit or roll back together.
// Success is always true: a failed migration never reaches the insert.
func (l *Ledger) Record(ctx context.Context, tx pgx.Tx, p RecordParams) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO schema_version (version, description, script_name, checksum, execution_time_ms, success)
		 VALUES ($1, $2, $3, $4, $5, TRUE)`,
		p.Version, p.Description, p.ScriptName, p.Checksum, p.ExecutionTimeMs,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("recording migration %s: %w: %w", p.Version, ErrDuplicateVersion, err)
		}

		return fmt.Errorf("recording migration %s: %w", p.Version, err)
	}

	return nil
}
