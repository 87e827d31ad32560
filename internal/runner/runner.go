package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicescript/sqlshift/internal/ledger"
	"github.com/voicescript/sqlshift/internal/migration"
	"github.com/voicescript/sqlshift/internal/sqlsplit"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressEvent is emitted for each pending migration as it is applied.
type ProgressEvent struct {
	Migration *migration.MigrationFile
	Status    string
	Duration  time.Duration
	Error     error
}

// Ledger abstracts schema_version operations for testability.
type Ledger interface {
	Ensure(ctx context.Context) error
	Applied(ctx context.Context) (map[string]string, error)
	Record(ctx context.Context, tx pgx.Tx, p ledger.RecordParams) error
}

// execFunc executes one migration's statements and records its ledger row,
// returning the measured execution duration.
type execFunc func(ctx context.Context, m *migration.MigrationFile) (time.Duration, error)

// Plan is the outcome of diffing the migrations directory against the
// ledger: what will run, how many ledger rows matched, and which files
// were ignored.
type Plan struct {
	Pending []migration.MigrationFile // not yet applied, ascending version order
	Applied int                       // ledger rows whose checksums matched
	Skipped []string                  // .sql files ignored for unrecognized names
}

// UpToDate reports whether nothing is pending.
func (p *Plan) UpToDate() bool {
	return len(p.Pending) == 0
}

// AppliedMigration records one migration committed by this run.
type AppliedMigration struct {
	Version     string
	Description string
	Duration    time.Duration
}

// Summary reports what a run did.
type Summary struct {
	Applied        []AppliedMigration // committed this run, in order
	AlreadyApplied int                // checksum-verified rows already in the ledger
	SkippedFiles   []string           // .sql files ignored for unrecognized names
	DryRun         bool
}

// Runner drives a migration run: ensure the ledger exists, resolve the
// migrations directory, validate applied scripts, and execute whatever is
// pending, one transaction per migration.
type Runner struct {
	pool       *pgxpool.Pool
	ledger     Ledger
	dir        string
	split      *sqlsplit.Splitter
	logger     *slog.Logger
	dryRun     bool
	onProgress func(ProgressEvent)
	execSQL    execFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithDialect sets the dialect used to split scripts.
func WithDialect(d sqlsplit.Dialect) Option {
	return func(r *Runner) { r.split = sqlsplit.New(d) }
}

// WithDryRun makes Apply report the plan without executing anything.
func WithDryRun(b bool) Option {
	return func(r *Runner) { r.dryRun = b }
}

// WithLogger sets the logger for run lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithProgressCallback sets a function called as each migration is applied.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// New creates a Runner over the given pool, ledger, and migrations
// directory.
func New(pool *pgxpool.Pool, lg Ledger, dir string, opts ...Option) *Runner {
	r := &Runner{
		pool:   pool,
		ledger: lg,
		dir:    dir,
		split:  sqlsplit.New(sqlsplit.Postgres),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	// The default for the injectable exec function goes in after options
	// are applied, so tests can substitute their own.
	if r.execSQL == nil {
		r.execSQL = r.executeMigration
	}

	return r
}

// Run brings the database to the latest known state. It is safe to invoke
// repeatedly: a run with nothing pending applies nothing.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	plan, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}

	return r.Apply(ctx, plan)
}

// Plan ensures the ledger exists, resolves the migrations directory, and
// diffs it against the recorded versions. Every applied script is checksum
// verified before anything is allowed to execute; a mismatch fails the
// whole run.
func (r *Runner) Plan(ctx context.Context) (*Plan, error) {
	if err := r.ledger.Ensure(ctx); err != nil {
		return nil, err
	}

	files, skipped, err := migration.LoadFromDir(r.dir)
	if err != nil {
		return nil, err
	}

	for _, name := range skipped {
		r.logger.WarnContext(ctx, "ignoring file with unrecognized name", "file", name)
	}

	if len(files) == 0 {
		r.logger.InfoContext(ctx, "no migration files found", "dir", r.dir)
	}

	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Skipped: skipped}

	for _, f := range migration.Sort(files) {
		recorded, ok := applied[f.Version]
		if !ok {
			plan.Pending = append(plan.Pending, f)

			continue
		}

		if recorded != f.Checksum {
			return nil, fmt.Errorf(
				"migration %s: %w: stored=%s computed=%s (never modify an applied migration)",
				f.Filename, ErrChecksumMismatch, recorded, f.Checksum,
			)
		}

		plan.Applied++
	}

	return plan, nil
}

// Apply executes the plan's pending migrations in order, stopping at the
// first failure. In dry-run mode it reports without executing.
func (r *Runner) Apply(ctx context.Context, plan *Plan) (*Summary, error) {
	summary := &Summary{
		AlreadyApplied: plan.Applied,
		SkippedFiles:   plan.Skipped,
		DryRun:         r.dryRun,
	}

	if plan.UpToDate() {
		r.logger.InfoContext(ctx, "database is up to date")

		return summary, nil
	}

	if r.dryRun {
		return summary, nil
	}

	for i := range plan.Pending {
		m := &plan.Pending[i]

		duration, err := r.applyOne(ctx, m)
		if err != nil {
			return nil, err
		}

		summary.Applied = append(summary.Applied, AppliedMigration{
			Version:     m.Version,
			Description: m.Description,
			Duration:    duration,
		})
	}

	return summary, nil
}

// applyOne runs a single pending migration and fires progress events.
func (r *Runner) applyOne(ctx context.Context, m *migration.MigrationFile) (time.Duration, error) {
	r.fireProgress(ProgressEvent{Migration: m, Status: StatusStarting})

	duration, err := r.execSQL(ctx, m)
	if err != nil {
		r.fireProgress(ProgressEvent{Migration: m, Status: StatusFailed, Duration: duration, Error: err})

		return duration, fmt.Errorf("executing migration %s: %w", m.Version, err)
	}

	r.fireProgress(ProgressEvent{Migration: m, Status: StatusCompleted, Duration: duration})

	return duration, nil
}

// executeMigration splits one script and runs its statements inside a
// single transaction, recording the ledger row before the commit. The
// stored duration covers start of splitting through the last statement.
func (r *Runner) executeMigration(ctx context.Context, m *migration.MigrationFile) (time.Duration, error) {
	start := time.Now()

	stmts, err := r.split.Split(m.Content)
	if err != nil {
		return time.Since(start), fmt.Errorf("splitting migration %s: %w", m.Filename, err)
	}

	var duration time.Duration

	err = ExecInTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		for i, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}

		duration = time.Since(start)

		return r.ledger.Record(ctx, tx, ledger.RecordParams{
			Version:         m.Version,
			Description:     m.Description,
			ScriptName:      m.Filename,
			Checksum:        m.Checksum,
			ExecutionTimeMs: duration.Milliseconds(),
		})
	})
	if err != nil {
		return time.Since(start), err
	}

	return duration, nil
}

func (r *Runner) fireProgress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}
