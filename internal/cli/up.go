package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/voicescript/sqlshift/internal/config"
	"github.com/voicescript/sqlshift/internal/database"
	"github.com/voicescript/sqlshift/internal/ledger"
	"github.com/voicescript/sqlshift/internal/migration"
	"github.com/voicescript/sqlshift/internal/preflight"
	"github.com/voicescript/sqlshift/internal/runner"
)

// errVerifyFailed is returned when up is blocked by scripts that fail the
// syntax check.
var errVerifyFailed = errors.New("up aborted: migration scripts failed verification (use --skip-verify to override)")

// errDatabaseURLRequired is returned when no database URL is configured.
var errDatabaseURLRequired = errors.New(
	"database URL is required (set --database-url, SQLSHIFT_DATABASE_URL, or database_url in config)",
)

var upCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply every pending migration in version order, one transaction per
script. The run stops at the first failure; nothing is retried or
skipped.`,
	RunE: runUp,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	upCmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	upCmd.Flags().Bool("skip-verify", false, "skip the syntax check before applying")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cfg.DatabaseURL == "" {
		return errDatabaseURLRequired
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skipVerify, _ := cmd.Flags().GetBool("skip-verify")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()

	pool, err := connectDB(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := Logger.With("run_id", uuid.NewString())

	applied := 0

	run := runner.New(pool, ledger.New(pool), cfg.MigrationsDir,
		runner.WithDryRun(dryRun),
		runner.WithLogger(logger),
		runner.WithProgressCallback(func(event runner.ProgressEvent) {
			switch event.Status {
			case runner.StatusStarting:
				fmt.Fprintf(out, "  Applying %s ... ", event.Migration.Filename)
			case runner.StatusCompleted:
				fmt.Fprintf(out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
				applied++
			case runner.StatusFailed:
				fmt.Fprintf(out, "FAILED\n")
				fmt.Fprintf(out, "    Error: %v\n", event.Error)
			}
		}),
	)

	plan, err := run.Plan(ctx)
	if err != nil {
		return err
	}

	if plan.UpToDate() {
		fmt.Fprintln(out, "Database is up to date.")

		return nil
	}

	printPending(out, plan.Pending)

	if cfg.Verify && !skipVerify && !dryRun {
		if err := verifyPending(out, plan.Pending); err != nil {
			return err
		}
	}

	if dryRun {
		fmt.Fprintf(out, "\nDry run complete: %d migration(s) would be applied, %d already applied.\n",
			len(plan.Pending), plan.Applied)

		return nil
	}

	if _, err := run.Apply(ctx, plan); err != nil {
		fmt.Fprintln(out, "\nMigration failed. No further migrations were attempted.")

		return err
	}

	fmt.Fprintf(out, "\nApply complete: %d applied, %d already applied.\n", applied, plan.Applied)

	return nil
}

// printPending lists what the run is about to apply.
func printPending(out io.Writer, pending []migration.MigrationFile) {
	fmt.Fprintf(out, "Found %d pending migration(s):\n", len(pending))

	for i := range pending {
		fmt.Fprintf(out, "  - V%s: %s\n", pending[i].Version, pending[i].Description)
	}

	fmt.Fprintln(out)
}

// verifyPending syntax-checks pending scripts before anything touches the
// database.
func verifyPending(out io.Writer, pending []migration.MigrationFile) error {
	issues := preflight.New().CheckAll(pending)
	if len(issues) == 0 {
		return nil
	}

	for _, issue := range issues {
		fmt.Fprintf(out, "  %s: %v\n", issue.File.Filename, issue.Err)
	}

	return errVerifyFailed
}

func connectDB(ctx context.Context, cfg *config.Config, out io.Writer) (*pgxpool.Pool, error) {
	fmt.Fprintf(out, "Connecting to %s\n", config.RedactURL(cfg.DatabaseURL))

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}
