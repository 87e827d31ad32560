package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/voicescript/sqlshift/internal/database"
	"github.com/voicescript/sqlshift/internal/ledger"
	"github.com/voicescript/sqlshift/internal/migration"
)

// Row states reported by status.
const (
	stateApplied = "applied"
	stateDrift   = "drift"
	stateMissing = "missing"
	statePending = "pending"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display applied and pending migrations, flagging applied scripts
whose on-disk content no longer matches the recorded checksum.`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", "text", "output format (text, json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cfg.DatabaseURL == "" {
		return errDatabaseURLRequired
	}

	format, _ := cmd.Flags().GetString("format")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	lg := ledger.New(pool)
	if err := lg.Ensure(ctx); err != nil {
		return err
	}

	entries, err := lg.Entries(ctx)
	if err != nil {
		return err
	}

	files, skipped, err := migration.LoadFromDir(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	for _, name := range skipped {
		Logger.WarnContext(ctx, "ignoring file with unrecognized name", "file", name)
	}

	rows := buildStatusRows(entries, migration.Sort(files))

	if format == "json" {
		return printStatusJSON(cmd.OutOrStdout(), rows)
	}

	printStatusText(cmd.OutOrStdout(), rows)

	return nil
}

// statusRow is one line of status output: a ledger entry, a pending
// script, or both.
type statusRow struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	State       string `json:"state"`
	AppliedAt   string `json:"applied_at,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// buildStatusRows merges ledger entries with on-disk scripts. Applied
// entries come first in ledger order, then pending scripts in version
// order.
func buildStatusRows(entries []ledger.Entry, files []migration.MigrationFile) []statusRow {
	fileByVersion := make(map[string]*migration.MigrationFile, len(files))
	for i := range files {
		fileByVersion[files[i].Version] = &files[i]
	}

	rows := make([]statusRow, 0, len(entries)+len(files))
	recorded := make(map[string]bool, len(entries))

	for _, e := range entries {
		recorded[e.Version] = true

		state := stateApplied

		switch f, ok := fileByVersion[e.Version]; {
		case !ok:
			state = stateMissing
		case f.Checksum != e.Checksum:
			state = stateDrift
		}

		rows = append(rows, statusRow{
			Version:     e.Version,
			Description: e.Description,
			State:       state,
			AppliedAt:   e.ExecutedAt.Format("2006-01-02 15:04:05"),
			Duration:    (time.Duration(e.ExecutionTimeMs) * time.Millisecond).String(),
		})
	}

	for i := range files {
		if recorded[files[i].Version] {
			continue
		}

		rows = append(rows, statusRow{
			Version:     files[i].Version,
			Description: files[i].Description,
			State:       statePending,
		})
	}

	return rows
}

func printStatusText(out io.Writer, rows []statusRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tDESCRIPTION\tSTATE\tAPPLIED AT\tDURATION")

	applied := 0
	pending := 0
	drifted := 0

	for _, r := range rows {
		fmt.Fprintf(w, "V%s\t%s\t%s\t%s\t%s\n", r.Version, r.Description, r.State, r.AppliedAt, r.Duration)

		switch r.State {
		case statePending:
			pending++
		case stateDrift:
			drifted++
			applied++
		default:
			applied++
		}
	}

	w.Flush() //nolint:errcheck // tabwriter wraps the underlying writer's errors

	fmt.Fprintf(out, "\n%d applied, %d pending.\n", applied, pending)

	if drifted > 0 {
		fmt.Fprintf(out, "WARNING: %d applied script(s) changed on disk. Never modify an applied migration.\n", drifted)
	}
}

func printStatusJSON(out io.Writer, rows []statusRow) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	return nil
}
