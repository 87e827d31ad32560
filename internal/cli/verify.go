package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicescript/sqlshift/internal/migration"
	"github.com/voicescript/sqlshift/internal/preflight"
)

// errVerificationFailed is returned when any script fails verification.
var errVerificationFailed = errors.New("verification failed")

var verifyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "verify [migrations-dir]",
	Short: "Check migration scripts without touching the database",
	Long: `Load every migration script, check file naming, reject duplicate
versions, split each script into statements, and parse every statement
with the PostgreSQL parser. No database connection is made.`,
	RunE: runVerify,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	dir := AppConfig.MigrationsDir
	if len(args) > 0 {
		dir = args[0]
	}

	out := cmd.OutOrStdout()

	files, skipped, err := migration.LoadFromDir(dir)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	problems := 0

	for _, name := range skipped {
		fmt.Fprintf(out, "  %s: name does not match V<version>__<description>.sql\n", name)
		problems++
	}

	if len(files) == 0 && problems == 0 {
		fmt.Fprintln(out, "No migration files found.")

		return nil
	}

	issues := preflight.New().CheckAll(migration.Sort(files))
	for _, issue := range issues {
		fmt.Fprintf(out, "  %s: %v\n", issue.File.Filename, issue.Err)
	}

	problems += len(issues)

	if problems > 0 {
		fmt.Fprintf(out, "\nFound %d problem(s) across %d file(s).\n", problems, len(files)+len(skipped))

		return errVerificationFailed
	}

	fmt.Fprintf(out, "Verified %d migration file(s): no problems found.\n", len(files))

	return nil
}
