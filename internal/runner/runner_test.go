package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicescript/sqlshift/internal/ledger"
	"github.com/voicescript/sqlshift/internal/runner"
	"github.com/voicescript/sqlshift/internal/sqlsplit"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

type stubLedger struct{}

func (stubLedger) Ensure(_ context.Context) error { return nil }

func (stubLedger) Applied(_ context.Context) (map[string]string, error) { return nil, nil }

func (stubLedger) Record(_ context.Context, _ pgx.Tx, _ ledger.RecordParams) error { return nil }

func TestNew_returnsRunner(t *testing.T) {
	t.Parallel()

	r := runner.New(nil, stubLedger{}, "migrations")
	assert.NotNil(t, r)
}

func TestNew_acceptsOptions(t *testing.T) {
	t.Parallel()

	called := false
	r := runner.New(nil, stubLedger{}, "migrations",
		runner.WithDialect(sqlsplit.ANSI),
		runner.WithDryRun(true),
		runner.WithProgressCallback(func(runner.ProgressEvent) { called = true }),
	)

	require.NotNil(t, r)
	assert.False(t, called)
}

func TestPlan_emptyDirectoryIsUpToDate(t *testing.T) {
	t.Parallel()

	r := runner.New(nil, stubLedger{}, t.TempDir())

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)

	assert.True(t, plan.UpToDate())
}

func TestApply_dryRunNeedsNoDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "V001__noop.sql", "SELECT 1;")

	r := runner.New(nil, stubLedger{}, dir, runner.WithDryRun(true))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Empty(t, summary.Applied)
}

func TestStatusConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "starting", runner.StatusStarting)
	assert.Equal(t, "completed", runner.StatusCompleted)
	assert.Equal(t, "failed", runner.StatusFailed)
}

func TestProgressEventFields(t *testing.T) {
	t.Parallel()

	event := runner.ProgressEvent{Status: runner.StatusCompleted}

	assert.Nil(t, event.Migration)
	assert.Equal(t, runner.StatusCompleted, event.Status)
	assert.Zero(t, event.Duration)
	assert.NoError(t, event.Error)
}
