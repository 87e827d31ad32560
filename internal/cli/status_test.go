package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicescript/sqlshift/internal/config"
	"github.com/voicescript/sqlshift/internal/ledger"
	"github.com/voicescript/sqlshift/internal/migration"
)

func TestBuildStatusRows(t *testing.T) {
	t.Parallel()

	appliedAt := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		entries []ledger.Entry
		files   []migration.MigrationFile
		check   func(t *testing.T, rows []statusRow)
	}{
		{
			name: "applied entry with matching file",
			entries: []ledger.Entry{
				{Version: "001", Description: "create widgets", Checksum: migration.ComputeChecksum("SELECT 1;"), ExecutedAt: appliedAt, ExecutionTimeMs: 12},
			},
			files: []migration.MigrationFile{
				{Version: "001", Description: "create widgets", Checksum: migration.ComputeChecksum("SELECT 1;")},
			},
			check: func(t *testing.T, rows []statusRow) {
				t.Helper()
				require.Len(t, rows, 1)
				assert.Equal(t, stateApplied, rows[0].State)
				assert.Equal(t, "2026-08-20 09:30:00", rows[0].AppliedAt)
				assert.Equal(t, "12ms", rows[0].Duration)
			},
		},
		{
			name: "applied entry with changed file is drift",
			entries: []ledger.Entry{
				{Version: "001", Checksum: migration.ComputeChecksum("SELECT 1;"), ExecutedAt: appliedAt},
			},
			files: []migration.MigrationFile{
				{Version: "001", Checksum: migration.ComputeChecksum("SELECT 1; -- edited")},
			},
			check: func(t *testing.T, rows []statusRow) {
				t.Helper()
				require.Len(t, rows, 1)
				assert.Equal(t, stateDrift, rows[0].State)
			},
		},
		{
			name: "applied entry without file is missing",
			entries: []ledger.Entry{
				{Version: "001", Checksum: migration.ComputeChecksum("SELECT 1;"), ExecutedAt: appliedAt},
			},
			check: func(t *testing.T, rows []statusRow) {
				t.Helper()
				require.Len(t, rows, 1)
				assert.Equal(t, stateMissing, rows[0].State)
			},
		},
		{
			name: "unapplied file is pending with no timestamp",
			files: []migration.MigrationFile{
				{Version: "002", Description: "add index"},
			},
			check: func(t *testing.T, rows []statusRow) {
				t.Helper()
				require.Len(t, rows, 1)
				assert.Equal(t, statePending, rows[0].State)
				assert.Empty(t, rows[0].AppliedAt)
				assert.Empty(t, rows[0].Duration)
			},
		},
		{
			name: "applied rows come before pending rows",
			entries: []ledger.Entry{
				{Version: "001", Checksum: migration.ComputeChecksum("a"), ExecutedAt: appliedAt},
			},
			files: []migration.MigrationFile{
				{Version: "001", Checksum: migration.ComputeChecksum("a")},
				{Version: "002"},
				{Version: "003"},
			},
			check: func(t *testing.T, rows []statusRow) {
				t.Helper()
				require.Len(t, rows, 3)
				assert.Equal(t, stateApplied, rows[0].State)
				assert.Equal(t, "002", rows[1].Version)
				assert.Equal(t, "003", rows[2].Version)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.check(t, buildStatusRows(tt.entries, tt.files))
		})
	}
}

func TestPrintStatusText_formatsTable(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	rows := []statusRow{
		{Version: "001", Description: "create widgets", State: stateApplied, AppliedAt: "2026-08-20 09:30:00"},
		{Version: "002", Description: "add index", State: statePending},
	}

	printStatusText(buf, rows)

	output := buf.String()
	assert.Contains(t, output, "VERSION")
	assert.Contains(t, output, "V001")
	assert.Contains(t, output, "pending")
	assert.Contains(t, output, "1 applied, 1 pending.")
	assert.NotContains(t, output, "WARNING")
}

func TestPrintStatusText_driftPrintsWarning(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	rows := []statusRow{
		{Version: "001", Description: "create widgets", State: stateDrift, AppliedAt: "2026-08-20 09:30:00"},
	}

	printStatusText(buf, rows)

	assert.Contains(t, buf.String(), "Never modify an applied migration")
}

func TestPrintStatusJSON_encodesRows(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	rows := []statusRow{
		{Version: "001", Description: "create widgets", State: stateApplied, AppliedAt: "2026-08-20 09:30:00"},
	}

	require.NoError(t, printStatusJSON(buf, rows))

	var decoded []statusRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rows, decoded)
}

func TestRunStatus_noDatabaseURL_returnsError(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	AppConfig = &config.Config{MigrationsDir: "./testdata/migrations"}

	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.Flags().String("format", "text", "")
	cmd.SetOut(buf)

	err := runStatus(cmd, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDatabaseURLRequired)
}
