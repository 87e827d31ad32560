package migration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicescript/sqlshift/internal/migration"
)

func TestLoadFromDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		setup       func(t *testing.T) string // returns directory path
		wantErr     bool
		errContains string
		check       func(t *testing.T, files []migration.MigrationFile, skipped []string)
	}{
		{
			name: "loads from testdata directory",
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join("..", "..", "testdata", "migrations")
			},
			check: func(t *testing.T, files []migration.MigrationFile, skipped []string) {
				t.Helper()
				assert.Len(t, files, 6, "expected 6 versioned scripts")
				assert.Equal(t, []string{"setup.sql"}, skipped)

				byVersion := indexByVersion(t, files)

				v001 := byVersion["001"]
				require.NotNil(t, v001, "V001 should exist")
				assert.Equal(t, "create speakers", v001.Description)
				assert.Equal(t, "V001__create_speakers.sql", v001.Filename)
				assert.Contains(t, v001.Content, "CREATE TABLE")
				assert.Len(t, v001.Checksum, 64)
				assert.True(t, strings.HasSuffix(v001.Path, "V001__create_speakers.sql"))
			},
		},
		{
			name: "missing directory yields zero migrations",
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "nonexistent")
			},
			check: func(t *testing.T, files []migration.MigrationFile, skipped []string) {
				t.Helper()
				assert.Empty(t, files)
				assert.Empty(t, skipped)
			},
		},
		{
			name: "empty directory returns empty slice",
			setup: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			check: func(t *testing.T, files []migration.MigrationFile, _ []string) {
				t.Helper()
				assert.Empty(t, files)
			},
		},
		{
			name: "non-sql files are ignored without warnings",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "README.md", "# readme")
				writeFile(t, dir, "notes.txt", "some notes")

				return dir
			},
			check: func(t *testing.T, files []migration.MigrationFile, skipped []string) {
				t.Helper()
				assert.Empty(t, files)
				assert.Empty(t, skipped)
			},
		},
		{
			name: "misnamed sql files are reported as skipped",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "readme.sql", "SELECT 1;")
				writeFile(t, dir, "1_foo.sql", "SELECT 1;")
				writeFile(t, dir, "V2_missing_separator.sql", "SELECT 1;")
				writeFile(t, dir, "V001__ok.sql", "SELECT 1;")

				return dir
			},
			check: func(t *testing.T, files []migration.MigrationFile, skipped []string) {
				t.Helper()
				require.Len(t, files, 1)
				assert.Equal(t, "001", files[0].Version)
				assert.ElementsMatch(t, []string{"readme.sql", "1_foo.sql", "V2_missing_separator.sql"}, skipped)
			},
		},
		{
			name: "description underscores become spaces",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "V002__add_transcript_column.sql", "ALTER TABLE recordings ADD COLUMN transcript TEXT;")

				return dir
			},
			check: func(t *testing.T, files []migration.MigrationFile, _ []string) {
				t.Helper()
				require.Len(t, files, 1)
				assert.Equal(t, "002", files[0].Version)
				assert.Equal(t, "add transcript column", files[0].Description)
			},
		},
		{
			name: "checksum is computed correctly",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "V001__test.sql", "SELECT 1;")

				return dir
			},
			check: func(t *testing.T, files []migration.MigrationFile, _ []string) {
				t.Helper()
				require.Len(t, files, 1)
				expected := migration.ComputeChecksum("SELECT 1;")
				assert.Equal(t, expected, files[0].Checksum)
			},
		},
		{
			name: "content is not trimmed before checksum",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "V001__test.sql", "  SELECT 1;  \n")

				return dir
			},
			check: func(t *testing.T, files []migration.MigrationFile, _ []string) {
				t.Helper()
				require.Len(t, files, 1)
				assert.Equal(t, "  SELECT 1;  \n", files[0].Content)
				assert.Equal(t, migration.ComputeChecksum("  SELECT 1;  \n"), files[0].Checksum)
				assert.NotEqual(t, migration.ComputeChecksum("SELECT 1;"), files[0].Checksum)
			},
		},
		{
			name: "duplicate numeric versions are rejected",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "V1__first.sql", "SELECT 1;")
				writeFile(t, dir, "V001__second.sql", "SELECT 2;")

				return dir
			},
			wantErr:     true,
			errContains: "duplicate migration version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := tt.setup(t)
			files, skipped, err := migration.LoadFromDir(dir)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, files, skipped)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func indexByVersion(t *testing.T, files []migration.MigrationFile) map[string]*migration.MigrationFile {
	t.Helper()

	index := make(map[string]*migration.MigrationFile, len(files))
	for i := range files {
		index[files[i].Version] = &files[i]
	}

	return index
}
