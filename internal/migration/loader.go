package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// filenamePattern matches versioned migration scripts:
//
//	V{version}__{description}.sql  (e.g., V001__create_widgets.sql)
var filenamePattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by LoadFromDir
	`^V(\d+)__(.+)\.sql$`,
)

// LoadFromDir scans a directory for migration scripts and returns them
// unsorted, together with the names of .sql files that were skipped because
// they do not match the naming pattern. A missing directory is not an error:
// it yields zero migrations, the same as a deployment that ships no schema
// changes.
func LoadFromDir(dir string) ([]MigrationFile, []string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	var (
		files   []MigrationFile
		skipped []string
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		matches := filenamePattern.FindStringSubmatch(name)
		if matches == nil {
			if filepath.Ext(name) == ".sql" {
				skipped = append(skipped, name)
			}

			continue
		}

		f, err := readFile(dir, name, matches[1], matches[2])
		if err != nil {
			return nil, nil, err
		}

		files = append(files, f)
	}

	if err := checkDuplicates(files); err != nil {
		return nil, nil, err
	}

	return files, skipped, nil
}

// readFile reads one script and builds its MigrationFile. The checksum is
// taken over the content exactly as read.
func readFile(dir, name, version, rawDescription string) (MigrationFile, error) {
	path := filepath.Join(dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return MigrationFile{}, fmt.Errorf("reading migration file %s: %w", path, err)
	}

	content := string(data)

	return MigrationFile{
		Version:     version,
		Description: strings.ReplaceAll(rawDescription, "_", " "),
		Filename:    name,
		Path:        path,
		Content:     content,
		Checksum:    ComputeChecksum(content),
	}, nil
}

// checkDuplicates rejects two scripts carrying the same numeric version,
// e.g. V1__a.sql next to V001__b.sql. Letting both through would make the
// apply order and the ledger join ambiguous.
func checkDuplicates(files []MigrationFile) error {
	seen := make(map[string]string, len(files))

	for _, f := range files {
		key := trimLeadingZeros(f.Version)

		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateVersion, prev, f.Filename)
		}

		seen[key] = f.Filename
	}

	return nil
}
