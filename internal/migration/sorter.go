package migration

import (
	"sort"
	"strings"
)

// Sort returns a new slice sorted ascending by numeric version, so V010
// sorts after V002 regardless of digit width. The sort is stable to
// preserve directory order for equal versions.
func Sort(files []MigrationFile) []MigrationFile {
	sorted := make([]MigrationFile, len(files))
	copy(sorted, files)

	sort.SliceStable(sorted, func(i, j int) bool {
		return versionLess(sorted[i].Version, sorted[j].Version)
	})

	return sorted
}

// versionLess compares two digit strings by numeric value without parsing
// them into integers, so arbitrary-width versions cannot overflow.
func versionLess(a, b string) bool {
	a = trimLeadingZeros(a)
	b = trimLeadingZeros(b)

	if len(a) != len(b) {
		return len(a) < len(b)
	}

	return a < b
}

func trimLeadingZeros(v string) string {
	trimmed := strings.TrimLeft(v, "0")
	if trimmed == "" {
		return "0"
	}

	return trimmed
}
