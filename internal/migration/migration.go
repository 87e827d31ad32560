package migration

import (
	"crypto/sha256"
	"encoding/hex"
)

// MigrationFile is a single versioned SQL script discovered on disk.
type MigrationFile struct {
	Version     string // digits from the filename, kept verbatim ("001")
	Description string // filename description with underscores as spaces
	Filename    string // base name, recorded in the ledger
	Path        string // full path the content was read from
	Content     string // raw script text, read once per run
	Checksum    string // SHA-256 hex digest of Content
}

// ComputeChecksum returns the SHA-256 hex digest of the given script text.
// It hashes the exact bytes read from disk; callers must not trim or
// normalize first, or whitespace-only edits to an applied script would go
// undetected.
func ComputeChecksum(content string) string {
	h := sha256.Sum256([]byte(content))

	return hex.EncodeToString(h[:])
}
