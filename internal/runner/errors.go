package runner

import "errors"

// ErrChecksumMismatch indicates an applied migration's on-disk script no
// longer matches the checksum recorded in the ledger.
var ErrChecksumMismatch = errors.New("migration checksum mismatch")
