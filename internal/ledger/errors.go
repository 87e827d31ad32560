package ledger

import "errors"

// ErrTableCreation indicates the schema_version table could not be created.
var ErrTableCreation = errors.New("creating schema_version table")

// ErrDuplicateVersion indicates an insert hit a version that is already
// recorded. The pending set is computed before execution, so this points at
// a concurrent runner rather than normal operation.
var ErrDuplicateVersion = errors.New("duplicate ledger version")
