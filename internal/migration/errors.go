package migration

import "errors"

// ErrDuplicateVersion indicates two scripts in the same directory resolve to
// the same numeric version.
var ErrDuplicateVersion = errors.New("duplicate migration version")
