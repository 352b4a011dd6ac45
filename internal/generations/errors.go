package generations

import "errors"

// ErrNotFound indicates a generation was not found.
var ErrNotFound = errors.New("not found")
