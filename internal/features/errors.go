package features

import "errors"

// ErrNotFound is returned when a referenced feature id does not exist.
var ErrNotFound = errors.New("feature not found")
