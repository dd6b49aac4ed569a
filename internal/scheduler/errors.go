package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyPassing is returned when skip targets a feature that already
// passes; skipping completed work is rejected as nonsensical.
var ErrAlreadyPassing = errors.New("cannot skip a feature that is already passing")

// ValidationError reports the first malformed entry in a bulk-create batch.
// The whole batch is rejected; nothing is created.
type ValidationError struct {
	Index   int
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feature at index %d missing required fields (%s)", e.Index, strings.Join(e.Missing, ", "))
}
