package export

import "errors"

// ErrEmptyOutcome is returned when there is nothing to export.
var ErrEmptyOutcome = errors.New("outcome has no results")
