package scrape

import "errors"

// ErrNoTable is returned when a page carries no result table.
var ErrNoTable = errors.New("no result table")
