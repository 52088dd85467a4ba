package repository

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrNotFound      = errors.New("run not found")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrInvalidRun    = errors.New("invalid run")
)
