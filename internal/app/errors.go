package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrRunNotReady = errors.New("run has no outcome yet")
)
