package roundstring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrMalformed marks a round-string that violates the marker grammar.
	// It signals an upstream format change and must not be swallowed.
	ErrMalformed = errors.New("malformed round string")
)
