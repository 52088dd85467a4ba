package normalize

import (
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/schoolname"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. It is shared with the dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCanonicalizer shares a short-name memo across runs.
func WithCanonicalizer(c *schoolname.Canonicalizer) Option {
	return func(e *Engine) {
		if c != nil {
			e.schools = c
		}
	}
}

// WithRemoveDuplicatePrelims toggles dropping prelim rows shadowed by
// final places.
func WithRemoveDuplicatePrelims(on bool) Option {
	return func(e *Engine) { e.removeDuplicatePrelims = on }
}

// WithSubstituteFullNames toggles replacing entry names with scraped full
// names.
func WithSubstituteFullNames(on bool) Option {
	return func(e *Engine) { e.substituteFullNames = on }
}

// WithStrictRoundStrings makes a malformed hidden round string fail the run.
// When off, the string is kept as text and counted in the stats.
func WithStrictRoundStrings(on bool) Option {
	return func(e *Engine) { e.strictRounds = on }
}
