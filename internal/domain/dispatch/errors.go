package dispatch

import "errors"

// ErrAmbiguousScrape is returned when a parser that relies on scraped tables
// finds zero or several scraped events for one feed event.
var ErrAmbiguousScrape = errors.New("expected exactly one scraped event")
