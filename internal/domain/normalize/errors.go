package normalize

import "errors"

// ErrNilTournament is returned when no tournament feed is supplied.
var ErrNilTournament = errors.New("tournament is nil")
