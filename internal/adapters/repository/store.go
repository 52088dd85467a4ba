// Package repository persists normalization runs.
package repository

import (
	"context"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/rotisserie/eris"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

const defaultListLimit = 100

// Store provides read/write access to runs.
type Store interface {
	// Save inserts or replaces a run by id.
	Save(ctx context.Context, run model.Run) error

	// Get returns a run. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.Run, error)

	// List returns up to limit runs, newest first. A non-positive limit
	// falls back to 100.
	List(ctx context.Context, limit int) ([]model.Run, error)

	// Count returns the number of stored runs.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Open returns the store for driver. path is only read by sqlite.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		st, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Wrapf(ErrUnknownDriver, "%q", driver)
	}
}

func validate(run *model.Run) error {
	if run.ID == "" {
		return eris.Wrap(ErrInvalidRun, "empty id")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
