package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/pkg/metrics"
	"github.com/rotisserie/eris"
)

// MemoryStore keeps runs in a map plus a creation-ordered index.
//
// Writers take the lock and drop the published listing; the next List
// rebuilds it once and every later reader shares it until the next write.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]model.Run
	order   []string // creation order, oldest first
	maxRuns int
	now     func() time.Time

	// listing is the newest-first summary snapshot, nil when stale.
	listing atomic.Pointer[[]model.Run]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		runs: make(map[string]model.Run),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save inserts or replaces a run.
func (s *MemoryStore) Save(ctx context.Context, run model.Run) error { //nolint:gocritic // hugeParam: runs are values
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if err := validate(&run); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "save run")
	}
	if run.Created.IsZero() {
		run.Created = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
		s.evictLocked()
	}
	s.runs[run.ID] = run
	s.listing.Store(nil)
	metrics.UpdateRepositoryRunsTotal(len(s.runs))
	return nil
}

func (s *MemoryStore) evictLocked() {
	if s.maxRuns <= 0 {
		return
	}
	for len(s.order) > s.maxRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns a run by id.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return model.Run{}, eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return run, nil
}

// List returns run summaries, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]model.Run, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	all := s.snapshot()
	limit = clampLimit(limit)
	if limit > len(all) {
		limit = len(all)
	}
	out := make([]model.Run, limit)
	copy(out, all[:limit])
	return out, nil
}

func (s *MemoryStore) snapshot() []model.Run {
	if p := s.listing.Load(); p != nil {
		return *p
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]].Summary())
	}
	s.listing.Store(&out)
	return out
}

// Count returns the number of stored runs.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
