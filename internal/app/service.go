// Package service provides the core business service behind the HTTP API
// and the CLI: synchronous normalization, queued jobs, and run lookups.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/mq/queue"
	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/mq/worker"
	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/repository"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/dedupe"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/normalize"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/types"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	"github.com/benjmor/tabroom-auto-summarize/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const stopTimeout = 30 * time.Second

// Service wires store, deduper, queue, worker pool and engine.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	ownsStore  bool
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	pool       *worker.Pool
	engine     *normalize.Engine
	normalizer meteredEngine

	workerCount int
	queueSize   int
	dedupeSize  int
	storeDriver string
	storePath   string
	engineOpts  []normalize.Option

	// submitMu serializes the dedupe check with the key index update.
	submitMu sync.Mutex
	byKey    map[string]string

	submitted  atomic.Int64
	duplicates atomic.Int64

	started bool
	now     func() time.Time
	newID   func() string
	logger  logger.Logger
}

// New constructs a Service. The engine is usable right away; queued jobs
// need Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
		storeDriver: repository.DriverMemory,
		byKey:       make(map[string]string),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.engine = normalize.New(append([]normalize.Option{normalize.WithLogger(s.logger.Named("engine"))}, s.engineOpts...)...)
	s.normalizer = meteredEngine{engine: s.engine}
	return s
}

// Start opens the store and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting normalization service...")

	if s.store == nil {
		st, err := repository.Open(ctx, s.storeDriver, s.storePath)
		if err != nil {
			return eris.Wrap(err, "open run store")
		}
		s.store, s.ownsStore = st, true
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.normalizer, s.store,
		worker.WithClock(s.now), worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "normalization service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("store", s.storeDriver),
	)
	return nil
}

// Stop drains queued jobs and closes the store it opened.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping normalization service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing run store", logger.Error(err))
		}
		s.store, s.ownsStore = nil, false
	}

	s.started = false
	s.logger.Info(ctx, "normalization service stopped")
}

// ContentKey hashes a submission so identical payloads share a run.
func ContentKey(t *model.Tournament, scraped model.ScrapedData) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(t); err != nil {
		return "", eris.Wrap(err, "hash tournament")
	}
	if err := enc.Encode(scraped); err != nil {
		return "", eris.Wrap(err, "hash scraped data")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Submit queues a tournament for normalization. Resubmitting a payload that
// is still remembered returns the existing run with Duplicate set.
func (s *Service) Submit(ctx context.Context, t *model.Tournament, scraped model.ScrapedData) (types.JobAccepted, error) {
	if t == nil {
		return types.JobAccepted{}, eris.Wrap(normalize.ErrNilTournament, "submit")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.JobAccepted{}, ErrNotStarted
	}

	key, err := ContentKey(t, scraped)
	if err != nil {
		return types.JobAccepted{}, err
	}

	s.submitMu.Lock()
	if s.deduper.SeenAndRecord(ctx, key) {
		id := s.byKey[key]
		s.submitMu.Unlock()
		s.duplicates.Add(1)
		metrics.RecordJobDuplicate()
		return types.JobAccepted{JobID: id, Status: types.StatusDuplicate, Duplicate: true}, nil
	}
	id := s.newID()
	s.byKey[key] = id
	s.pruneKeysLocked(ctx)
	s.submitMu.Unlock()

	now := s.now()
	run := model.Run{ID: id, Key: key, Tournament: t.Name, Status: model.RunQueued, Created: now, Updated: now}
	if err := s.store.Save(ctx, run); err != nil {
		s.forget(ctx, key)
		return types.JobAccepted{}, eris.Wrap(err, "store queued run")
	}

	job := model.Job{ID: id, Key: key, Tournament: *t, Scraped: scraped, Submitted: now}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.forget(ctx, key)
		run.Status, run.Error, run.Updated = model.RunFailed, err.Error(), s.now()
		if serr := s.store.Save(ctx, run); serr != nil {
			s.logger.Warn(ctx, "could not record rejected run", logger.String("job", id), logger.Error(serr))
		}
		return types.JobAccepted{}, eris.Wrapf(err, "enqueue %s", id)
	}

	s.submitted.Add(1)
	metrics.RecordJobSubmitted()
	s.logger.Debug(ctx, "job queued", logger.String("job", id), logger.String("tournament", t.Name))
	return types.JobAccepted{JobID: id, Status: types.StatusAccepted}, nil
}

func (s *Service) forget(ctx context.Context, key string) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	s.deduper.Unrecord(ctx, key)
	delete(s.byKey, key)
}

// pruneKeysLocked drops index entries the deduper has already evicted.
func (s *Service) pruneKeysLocked(ctx context.Context) {
	if len(s.byKey) <= 2*s.dedupeSize {
		return
	}
	for k := range s.byKey {
		if !s.deduper.Contains(ctx, k) {
			delete(s.byKey, k)
		}
	}
}

// NormalizeNow runs the engine inline.
func (s *Service) NormalizeNow(ctx context.Context, t *model.Tournament, scraped model.ScrapedData) (model.Outcome, error) {
	return s.normalizer.Normalize(ctx, t, scraped)
}

// Run returns one stored run.
func (s *Service) Run(ctx context.Context, id string) (model.Run, error) {
	st, err := s.runStore()
	if err != nil {
		return model.Run{}, err
	}
	return st.Get(ctx, id)
}

// Runs lists run summaries, newest first.
func (s *Service) Runs(ctx context.Context, limit int) (types.RunList, error) {
	st, err := s.runStore()
	if err != nil {
		return types.RunList{}, err
	}
	runs, err := st.List(ctx, limit)
	if err != nil {
		return types.RunList{}, err
	}
	total, err := st.Count(ctx)
	if err != nil {
		return types.RunList{}, err
	}
	if runs == nil {
		runs = []model.Run{}
	}
	return types.RunList{Runs: runs, Total: total}, nil
}

// Results returns the filtered results of a finished run.
func (s *Service) Results(ctx context.Context, id string, filter types.ResultFilter) ([]model.Result, error) {
	run, err := s.Run(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Outcome == nil {
		return nil, eris.Wrapf(ErrRunNotReady, "run %s is %s", id, run.Status)
	}
	return filter.Apply(run.Outcome.Results), nil
}

// ShortName exposes the engine's school-name canonicalizer.
func (s *Service) ShortName(name string) string {
	return s.engine.ShortName(name)
}

func (s *Service) runStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"storeDriver": s.storeDriver,
		"submitted":   s.submitted.Load(),
		"duplicates":  s.duplicates.Load(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["activeWorkers"] = s.pool.Active()
		stats["dedupeEntries"] = s.deduper.Size()
		if n, err := s.store.Count(ctx); err == nil {
			stats["runs"] = n
			metrics.UpdateRepositoryRunsTotal(n)
		}
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
