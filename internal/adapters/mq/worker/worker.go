// Package worker runs queued normalization jobs and records their runs.
package worker

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/mq/queue"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	"github.com/benjmor/tabroom-auto-summarize/pkg/metrics"
	"github.com/rotisserie/eris"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Normalizer turns one tournament into an outcome.
type Normalizer interface {
	Normalize(ctx context.Context, t *model.Tournament, scraped model.ScrapedData) (model.Outcome, error)
}

// Recorder persists run state transitions.
type Recorder interface {
	Get(ctx context.Context, id string) (model.Run, error)
	Save(ctx context.Context, run model.Run) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	normalizer Normalizer
	recorder   Recorder
	name       string
	now        func() time.Time
	active     *atomic.Int64

	once     sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, n Normalizer, r Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		normalizer: n,
		recorder:   r,
		name:       "worker",
		now:        time.Now,
		active:     new(atomic.Int64),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if m, ok := w.queue.(interface{ MarkDequeued() }); ok {
				m.MarkDequeued()
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "job failed", logger.String("job", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return eris.Wrap(ctx.Err(), "shutdown timed out")
	}
}

func (w *InMemoryWorker) stop() {
	w.once.Do(func() { close(w.shutdown) })
}

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	w.active.Add(1)
	defer func() {
		w.active.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx = logger.WithFields(ctx, logger.String("job", job.ID))

	run, err := w.recorder.Get(ctx, job.ID)
	if err != nil {
		run = model.Run{ID: job.ID, Key: job.Key, Tournament: job.Tournament.Name, Created: job.Submitted}
	}
	run.Status = model.RunRunning
	run.Updated = w.now()
	if err := w.recorder.Save(ctx, run); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return eris.Wrapf(err, "mark running %s", job.ID)
	}

	outcome, err := w.normalizer.Normalize(ctx, &job.Tournament, job.Scraped)
	run.Updated = w.now()
	if err != nil {
		metrics.RecordJobFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "normalize_error")
		run.Status = model.RunFailed
		run.Error = err.Error()
		if serr := w.recorder.Save(ctx, run); serr != nil {
			w.logger.Error(ctx, "could not record failed run", logger.Error(serr))
		}
		return eris.Wrapf(err, "normalize %s", job.ID)
	}

	run.Status = model.RunSucceeded
	run.Error = ""
	run.Outcome = &outcome
	if err := w.recorder.Save(ctx, run); err != nil {
		metrics.RecordJobFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return eris.Wrapf(err, "store outcome %s", job.ID)
	}
	metrics.RecordJobSucceeded()
	w.logger.Debug(ctx, "job done", logger.Int("results", len(outcome.Results)))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  *atomic.Int64
	started atomic.Bool

	shutdown chan struct{}
	updater  chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count means one worker
// per CPU.
func NewPool(workerCount int, q Queue, n Normalizer, r Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		updater:  make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, n, r, append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)...)
		w.active = pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size reports the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active reports how many workers are processing a job right now.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.started.Store(true)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	defer close(p.updater)
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerActiveCount(p.Active())
		}
	}
}

// Shutdown closes the queue, lets the workers drain what is left, and waits
// for them up to ctx's deadline (or poolShutdownTimeout).
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}
	if p.started.Load() {
		<-p.updater
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return eris.Wrap(shutdownCtx.Err(), "worker pool shutdown")
	}
	return nil
}
