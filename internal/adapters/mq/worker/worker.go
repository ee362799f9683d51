// Package worker drains rank updates off the queue, computes fresh
// top-K snapshots, and publishes them to scope subscribers.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/verdantquest/questboard/internal/adapters/mq/queue"
	"github.com/verdantquest/questboard/internal/adapters/rankstore"
	"github.com/verdantquest/questboard/internal/domain/scope"
	"github.com/verdantquest/questboard/pkg/logger"
	"github.com/verdantquest/questboard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultSnapshotSize   = 10
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Update abstracts what workers read off the queue.
type Update = queue.Update

// Snapshotter reads the current top-K for a scope.
type Snapshotter interface {
	TopK(ctx context.Context, sc scope.Scope, k int) ([]rankstore.Entry, error)
}

// Publisher delivers a snapshot to every subscriber of a scope.
type Publisher interface {
	Publish(ctx context.Context, sc scope.Scope, entries []rankstore.Entry)
}

// Queue defines how workers receive updates.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Update
}

// Worker consumes rank updates and publishes snapshots until stopped.
type Worker struct {
	queue        Queue
	snapshots    Snapshotter
	publisher    Publisher
	name         string
	snapshotSize int

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a new worker with configuration options.
func NewWorker(q Queue, snapshots Snapshotter, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		queue:        q,
		snapshots:    snapshots,
		publisher:    publisher,
		name:         "worker",
		snapshotSize: defaultSnapshotSize,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop until ctx is canceled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	updates := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			w.process(ctx, u)
		}
	}
}

// signalStop closes the shutdown channel exactly once.
func (w *Worker) signalStop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.signalStop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process publishes a fresh snapshot for each affected scope. A scope
// that fails to snapshot is skipped; the remaining scopes still publish.
func (w *Worker) process(ctx context.Context, u Update) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	for _, sc := range u.Scopes {
		entries, err := w.snapshots.TopK(ctx, sc, w.snapshotSize)
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "snapshot_error")
			w.logger.Error(ctx, "snapshot failed",
				logger.String("scope", sc.Key()),
				logger.String("memberID", u.MemberID),
				logger.Error(err),
			)
			continue
		}
		w.publisher.Publish(ctx, sc, entries)
	}
}

// Pool manages multiple workers draining one queue.
type Pool struct {
	workers []*Worker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a worker pool of the given size.
func NewPool(workerCount int, q Queue, snapshots Snapshotter, publisher Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		named := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewWorker(q, snapshots, publisher, named...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers, waiting briefly for each to drain.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.signalStop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and stops all workers within a deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
