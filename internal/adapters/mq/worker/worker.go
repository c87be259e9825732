// Package worker runs the analysis task over queued event records.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/k0sqa/internal/domain/model"
	"github.com/okian/k0sqa/pkg/logger"
	"github.com/okian/k0sqa/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.EventRecord

// Processor consumes one event record, filling the histogram sink.
type Processor interface {
	ProcessEvent(ctx context.Context, rec model.EventRecord) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing event records.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
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

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Queue closed and drained, worker is done.
				return
			}

			if err := w.processor.ProcessEvent(ctx, event); err != nil {
				metrics.RecordWorkerError()
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages multiple workers filling a shared histogram sink.
type Pool struct {
	workers []*InMemoryWorker

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, processor Processor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			processor,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Wait blocks until every worker has finished. Workers finish when the queue
// closes and drains, or when their context is cancelled.
func (p *Pool) Wait(ctx context.Context) error {
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "wait cancelled", logger.Int("worker_id", i))
			return ctx.Err()
		}
	}
	return nil
}

// Stop forcefully stops all workers that have not finished yet.
func (p *Pool) Stop() {
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Already finished.
		default:
			select {
			case <-worker.shutdown:
			default:
				close(worker.shutdown)
			}
		}
	}

	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}
