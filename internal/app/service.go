// Package service wires the event reader, the queue, the worker pool, and
// the QA task into one pipeline run.
package service

import (
	"context"
	"errors"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	eventqueue "github.com/okian/k0sqa/internal/adapters/mq/queue"
	workerpool "github.com/okian/k0sqa/internal/adapters/mq/worker"
	"github.com/okian/k0sqa/internal/domain/selection"
	"github.com/okian/k0sqa/internal/domain/task"
	"github.com/okian/k0sqa/internal/histogram"
	"github.com/okian/k0sqa/internal/reader"
	"github.com/okian/k0sqa/internal/stats"
	"github.com/okian/k0sqa/pkg/logger"
)

// enqueueRetryDelay is how long the reader backs off when the queue is full.
const enqueueRetryDelay = 5 * time.Millisecond

// Service runs the analysis pipeline over one input file.
type Service struct {
	workerCount    int
	queueSize      int
	selector       *selection.Selector
	eventSelection bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSelector sets a selector with non-default cuts.
func WithSelector(sel *selection.Selector) Option {
	return func(s *Service) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithEventSelection gates V0 processing on the collision quality flag.
func WithEventSelection(enabled bool) Option {
	return func(s *Service) {
		s.eventSelection = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      10000,
		selector:       selection.New(),
		eventSelection: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Results holds everything a run accumulates.
type Results struct {
	Registry *histogram.Registry

	// EventsTotal and EventsSelected mirror the event counter bins.
	EventsTotal    float64
	EventsSelected float64

	// Mass summarizes the invariant-mass histogram of accepted candidates.
	Mass stats.MassSummary
}

// Run streams every event record from input through the worker pool and
// returns the filled histograms. It blocks until the input is drained or the
// context is cancelled.
func (s *Service) Run(ctx context.Context, input string) (*Results, error) {
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	r, err := reader.Open(input, reader.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	reg := histogram.NewRegistry(histogram.WithLogger(s.logger))
	tk := task.New(reg,
		task.WithSelector(s.selector),
		task.WithEventSelection(s.eventSelection),
		task.WithLogger(s.logger),
	)
	if err := tk.Book(reg); err != nil {
		return nil, err
	}

	q := eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	pool := workerpool.NewPool(s.workerCount, q, tk)
	pool.Start(ctx)

	s.logger.Info(ctx, "pipeline started",
		logger.String("input", input),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Closing the queue lets the workers drain and exit.
		defer func() { _ = q.Close() }()

		for {
			rec, err := r.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			for !q.Enqueue(gctx, rec) {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(enqueueRetryDelay):
				}
			}
		}
	})

	g.Go(func() error {
		return pool.Wait(gctx)
	})

	if err := g.Wait(); err != nil {
		pool.Stop()
		return nil, err
	}

	res, err := s.collect(reg)
	if err != nil {
		return nil, err
	}

	reg.LogSummary(ctx)
	s.logger.Info(ctx, "pipeline finished",
		logger.Int("lines", r.Line()),
		logger.Float64("events_total", res.EventsTotal),
		logger.Float64("events_selected", res.EventsSelected),
	)
	return res, nil
}

// collect reads the run-level numbers back out of the registry.
func (s *Service) collect(reg *histogram.Registry) (*Results, error) {
	total, err := reg.CounterValue(task.HistEventCounter, task.CounterTotal)
	if err != nil {
		return nil, err
	}
	selected, err := reg.CounterValue(task.HistEventCounter, task.CounterSelected)
	if err != nil {
		return nil, err
	}
	massSnap, err := reg.Histogram1D(task.HistMass)
	if err != nil {
		return nil, err
	}

	return &Results{
		Registry:       reg,
		EventsTotal:    total,
		EventsSelected: selected,
		Mass:           stats.SummarizeMass(massSnap, stats.DefaultWindowLo, stats.DefaultWindowHi),
	}, nil
}
