// Package worker resolves partner detail payloads off the resolution queue.
//
// Each job resolves the partner profile and the talking points in parallel.
// The two parts fail independently and the combined result is handed to a
// Sink, which decides whether it is still relevant.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/rendezvous/internal/adapters/repository"
	"github.com/okian/rendezvous/internal/domain/model"
	"github.com/okian/rendezvous/pkg/logger"
	"github.com/okian/rendezvous/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Default worker configuration constants.
const (
	defaultWorkers      = 2
	defaultJobTimeout   = 10 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Resolution parts, used as metric labels.
const (
	PartProfile       = "profile"
	PartTalkingPoints = "talking_points"
)

// Resolver looks up the two parts of a detail payload.
type Resolver interface {
	ResolveProfile(ctx context.Context, id string) (model.User, error)
	ResolveTalkingPoints(ctx context.Context, selfID, partnerID string) (model.TalkingPoints, error)
}

// Sink receives finished results.
type Sink interface {
	Deliver(ctx context.Context, res model.ResolveResult)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res model.ResolveResult)

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, res model.ResolveResult) { f(ctx, res) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.ResolveJob
}

// InMemoryWorker resolves jobs from a queue until shut down.
type InMemoryWorker struct {
	queue      Queue
	resolver   Resolver
	sink       Sink
	name       string
	jobTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, resolver Resolver, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		resolver:   resolver,
		sink:       sink,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.GetOrNop().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until ctx is done, Shutdown is called or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := w.queue.Dequeue(runCtx)
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
			w.sink.Deliver(ctx, w.Resolve(ctx, job))
		}
	}
}

// Shutdown stops the worker and waits for the job in flight.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Resolve fetches both parts of job concurrently.
func (w *InMemoryWorker) Resolve(ctx context.Context, job model.ResolveJob) model.ResolveResult {
	start := time.Now()
	defer func() {
		metrics.RecordResolutionLatency(float64(time.Since(start).Milliseconds()))
	}()

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	res := model.ResolveResult{Job: job}
	var g errgroup.Group
	g.Go(func() error {
		u, err := w.resolver.ResolveProfile(jobCtx, job.PartnerID)
		w.observe(ctx, job, PartProfile, err)
		if err != nil {
			res.ProfileErr = err
			return nil
		}
		res.Profile = &u
		return nil
	})
	g.Go(func() error {
		tp, err := w.resolver.ResolveTalkingPoints(jobCtx, job.SelfID, job.PartnerID)
		w.observe(ctx, job, PartTalkingPoints, err)
		if err != nil {
			res.TalkingPointsErr = err
			return nil
		}
		res.TalkingPoints = &tp
		return nil
	})
	_ = g.Wait()

	return res
}

func (w *InMemoryWorker) observe(ctx context.Context, job model.ResolveJob, part string, err error) {
	switch {
	case err == nil:
		metrics.RecordResolution(part, "ok")
	case errors.Is(err, repository.ErrNotFound):
		metrics.RecordResolution(part, "not_found")
		w.logger.Debug(ctx, "detail part not found",
			logger.String("part", part),
			logger.String("partner_id", job.PartnerID))
	default:
		metrics.RecordResolution(part, "error")
		metrics.RecordErrorByComponent("worker", part+"_error")
		w.logger.Error(ctx, "detail part resolution failed",
			logger.String("part", part),
			logger.String("partner_id", job.PartnerID),
			logger.Error(err))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger

	mu      sync.Mutex
	started bool
}

// NewPool creates a worker pool. opts apply to every worker.
func NewPool(workerCount int, queue Queue, resolver Resolver, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkers
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.GetOrNop().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, resolver, sink, workerOpts...)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateResolverWorkers(len(p.workers))
}

// Shutdown closes the queue and stops every worker.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	metrics.UpdateResolverWorkers(0)
	return errors.Join(errs...)
}
