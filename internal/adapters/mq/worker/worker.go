package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/interviewsched/internal/adapters/mq/queue"
	"github.com/okian/interviewsched/internal/domain/pipeline"
	"github.com/okian/interviewsched/pkg/logger"
	"github.com/okian/interviewsched/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount     = 2
	defaultDeliveryTimeout = 10 * time.Second
	poolShutdownTimeout    = 30 * time.Second
)

// ErrShutdownTimeout is returned when workers did not drain in time.
var ErrShutdownTimeout = errors.New("worker shutdown timed out")

var _ pipeline.Notifier = (*Pool)(nil)

// Queue defines how workers receive announcements.
type Queue interface {
	Enqueue(ctx context.Context, it queue.Item) error
	Dequeue() <-chan queue.Item
	Len() int
	Close() error
}

// Worker delivers announcements until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for the worker loop to end.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one delivery goroutine.
type InMemoryWorker struct {
	queue     Queue
	notifiers []pipeline.Notifier
	name      string
	timeout   time.Duration

	done chan struct{}

	logger logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		name:    "worker",
		timeout: defaultDeliveryTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewInMemoryWorker creates a worker delivering every item to each notifier.
func NewInMemoryWorker(q Queue, notifiers []pipeline.Notifier, opts ...Option) *InMemoryWorker {
	s := newSettings(opts)
	return &InMemoryWorker{
		queue:     q,
		notifiers: notifiers,
		name:      s.name,
		timeout:   s.timeout,
		done:      make(chan struct{}),
		logger:    s.logger.Named(s.name),
	}
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			metrics.UpdateNotificationQueueDepth(w.queue.Len())
			w.deliver(ctx, it)
		}
	}
}

// Shutdown waits for the worker loop to end. Close the queue first.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// deliver hands one announcement to every notifier. A failing notifier does
// not stop the others.
func (w *InMemoryWorker) deliver(ctx context.Context, it queue.Item) { //nolint:gocritic // hugeParam: items arrive by value off the channel
	for _, n := range w.notifiers {
		dctx, cancel := context.WithTimeout(ctx, w.timeout)
		err := n.Notify(dctx, it)
		cancel()
		if err != nil {
			metrics.RecordNotification(n.Name(), "error")
			w.logger.Warn(ctx, "notification failed",
				logger.String("channel", n.Name()),
				logger.String("interview_id", it.Interview.ID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordNotification(n.Name(), "ok")
	}
}

// Pool runs several workers over one queue and accepts announcements as a
// pipeline.Notifier.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, q Queue, notifiers []pipeline.Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	s := newSettings(opts)
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  s.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		named := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, notifiers, named...)
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Name implements pipeline.Notifier.
func (p *Pool) Name() string { return "queue" }

// Notify queues the announcement. It fails fast when the queue is full.
func (p *Pool) Notify(ctx context.Context, a pipeline.Announcement) error {
	return p.queue.Enqueue(ctx, a)
}

// Len returns the number of announcements waiting.
func (p *Pool) Len() int {
	return p.queue.Len()
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, worker := range p.workers {
		if err := worker.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
