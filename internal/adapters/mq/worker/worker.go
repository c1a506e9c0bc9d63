// Package worker drains the append queue into the event log.
//
// One worker serves the queue so the log receives events in the order the
// service produced them. A failed append is logged, counted and dropped.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/pkg/logger"
	"github.com/okian/stampcard/pkg/metrics"
)

const defaultAppendTimeout = 10 * time.Second

// Event is what the worker reads off the queue.
type Event = model.Event

// Appender writes one event to the log.
type Appender interface {
	Append(ctx context.Context, e Event) error
}

// Queue defines how the worker receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes queued events.
type Worker interface {
	// Run blocks until ctx is cancelled, Shutdown is called or the queue
	// channel is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker after it has sent the events already
	// buffered, or when ctx expires.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	appender Appender
	name     string
	timeout  time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(queue Queue, appender Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		appender: appender,
		name:     "append-worker",
		timeout:  defaultAppendTimeout,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			w.drain(ctx, events)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = w.process(ctx, e)
		}
	}
}

// drain sends whatever is already buffered without waiting for more.
func (w *InMemoryWorker) drain(ctx context.Context, events <-chan Event) {
	ctx = context.WithoutCancel(ctx)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = w.process(ctx, e)
		default:
			return
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event is received by value
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.appender.Append(ctx, e)
	metrics.RecordAppendLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		_ = metrics.RecordAppend(metrics.OutcomeFailure)
		metrics.RecordErrorByComponent("worker", "append")
		w.logger.Error(ctx, "append failed, event dropped",
			logger.String("profile", string(e.Profile)),
			logger.String("type", string(e.Kind)),
			logger.Error(err),
		)
		return fmt.Errorf("append %s for %s: %w", e.Kind, e.Profile, err)
	}

	_ = metrics.RecordAppend(metrics.OutcomeSuccess)
	w.logger.Debug(ctx, "event appended",
		logger.String("profile", string(e.Profile)),
		logger.String("type", string(e.Kind)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
