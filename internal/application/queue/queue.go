// Package queue implements the bounded finalization queue and its
// single-consumer worker: the backpressure mechanism between the
// synchronous ingress handlers (many) and the finalization orchestrator
// (one). The queue is a plain buffered channel — a bounded FIFO with a
// single consumer task, not a reactive pipeline with hidden unbounded
// buffering.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	"github.com/scidataarchive/depositd/internal/logging"
)

// Handler runs one finalization to completion. The worker never lets a
// Handler's error escape it — Handler is responsible for mapping every
// failure to a terminal deposit state before returning.
type Handler func(ctx context.Context, job deposit.Job)

// Queue is a bounded FIFO of finalization jobs with a single consumer.
type Queue struct {
	jobs    chan deposit.Job
	handler Handler
	log     logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New returns a Queue with the given bounded capacity. capacity must be
// positive; it is the backpressure knob described in the concurrency model.
func New(capacity int, handler Handler, log logging.Logger) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	if log == nil {
		log = logging.Noop
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:    make(chan deposit.Job, capacity),
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the single consumer goroutine. Calling Start twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	q.wg.Add(1)
	go q.run()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		case <-q.ctx.Done():
			// Drain whatever is already buffered before exiting, so a
			// shutdown mid-backlog still finalizes queued deposits
			// rather than abandoning them silently. The channel is
			// never closed, so this only ever sees what was already
			// buffered before Shutdown was called.
			for {
				select {
				case job := <-q.jobs:
					q.process(job)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) process(job deposit.Job) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("finalization worker recovered from panic processing %s: %v", job.DepositID, r)
		}
	}()
	q.handler(q.ctx, job)
}

// Submit enqueues job, blocking until space is available or ctx is
// canceled. This is the backpressure point: a full queue blocks the
// calling ingress handler rather than buffering unboundedly.
func (q *Queue) Submit(ctx context.Context, job deposit.Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue: submit %s: %w", job.DepositID, ctx.Err())
	case <-q.ctx.Done():
		return fmt.Errorf("queue: submit %s: queue is shutting down", job.DepositID)
	}
}

// Shutdown stops accepting new work conceptually (callers should stop
// calling Submit) and waits for the worker to drain the current
// backlog and exit, or for ctx to expire first.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue: shutdown: %w", ctx.Err())
	}
}
