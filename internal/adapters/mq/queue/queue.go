// Package queue carries scoring jobs from the results endpoints to the
// worker pool.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/metrics"
)

const (
	defaultQueueCapacity = 10000
	defaultPollInterval  = 10 * time.Millisecond
)

// Job asks a worker to score one stored lineup against a results set.
type Job struct {
	ResultsID  string
	Lineup     model.SubmittedLineup
	Outcomes   model.Outcomes // shared between jobs of one results set; read only
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. ErrFull and ErrClosed are returned without blocking.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns the channel workers receive jobs from. It is closed
	// by Close once drained.
	Dequeue(ctx context.Context) <-chan Job

	// Done marks one dequeued job as finished.
	Done()

	// Wait blocks until every enqueued job has been marked done.
	Wait(ctx context.Context) error

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	poll     time.Duration

	mu      sync.RWMutex
	closed  bool
	pending int
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		poll:     defaultPollInterval,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs travel by value over the channel
	// Write lock: pending must move together with the send.
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue %s: %w", j.Lineup.Key, err)
	}
	if j.EnqueuedAt.IsZero() {
		j.EnqueuedAt = time.Now()
	}

	select {
	case q.jobs <- j:
		q.pending++
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return fmt.Errorf("%w: capacity %d", ErrFull, q.capacity)
	}
}

// Dequeue returns the receive side of the job channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Done marks one job finished and refreshes the size gauge.
func (q *InMemoryQueue) Done() {
	q.mu.Lock()
	if q.pending > 0 {
		q.pending--
	}
	q.mu.Unlock()

	metrics.RecordQueueDequeue()
	metrics.UpdateQueueSize(len(q.jobs))
}

// Pending reports jobs enqueued but not yet marked done.
func (q *InMemoryQueue) Pending() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.pending
}

// Wait polls until no job is pending or ctx ends.
func (q *InMemoryQueue) Wait(ctx context.Context) error {
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		if q.Pending() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %d jobs: %w", q.Pending(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Len returns the number of jobs waiting for a worker.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops new jobs. Workers drain what is buffered, then see the channel
// close.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
