package shrink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Enqueue failure modes
var (
	ErrQueueFull   = errors.New("compression queue is full")
	ErrQueueClosed = errors.New("compression queue is shut down")
)

type queuedJob struct {
	job     *Job
	emitter Emitter
}

// Queue serializes compression jobs: one worker goroutine drains a FIFO
// channel, so at most one engine invocation is ever in flight and jobs run
// strictly in submission order. A failed job reports through its own
// emitter and never aborts the jobs queued behind it.
type Queue struct {
	runner *Runner
	logger *slog.Logger

	jobs   chan queuedJob
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewQueue creates a queue with room for capacity pending jobs
func NewQueue(runner *Runner, capacity int, logger *slog.Logger) *Queue {
	return &Queue{
		runner: runner,
		logger: logger,
		jobs:   make(chan queuedJob, capacity),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. The context cancels the engine
// invocation of whichever job is active when the service shuts down.
func (q *Queue) Start(ctx context.Context) {
	go func() {
		defer close(q.done)
		for queued := range q.jobs {
			q.runner.Run(ctx, queued.job, queued.emitter)
		}
	}()
}

// Enqueue appends a job to the pending tail. It never blocks: a full queue
// is reported to this caller only, leaving queued jobs untouched.
func (q *Queue) Enqueue(job *Job, emitter Emitter) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- queuedJob{job: job, emitter: emitter}:
		q.logger.Debug("Job enqueued", "job_id", job.ID, "pending", len(q.jobs))
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for the worker to drain what was
// already queued, or for ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
