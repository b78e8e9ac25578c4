package ingest

import (
	"context"
	"log/slog"
	"sync"
)

// Job is one unit of ingestion work.
type Job struct {
	ID         string
	DocumentID string
	Run        func(ctx context.Context) error
}

// Queue runs ingestion jobs in arrival order with a bounded number of
// workers. Queue state lives in process memory only; queued jobs do not
// survive a restart.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Job
	active  int
	closed  bool

	concurrency int
	wg          sync.WaitGroup
	logger      *slog.Logger
}

// NewQueue creates a queue with the given worker count (minimum 1).
func NewQueue(concurrency int, logger *slog.Logger) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		concurrency: concurrency,
		logger:      logger,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the workers. Jobs receive ctx; cancelling it drains the
// queue and stops the workers after their current job.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.concurrency; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	go func() {
		<-ctx.Done()
		q.close()
	}()
}

// Enqueue appends a job and returns its 1-based queue position at the time
// of submission. Enqueueing on a stopped queue returns 0 and drops the job.
func (q *Queue) Enqueue(job Job) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.pending = append(q.pending, job)
	position := len(q.pending)
	q.cond.Signal()
	return position
}

// Stats returns the running and waiting job counts.
func (q *Queue) Stats() (active, waiting int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active, len(q.pending)
}

// Stop prevents further submissions and waits for the workers to finish the
// jobs already accepted.
func (q *Queue) Stop() {
	q.close()
	q.wg.Wait()
}

func (q *Queue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending = q.pending[1:]
		q.active++
		q.mu.Unlock()

		q.run(ctx, job)

		q.mu.Lock()
		q.active--
		q.mu.Unlock()
	}
}

// run executes one job with panic and error containment: a failing job never
// crashes the worker loop or blocks the jobs behind it.
func (q *Queue) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.ErrorContext(ctx, "ingestion job panicked",
				"jobId", job.ID,
				"documentId", job.DocumentID,
				"panic", r,
			)
		}
	}()

	if err := job.Run(ctx); err != nil {
		q.logger.ErrorContext(ctx, "ingestion job failed",
			"jobId", job.ID,
			"documentId", job.DocumentID,
			"error", err,
		)
	}
}
