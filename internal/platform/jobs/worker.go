package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Dequeuer is the read side of a job queue.
type Dequeuer interface {
	Dequeue(ctx context.Context) (*Job, error)
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job) error

// Worker pops jobs off a queue and dispatches them to registered
// handlers. A handler failure is logged and the loop continues; jobs
// are best-effort by contract.
type Worker struct {
	queue    Dequeuer
	log      zerolog.Logger
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewWorker creates a worker over the given queue.
func NewWorker(queue Dequeuer, log zerolog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type, replacing any previous one.
func (w *Worker) Register(jobType string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = h
}

// Run blocks, processing jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			continue
		}
		w.process(ctx, *job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	w.mu.RLock()
	h, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	if !ok {
		w.log.Warn().Str("job_type", job.Type).Msg("no handler registered")
		return
	}
	if err := h(ctx, job); err != nil {
		w.log.Error().Err(err).Str("job_type", job.Type).Msg("job failed")
		return
	}
	w.log.Debug().Str("job_type", job.Type).Msg("job completed")
}
