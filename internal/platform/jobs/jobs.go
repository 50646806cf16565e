// Package jobs provides the asynchronous job runner used for
// fire-and-forget work such as packet generation and insurance upload
// scanning. The engine only ever enqueues; completion is observed by
// whoever owns the resulting artifact, never by the enqueuer.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Well-known job types.
const (
	TypeGeneratePacket = "packet.generate"
	TypeScanUpload     = "upload.scan"
)

// Job is a unit of background work.
type Job struct {
	Type    string            `json:"type"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Enqueuer is the enqueue-only interface handed to domain services.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// ---------------------------------------------------------------------------
// Redis queue
// ---------------------------------------------------------------------------

const defaultQueueKey = "referral:jobs"

// RedisQueue pushes jobs onto a Redis list and pops them in the worker.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to redisURL and returns a queue over the
// default job list.
func NewRedisQueue(ctx context.Context, redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisQueue{client: client, key: defaultQueueKey}, nil
}

// Enqueue serializes the job and pushes it onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.Type, err)
	}
	return nil
}

// Dequeue blocks until a job is available or the context is done.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	res, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		return nil, fmt.Errorf("dequeue job: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected brpop result length %d", len(res))
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// Close releases the underlying Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// ---------------------------------------------------------------------------
// In-memory queue
// ---------------------------------------------------------------------------

// MemoryQueue is a channel-backed queue used in tests and single-node
// development setups.
type MemoryQueue struct {
	ch   chan Job
	done chan struct{}
	once sync.Once
}

// NewMemoryQueue creates a queue buffered to size.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{
		ch:   make(chan Job, size),
		done: make(chan struct{}),
	}
}

// Enqueue adds the job unless the queue is closed. The job channel is
// never closed, so an enqueue racing Close fails with an error rather
// than panicking.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-q.done:
		return fmt.Errorf("queue closed")
	default:
	}
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		return fmt.Errorf("queue closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	// Drain pending jobs first so Close does not strand buffered work.
	select {
	case job := <-q.ch:
		return &job, nil
	default:
	}
	select {
	case job := <-q.ch:
		return &job, nil
	case <-q.done:
		select {
		case job := <-q.ch:
			return &job, nil
		default:
			return nil, fmt.Errorf("queue closed")
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of pending jobs.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

// Close stops the queue; pending jobs remain readable.
func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}
