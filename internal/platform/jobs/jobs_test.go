package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMemoryQueue_EnqueueDequeue(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()

	job := Job{Type: TypeGeneratePacket, Payload: map[string]string{"referral_id": "abc"}}
	if err := q.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 pending job, got %d", q.Len())
	}

	got, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != TypeGeneratePacket || got.Payload["referral_id"] != "abc" {
		t.Errorf("unexpected job: %+v", got)
	}
}

func TestMemoryQueue_DequeueRespectsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMemoryQueue_EnqueueAfterClose(t *testing.T) {
	q := NewMemoryQueue(1)
	q.Close()
	if err := q.Enqueue(context.Background(), Job{Type: "x"}); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestMemoryQueue_CloseConcurrentWithEnqueue(t *testing.T) {
	for i := 0; i < 50; i++ {
		q := NewMemoryQueue(1)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			// Either outcome is fine; losing the race must return an
			// error, not panic.
			_ = q.Enqueue(context.Background(), Job{Type: "x"})
		}()
		go func() {
			defer wg.Done()
			q.Close()
		}()
		wg.Wait()
	}
}

func TestMemoryQueue_PendingJobsSurviveClose(t *testing.T) {
	q := NewMemoryQueue(4)
	if err := q.Enqueue(context.Background(), Job{Type: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(context.Background(), Job{Type: "b"}); err != nil {
		t.Fatal(err)
	}
	q.Close()

	for _, want := range []string{"a", "b"} {
		job, err := q.Dequeue(context.Background())
		if err != nil {
			t.Fatalf("dequeue after close: %v", err)
		}
		if job.Type != want {
			t.Errorf("expected %s, got %s", want, job.Type)
		}
	}
	if _, err := q.Dequeue(context.Background()); err == nil {
		t.Fatal("expected error once the queue is drained and closed")
	}
}

func TestWorker_DispatchesToHandler(t *testing.T) {
	q := NewMemoryQueue(4)
	w := NewWorker(q, zerolog.Nop())

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{})
	w.Register(TypeGeneratePacket, func(_ context.Context, job Job) error {
		mu.Lock()
		handled = append(handled, job.Payload["referral_id"])
		mu.Unlock()
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	q.Enqueue(ctx, Job{Type: TypeGeneratePacket, Payload: map[string]string{"referral_id": "r1"}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != "r1" {
		t.Errorf("unexpected handled jobs: %v", handled)
	}
}

func TestWorker_ContinuesAfterHandlerError(t *testing.T) {
	q := NewMemoryQueue(4)
	w := NewWorker(q, zerolog.Nop())

	second := make(chan struct{})
	w.Register("fail", func(context.Context, Job) error { return errors.New("boom") })
	w.Register("ok", func(context.Context, Job) error {
		close(second)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	q.Enqueue(ctx, Job{Type: "fail"})
	q.Enqueue(ctx, Job{Type: "ok"})

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("worker stopped after handler error")
	}
}

func TestWorker_UnknownJobTypeIsSkipped(t *testing.T) {
	q := NewMemoryQueue(4)
	w := NewWorker(q, zerolog.Nop())

	known := make(chan struct{})
	w.Register("known", func(context.Context, Job) error {
		close(known)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	q.Enqueue(ctx, Job{Type: "mystery"})
	q.Enqueue(ctx, Job{Type: "known"})

	select {
	case <-known:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive unknown job type")
	}
}
