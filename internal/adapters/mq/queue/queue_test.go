package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/okian/dawgbowl/internal/domain/model"
)

func job(key string) Job {
	return Job{ResultsID: "r1", Lineup: model.SubmittedLineup{Key: key, Username: key}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, job("alice")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Lineup.Key != "alice" {
		t.Errorf("expected alice, got %v", got.Lineup.Key)
	}
	if got.EnqueuedAt.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if p := q.Pending(); p != 1 {
		t.Errorf("expected 1 pending job before Done, got %d", p)
	}
	q.Done()
	if p := q.Pending(); p != 0 {
		t.Errorf("expected no pending jobs, got %d", p)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, k := range []string{"a", "b"} {
		if err := q.Enqueue(ctx, job(k)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	if err := q.Enqueue(ctx, job("c")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CanceledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, job("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if p := q.Pending(); p != 0 {
		t.Errorf("rejected job must not be pending, got %d", p)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000), WithPollInterval(time.Millisecond))
	ctx := context.Background()
	const producers, perProducer = 10, 50

	var received sync.Map
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for j := range q.Dequeue(ctx) {
			received.Store(j.Lineup.Key, true)
			q.Done()
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Enqueue(ctx, job(strconv.Itoa(p)+"-"+strconv.Itoa(i))); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := q.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	count := 0
	received.Range(func(_, _ any) bool { count++; return true })
	if count != producers*perProducer {
		t.Errorf("expected %d jobs, got %d", producers*perProducer, count)
	}

	_ = q.Close()
	<-consumed
}

func TestInMemoryQueue_WaitTimesOut(t *testing.T) {
	q := NewInMemoryQueue(WithPollInterval(time.Millisecond))
	ctx := context.Background()
	if err := q.Enqueue(ctx, job("stuck")); err != nil {
		t.Fatal(err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := q.Wait(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := q.Enqueue(ctx, job(k)); err != nil {
			t.Fatal(err)
		}
	}

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := q.Enqueue(ctx, job("late")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	drained := 0
	for range q.Dequeue(ctx) {
		drained++
	}
	if drained != 3 {
		t.Errorf("expected buffered jobs to drain, got %d", drained)
	}
}
