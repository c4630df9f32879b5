package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/gully/internal/domain/model"
)

func job(id string) Job {
	return Job{Match: &model.Match{MatchID: id}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job("m1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	jobs := q.Dequeue(ctx)
	got := <-jobs
	if got.Match.MatchID != "m1" {
		t.Errorf("expected m1, got %v", got.Match.MatchID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("m1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job("m2")) {
		t.Error("expected enqueue to succeed")
	}

	// Full queue rejects without blocking
	if q.Enqueue(ctx, job("m3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("m1")) {
		t.Error("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, job("m2")) {
		t.Error("expected enqueue to fail after close")
	}

	// Remaining jobs drain, then the channel closes
	jobs := q.Dequeue(ctx)
	got, ok := <-jobs
	if !ok || got.Match.MatchID != "m1" {
		t.Errorf("expected drained m1, got %v ok=%v", got, ok)
	}
	select {
	case _, ok := <-jobs:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for channel close")
	}

	// Double close is a no-op
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestInMemoryQueue_OrderPreserved(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if !q.Enqueue(ctx, job(fmt.Sprintf("m%d", i))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	jobs := q.Dequeue(ctx)
	for i := 0; i < 10; i++ {
		got := <-jobs
		want := fmt.Sprintf("m%d", i)
		if got.Match.MatchID != want {
			t.Errorf("expected %s, got %s", want, got.Match.MatchID)
		}
	}
}

func TestInMemoryQueue_DequeueContextCancel(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())

	jobs := q.Dequeue(ctx)
	cancel()
	q.Enqueue(context.Background(), job("m1"))

	// Give the dequeue goroutine time to observe the canceled context.
	time.Sleep(100 * time.Millisecond)

	select {
	case _, ok := <-jobs:
		if ok {
			t.Error("expected no delivery after cancel")
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for cancel to propagate")
	}
}
