package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	jobs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	sent := NewEnrollJob(42, "https://cdn/img.jpg")
	if err := q.Publish(ctx, sent); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-jobs:
		if got.ID != sent.ID || got.Type != JobEnroll || got.StudentID != 42 {
			t.Errorf("got %+v; want %+v", got, sent)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job")
	}
}

func TestInMemoryPublishRespectsContext(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()
	if err := q.Publish(ctx, NewEnrollJob(1, "u")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Queue full: a canceled context must unblock the publisher.
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(canceled, NewEnrollJob(2, "u")); err == nil {
		t.Error("expected context error on full queue")
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	jobs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	// Enqueue a job but never read it, so the forwarder is parked on the
	// delivery send when the context is canceled.
	if err := q.Publish(context.Background(), NewEnrollJob(1, "u")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-jobs:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("consume channel never closed after cancel")
		}
	}
}

func TestNewEnrollJob(t *testing.T) {
	a := NewEnrollJob(1, "u")
	b := NewEnrollJob(1, "u")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("job ids must be unique and non-empty: %q vs %q", a.ID, b.ID)
	}
}
