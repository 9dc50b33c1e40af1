package bus

import (
	"context"
	"errors"
	"testing"
)

func TestTryPublishFullAndClosed(t *testing.T) {
	q := NewQueue(1)
	if err := q.TryPublish(Frame{Raw: []byte("a")}); err != nil {
		t.Fatalf("publish into empty queue: %v", err)
	}
	if err := q.TryPublish(Frame{Raw: []byte("b")}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}
	q.Close()
	if err := q.TryPublish(Frame{Raw: []byte("c")}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("want ErrQueueClosed, got %v", err)
	}
}

func TestRunDrainsUntilClose(t *testing.T) {
	q := NewQueue(8)
	for i := 0; i < 5; i++ {
		if err := q.TryPublish(Frame{Raw: []byte{byte(i)}}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	q.Close()

	got := 0
	q.Run(context.Background(), func(Frame) { got++ })
	if got != 5 {
		t.Fatalf("consumed %d frames, want 5", got)
	}
}
