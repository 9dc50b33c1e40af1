package bus

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	ErrQueueFull   = errors.New("frame queue full")
	ErrQueueClosed = errors.New("frame queue closed")
)

// Frame is a raw inbound websocket message plus its receive timestamp.
type Frame struct {
	Raw    []byte
	RecvTs int64 // unix ms
}

// Queue is a bounded, non-blocking frame queue.
type Queue struct {
	ch     chan Frame
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Frame, capacity)}
}

// TryPublish enqueues a frame without blocking.
func (q *Queue) TryPublish(f Frame) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- f:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new frames.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes frames until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(Frame)) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-q.ch:
			if !ok {
				return
			}
			handler(f)
		}
	}
}
