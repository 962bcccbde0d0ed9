// Package queue holds committed-interview announcements waiting for
// asynchronous delivery.
//
// The queue is bounded and in memory: announcements still queued when the
// process dies are lost, and the interview itself stays committed.
package queue

import (
	"context"
	"sync"

	"github.com/okian/interviewsched/internal/domain/pipeline"
	"github.com/okian/interviewsched/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 100
)

// Item is the payload flowing through the queue.
type Item = pipeline.Announcement

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an item. It returns ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, it Item) error

	// Dequeue returns the channel items are read from. It is closed, after
	// the remaining items, once the queue is closed.
	Dequeue() <-chan Item

	// Len returns the current number of queued items.
	Len() int

	// Close stops accepting items.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)
	metrics.UpdateNotificationQueueDepth(0)
	return q
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, it Item) error { //nolint:gocritic // hugeParam: Item is copied into the channel anyway
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.items <- it:
		metrics.UpdateNotificationQueueDepth(len(q.items))
		return nil
	default:
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Item {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue) Len() int {
	size := len(q.items)
	metrics.UpdateNotificationQueueDepth(size)
	return size
}

// Close gracefully shuts down the queue. Items already queued can still be
// dequeued.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
