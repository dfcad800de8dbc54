package async

import (
	"context"
	"sync"

	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/logger"
)

// DefaultQueueSize is the memory queue capacity used when none is given.
const DefaultQueueSize = 1000

// memoryQueue implements Queue with an in-process priority list.
type memoryQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []*QueueItem
	maxSize int
	closed  bool
	logger  logger.Logger
}

// NewMemoryQueue creates an in-process queue holding at most maxSize items.
// A non-positive maxSize selects DefaultQueueSize.
func NewMemoryQueue(maxSize int, log logger.Logger) Queue {
	if maxSize <= 0 {
		maxSize = DefaultQueueSize
	}
	if log == nil {
		log = logger.Discard
	}
	q := &memoryQueue{
		maxSize: maxSize,
		logger:  log,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *memoryQueue) Enqueue(ctx context.Context, item *QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New(errors.CodeQueueClosed, "queue is closed")
	}
	if len(q.items) >= q.maxSize {
		return errors.Newf(errors.CodeQueueFull, "queue is full (size: %d)", q.maxSize)
	}

	// Insert keeping higher priorities first; equal priorities keep
	// arrival order.
	inserted := false
	for i, existing := range q.items {
		if item.Priority > existing.Priority {
			q.items = append(q.items[:i], append([]*QueueItem{item}, q.items[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		q.items = append(q.items, item)
	}

	q.logger.Debug("item enqueued", "item_id", item.ID, "topic", item.Topic, "queue_size", len(q.items))
	q.cond.Signal()
	return nil
}

func (q *memoryQueue) Dequeue(ctx context.Context) (*QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// cond.Wait cannot observe ctx, so a helper goroutine waits on the
		// condition while this one races it against ctx.
		q.mu.Unlock()
		waitDone := make(chan struct{})
		go func() {
			q.mu.Lock()
			q.cond.Wait()
			q.mu.Unlock()
			close(waitDone)
		}()

		select {
		case <-ctx.Done():
			// Wake the helper; it releases the lock on its own.
			q.cond.Broadcast()
			q.mu.Lock()
			return nil, ctx.Err()
		case <-waitDone:
			q.mu.Lock()
		}
	}

	if len(q.items) == 0 {
		return nil, errors.New(errors.CodeQueueClosed, "queue is closed and drained")
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.logger.Debug("item dequeued", "item_id", item.ID, "queue_size", len(q.items))
	return item, nil
}

func (q *memoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *memoryQueue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *memoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.logger.Info("memory queue closed", "remaining_items", len(q.items))
	q.cond.Broadcast()
	return nil
}

func (q *memoryQueue) Health() QueueHealth {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueHealth{
		Healthy: !q.closed,
		Size:    len(q.items),
		MaxSize: q.maxSize,
	}
}
