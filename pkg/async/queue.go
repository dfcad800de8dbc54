package async

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kart-io/ntfygo/pkg/message"
)

// QueueItem is one message waiting to be published.
type QueueItem struct {
	// ID uniquely identifies the item across queue backends.
	ID string `json:"id"`
	// Topic is the publish destination.
	Topic string `json:"topic"`
	// Message is the payload to publish.
	Message *message.SendingMessage `json:"message"`
	// Priority orders the queue; higher drains first.
	Priority int `json:"priority"`
	// QueuedAt is when the item entered the queue.
	QueuedAt time.Time `json:"queued_at"`
}

// Queue is a backend holding messages awaiting publication. Implementations
// must be safe for concurrent use.
type Queue interface {
	// Enqueue adds an item to the queue.
	Enqueue(ctx context.Context, item *QueueItem) error

	// Dequeue removes and returns the next item, blocking until one is
	// available, the queue closes, or ctx is done. A closed and drained
	// queue returns a queue-closed error.
	Dequeue(ctx context.Context) (*QueueItem, error)

	// Size returns the current queue depth.
	Size() int

	// IsEmpty reports whether the queue holds no items.
	IsEmpty() bool

	// Close shuts the queue down. Items already queued may still be
	// dequeued by memory backends; Redis backends keep them durable.
	Close() error

	// Health returns the queue health snapshot.
	Health() QueueHealth
}

// QueueHealth is a point-in-time health snapshot of a queue.
type QueueHealth struct {
	Healthy bool `json:"healthy"`
	Size    int  `json:"size"`
	MaxSize int  `json:"max_size"`
}

// newItemID returns a random item identifier.
func newItemID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("q%d", time.Now().UnixNano())
	}
	return "q" + hex.EncodeToString(buf)
}

// NewQueueItem builds a queue item for the given topic and message, deriving
// the queue priority from the message priority.
func NewQueueItem(topic string, msg *message.SendingMessage) *QueueItem {
	priority := int(message.PriorityDefault)
	if msg != nil && msg.Priority != message.PriorityUnspecified {
		priority = int(msg.Priority)
	}
	return &QueueItem{
		ID:       newItemID(),
		Topic:    topic,
		Message:  msg,
		Priority: priority,
		QueuedAt: time.Now(),
	}
}
