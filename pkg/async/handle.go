// Package async provides queued, background publishing on top of the
// synchronous client. Messages are enqueued with a handle that tracks the
// delivery outcome; a worker pool drains the queue in priority order.
package async

import (
	"context"
	"sync"
	"time"
)

// Status is the lifecycle status of an asynchronous publish.
type Status string

const (
	// StatusPending means the message is queued and not yet picked up.
	StatusPending Status = "pending"
	// StatusRunning means a worker is publishing the message.
	StatusRunning Status = "running"
	// StatusSuccess means the server accepted the message.
	StatusSuccess Status = "success"
	// StatusFailed means publishing failed.
	StatusFailed Status = "failed"
	// StatusCancelled means the publish was cancelled before completion.
	StatusCancelled Status = "cancelled"
)

// terminal reports whether the status can no longer change.
func (s Status) terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// CompletionCallback is invoked when an asynchronous publish succeeds.
type CompletionCallback func(item *QueueItem)

// ErrorCallback is invoked when an asynchronous publish fails.
type ErrorCallback func(item *QueueItem, err error)

// Handle tracks a single asynchronous publish. All methods are safe for
// concurrent use.
type Handle struct {
	id   string
	item *QueueItem

	mu          sync.Mutex
	status      Status
	err         error
	done        chan struct{}
	onComplete  []CompletionCallback
	onError     []ErrorCallback
	completedAt time.Time
}

func newHandle(item *QueueItem) *Handle {
	return &Handle{
		id:     item.ID,
		item:   item,
		status: StatusPending,
		done:   make(chan struct{}),
	}
}

// ID returns the queue item ID the handle tracks.
func (h *Handle) ID() string {
	return h.id
}

// Status returns the current status.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Err returns the failure of a failed publish, nil otherwise.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// OnComplete registers a callback invoked on success. Registering after
// completion invokes the callback immediately. Returns the handle for
// chaining.
func (h *Handle) OnComplete(callback CompletionCallback) *Handle {
	h.mu.Lock()
	if h.status == StatusSuccess {
		h.mu.Unlock()
		callback(h.item)
		return h
	}
	h.onComplete = append(h.onComplete, callback)
	h.mu.Unlock()
	return h
}

// OnError registers a callback invoked on failure. Registering after a
// failure invokes the callback immediately. Returns the handle for chaining.
func (h *Handle) OnError(callback ErrorCallback) *Handle {
	h.mu.Lock()
	if h.status == StatusFailed {
		err := h.err
		h.mu.Unlock()
		callback(h.item, err)
		return h
	}
	h.onError = append(h.onError, callback)
	h.mu.Unlock()
	return h
}

// Wait blocks until the publish reaches a terminal status or ctx is done.
// It returns the publish error for failed handles and ctx.Err() when the
// wait itself is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel marks a still-pending publish as cancelled. A publish that already
// started or finished is not affected.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.status != StatusPending {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	h.transition(StatusCancelled, nil)
}

// markRunning moves a pending handle to running. Returns false when the
// handle was cancelled first.
func (h *Handle) markRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status != StatusPending {
		return false
	}
	h.status = StatusRunning
	return true
}

// complete finishes the handle successfully and fires callbacks.
func (h *Handle) complete() {
	h.transition(StatusSuccess, nil)
}

// fail finishes the handle with an error and fires callbacks.
func (h *Handle) fail(err error) {
	h.transition(StatusFailed, err)
}

func (h *Handle) transition(status Status, err error) {
	h.mu.Lock()
	if h.status.terminal() {
		h.mu.Unlock()
		return
	}
	h.status = status
	h.err = err
	h.completedAt = time.Now()
	completions := h.onComplete
	failures := h.onError
	h.onComplete = nil
	h.onError = nil
	close(h.done)
	h.mu.Unlock()

	switch status {
	case StatusSuccess:
		for _, callback := range completions {
			callback(h.item)
		}
	case StatusFailed:
		for _, callback := range failures {
			callback(h.item, err)
		}
	}
}
