package async

import (
	"context"
	"sync"
	"time"

	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/filter"
	"github.com/kart-io/ntfygo/pkg/logger"
	"github.com/kart-io/ntfygo/pkg/message"
)

// PublishFunc performs one synchronous publish. Client.Publish bound to a
// user satisfies it.
type PublishFunc func(ctx context.Context, topic string, msg *message.SendingMessage) error

// Publisher drains a queue through a worker pool, publishing each item with
// the configured publish function and resolving its handle.
type Publisher struct {
	publish PublishFunc
	queue   Queue
	workers int
	logger  logger.Logger

	mu      sync.Mutex
	handles map[string]*Handle
	started bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPublisher creates a publisher draining queue with workerCount workers.
// A non-positive workerCount selects one worker, which preserves strict
// priority order.
func NewPublisher(publish PublishFunc, queue Queue, workerCount int, log logger.Logger) (*Publisher, error) {
	if publish == nil {
		return nil, errors.New(errors.CodeInvalidParameter, "publish function cannot be nil")
	}
	if queue == nil {
		return nil, errors.New(errors.CodeInvalidParameter, "queue cannot be nil")
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if log == nil {
		log = logger.Discard
	}
	return &Publisher{
		publish: publish,
		queue:   queue,
		workers: workerCount,
		logger:  log,
		handles: make(map[string]*Handle),
	}, nil
}

// Start launches the worker pool. Starting an already-started publisher is
// a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.logger.Info("async publisher started", "workers", p.workers)
}

// Stop closes the queue, waits for in-flight publishes to finish, and fails
// handles still pending after the timeout.
func (p *Publisher) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	p.mu.Unlock()

	_ = p.queue.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		p.cancel()
		<-done
	}
	p.cancel()

	p.mu.Lock()
	for id, handle := range p.handles {
		handle.Cancel()
		delete(p.handles, id)
	}
	p.mu.Unlock()

	p.logger.Info("async publisher stopped")
	return nil
}

// PublishAsync validates the topic, enqueues the message, and returns a
// handle tracking the publish.
func (p *Publisher) PublishAsync(ctx context.Context, topic string, msg *message.SendingMessage) (*Handle, error) {
	if msg == nil {
		return nil, errors.New(errors.CodeInvalidParameter, "message cannot be nil")
	}
	if err := filter.ValidateTopic(topic); err != nil {
		return nil, err
	}

	item := NewQueueItem(topic, msg)
	handle := newHandle(item)

	p.mu.Lock()
	p.handles[item.ID] = handle
	p.mu.Unlock()

	if err := p.queue.Enqueue(ctx, item); err != nil {
		p.forget(item.ID)
		return nil, err
	}

	p.logger.Debug("message queued", "item_id", item.ID, "topic", topic)
	return handle, nil
}

// QueueHealth returns the health snapshot of the underlying queue.
func (p *Publisher) QueueHealth() QueueHealth {
	return p.queue.Health()
}

// run is one worker loop. It drains the queue until it closes or ctx is
// cancelled.
func (p *Publisher) run(ctx context.Context, worker int) {
	defer p.wg.Done()

	for {
		item, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.IsCode(err, errors.CodeQueueClosed) || ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", "worker", worker, "error", err)
			return
		}

		handle := p.takeHandle(item.ID)
		if handle != nil && !handle.markRunning() {
			// Cancelled while queued.
			continue
		}

		err = p.publish(ctx, item.Topic, item.Message)
		if err != nil {
			p.logger.Warn("async publish failed", "item_id", item.ID, "topic", item.Topic, "error", err)
			if handle != nil {
				handle.fail(err)
			}
			continue
		}

		p.logger.Debug("async publish succeeded", "item_id", item.ID, "topic", item.Topic)
		if handle != nil {
			handle.complete()
		}
	}
}

// takeHandle removes and returns the handle for an item, nil when the item
// was enqueued by another process.
func (p *Publisher) takeHandle(id string) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	handle := p.handles[id]
	delete(p.handles, id)
	return handle
}

func (p *Publisher) forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.handles, id)
}
