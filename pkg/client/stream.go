package client

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/filter"
	"github.com/kart-io/ntfygo/pkg/logger"
	"github.com/kart-io/ntfygo/pkg/message"
)

// maxLineSize bounds a single stream line. Message bodies are limited
// server-side to well below this.
const maxLineSize = 512 * 1024

// SubscriptionState is the lifecycle state of a subscription.
type SubscriptionState int32

const (
	// StateIdle means the subscription has not connected yet.
	StateIdle SubscriptionState = iota
	// StateConnecting means the request is in flight.
	StateConnecting
	// StateStreaming means messages are being received.
	StateStreaming
	// StateClosed means the server ended the stream cleanly.
	StateClosed
	// StateCancelled means the caller cancelled the subscription.
	// Cancellation is a normal terminal state, not an error.
	StateCancelled
	// StateFaulted means a decode or transport error ended the stream.
	StateFaulted
)

// String returns a readable name for the state.
func (s SubscriptionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateCancelled:
		return "cancelled"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// SubscribeOptions carries the optional parameters of Subscribe and Poll.
type SubscribeOptions struct {
	// Since is the starting cursor, defaulting to all messages.
	Since filter.Since
	// Scheduled includes messages scheduled for future delivery.
	Scheduled bool
	// Filters narrows which messages the server returns.
	Filters *filter.ReceptionFilters
	// IncludeKeepalive yields keepalive events instead of suppressing
	// them. Poll mode always behaves as if this were set.
	IncludeKeepalive bool
	// User supplies credentials; nil subscribes anonymously.
	User *User
}

// SubscribeOption configures a single Subscribe or Poll call.
type SubscribeOption func(*SubscribeOptions)

// WithSince sets the starting cursor.
func WithSince(since filter.Since) SubscribeOption {
	return func(o *SubscribeOptions) { o.Since = since }
}

// WithScheduled includes messages scheduled for future delivery.
func WithScheduled() SubscribeOption {
	return func(o *SubscribeOptions) { o.Scheduled = true }
}

// WithFilters narrows which messages the server returns.
func WithFilters(filters *filter.ReceptionFilters) SubscribeOption {
	return func(o *SubscribeOptions) { o.Filters = filters }
}

// WithKeepalive controls whether keepalive events are yielded to the
// caller. They are suppressed by default.
func WithKeepalive(include bool) SubscribeOption {
	return func(o *SubscribeOptions) { o.IncludeKeepalive = include }
}

// WithUser attaches credentials to the subscription.
func WithUser(user *User) SubscribeOption {
	return func(o *SubscribeOptions) { o.User = user }
}

// Subscription is a lazy, possibly-infinite, non-restartable sequence of
// received messages over one long-lived connection. It is pulled by a
// single consumer via Next and must be closed when abandoned.
type Subscription struct {
	cancel    context.CancelFunc
	ctx       context.Context
	resp      *http.Response
	scanner   *bufio.Scanner
	span      trace.Span
	client    *Client
	logger    logger.Logger
	keepalive bool
	openedAt  time.Time

	state     atomic.Int32
	err       error
	closeOnce sync.Once
}

// Subscribe opens a subscription stream for the given topics. Messages are
// yielded in exactly the order the server emits them. Cancelling ctx closes
// the underlying connection promptly and ends the sequence without error.
func (c *Client) Subscribe(ctx context.Context, topics []string, opts ...SubscribeOption) (*Subscription, error) {
	return c.openStream(ctx, topics, false, opts...)
}

// Poll retrieves the backlog of messages for the given topics and returns
// once the server has sent everything. Unlike Subscribe it is finite, runs
// under the ordinary request timeout, and does not suppress keepalives.
func (c *Client) Poll(ctx context.Context, topics []string, opts ...SubscribeOption) ([]*message.ReceivedMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	sub, err := c.openStream(ctx, topics, true, opts...)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	var messages []*message.ReceivedMessage
	for {
		msg, err := sub.Next()
		if err != nil {
			return nil, err
		}
		if msg == nil {
			return messages, nil
		}
		messages = append(messages, msg)
	}
}

// SubscribeAndProcess subscribes and invokes handler once per yielded
// message, in arrival order. Each invocation completes before the next line
// is requested from the stream. A handler error closes the subscription and
// is returned verbatim.
func (c *Client) SubscribeAndProcess(ctx context.Context, topics []string, handler func(*message.ReceivedMessage) error, opts ...SubscribeOption) error {
	if handler == nil {
		return errors.New(errors.CodeInvalidParameter, "handler cannot be nil")
	}

	sub, err := c.Subscribe(ctx, topics, opts...)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		msg, err := sub.Next()
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}
		if err := handler(msg); err != nil {
			return err
		}
	}
}

// openStream connects the receive endpoint and hands back a Subscription in
// the streaming state.
func (c *Client) openStream(ctx context.Context, topics []string, poll bool, opts ...SubscribeOption) (*Subscription, error) {
	options := SubscribeOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if poll {
		// Poll mode is finite; keepalives are not expected and never
		// suppressed.
		options.IncludeKeepalive = true
	}

	endpoint, err := filter.ReceiveEndpoint(filter.StreamJSON, topics, options.Since, options.Scheduled, options.Filters, poll)
	if err != nil {
		return nil, err
	}

	ctx, span := c.telemetry.TraceSubscribe(ctx, topics, poll)
	ctx, cancel := context.WithCancel(ctx)

	sub := &Subscription{
		cancel:    cancel,
		ctx:       ctx,
		span:      span,
		client:    c,
		logger:    c.logger,
		keepalive: options.IncludeKeepalive,
		openedAt:  time.Now(),
	}
	sub.state.Store(int32(StateConnecting))

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, options.User)
	if err != nil {
		sub.terminate(StateFaulted, err)
		return nil, err
	}

	httpClient := c.streamClient
	if poll {
		httpClient = c.httpClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		sub.terminate(StateFaulted, err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		err := errors.ClassifyPublishStatus(resp.StatusCode)
		sub.terminate(StateFaulted, err)
		return nil, err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	sub.resp = resp
	sub.scanner = scanner
	sub.state.Store(int32(StateStreaming))

	c.logger.Info("subscription opened", "endpoint", endpoint, "poll", poll)
	return sub, nil
}

// Next returns the next message from the stream. It returns (nil, nil) when
// the stream has ended, either because the server closed it or because the
// caller cancelled; State distinguishes the two. A decode or transport
// failure faults the subscription and is returned as the error.
func (s *Subscription) Next() (*message.ReceivedMessage, error) {
	if SubscriptionState(s.state.Load()) != StateStreaming {
		return nil, s.err
	}

	for {
		// Cancellation is checked between line reads; a cancellation
		// arriving mid-read surfaces through the request context below.
		if s.ctx.Err() != nil {
			s.terminate(StateCancelled, nil)
			return nil, nil
		}

		if !s.scanner.Scan() {
			scanErr := s.scanner.Err()
			switch {
			case s.ctx.Err() != nil:
				s.terminate(StateCancelled, nil)
				return nil, nil
			case scanErr == nil:
				s.terminate(StateClosed, nil)
				return nil, nil
			default:
				err := errors.Wrap(scanErr, errors.CodeMessageDecode, "reading stream")
				s.terminate(StateFaulted, err)
				return nil, err
			}
		}

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		msg, err := message.DecodeReceivedMessage(line)
		if err != nil {
			// A malformed envelope means the stream is desynchronized or
			// the protocol changed; the whole subscription faults.
			s.terminate(StateFaulted, err)
			return nil, err
		}

		if !s.keepalive && msg.Event == message.EventKeepalive {
			s.logger.Debug("keepalive suppressed", "message_id", msg.ID)
			continue
		}

		s.client.telemetry.RecordReceived(s.ctx, 1)
		return msg, nil
	}
}

// State returns the current lifecycle state of the subscription.
func (s *Subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Err returns the terminal error of a faulted subscription, nil otherwise.
func (s *Subscription) Err() error {
	return s.err
}

// Close cancels the subscription and releases the underlying connection.
// Closing an active subscription moves it to the cancelled state; closing a
// finished one keeps its terminal state. Close is idempotent.
func (s *Subscription) Close() error {
	s.terminate(StateCancelled, nil)
	return nil
}

// terminate moves the subscription into a terminal state exactly once and
// releases the connection.
func (s *Subscription) terminate(state SubscriptionState, err error) {
	s.closeOnce.Do(func() {
		s.finish(state, err)
		s.cancel()
		if s.resp != nil {
			_ = s.resp.Body.Close()
		}

		outcome := state.String()
		s.logger.Info("subscription ended", "state", outcome)
		s.client.telemetry.RecordStreamDuration(context.Background(), time.Since(s.openedAt), outcome)
		if err != nil {
			s.client.telemetry.SetSpanError(s.span, err)
		} else {
			s.client.telemetry.SetSpanSuccess(s.span)
		}
		if s.span != nil {
			s.span.End()
		}
	})
}

// finish records the terminal state and error without touching the
// connection. Used both for never-connected and terminated subscriptions.
func (s *Subscription) finish(state SubscriptionState, err error) {
	s.state.Store(int32(state))
	s.err = err
}
