// Package client provides the ntfy API client: publishing, streaming
// subscriptions, polling, and account management against a ntfy server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kart-io/ntfygo/observability"
	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/filter"
	"github.com/kart-io/ntfygo/pkg/logger"
	"github.com/kart-io/ntfygo/pkg/message"
)

// DefaultServer is the public ntfy.sh server.
const DefaultServer = "https://ntfy.sh"

const (
	defaultUserAgent = "ntfygo/1.0"

	// defaultRequestTimeout bounds ordinary request/response calls.
	defaultRequestTimeout = 15 * time.Second
	// defaultPublishTimeout bounds publish calls, which may upload
	// attachments.
	defaultPublishTimeout = 5 * time.Minute
	// streamHeaderTimeout bounds how long a subscription waits for
	// response headers. The body itself is held open indefinitely; the
	// server sends keepalives well inside this window.
	streamHeaderTimeout = 77 * time.Second
)

// Client is a ntfy API client. It is safe for concurrent use; every
// subscription holds its own connection and no state is shared between
// calls beyond the configured HTTP clients.
type Client struct {
	serverURL    string
	httpClient   *http.Client
	streamClient *http.Client
	logger       logger.Logger
	telemetry    *observability.TelemetryProvider
	userAgent    string

	requestTimeout time.Duration
	publishTimeout time.Duration
}

// New creates a new Client for the given server URL. An empty serverURL
// selects the public ntfy.sh server.
func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultServer
	}
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParameter, "parsing server URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.Newf(errors.CodeInvalidParameter, "server URL must be http or https, got %q", serverURL)
	}

	c := &Client{
		serverURL:      strings.TrimRight(serverURL, "/"),
		httpClient:     &http.Client{},
		streamClient:   newStreamClient(),
		logger:         logger.New(),
		userAgent:      defaultUserAgent,
		requestTimeout: defaultRequestTimeout,
		publishTimeout: defaultPublishTimeout,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// newStreamClient builds the default HTTP client for subscription streams:
// no overall timeout, bounded header wait.
func newStreamClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: streamHeaderTimeout,
		},
	}
}

// ServerURL returns the configured server base URL.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Publish publishes a message to a topic. The topic is validated before any
// network call and injected into the JSON payload. A nil user publishes
// anonymously.
func (c *Client) Publish(ctx context.Context, topic string, msg *message.SendingMessage, user *User) error {
	if msg == nil {
		return errors.New(errors.CodeInvalidParameter, "message cannot be nil")
	}
	if _, err := filter.SendEndpoint(topic); err != nil {
		return err
	}

	ctx, span := c.telemetry.TracePublish(ctx, topic)
	defer span.End()
	start := time.Now()

	payload := *msg
	payload.Topic = topic
	body, err := json.Marshal(&payload)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidParameter, "encoding publish payload")
	}

	// The topic travels in the JSON body, so the publish posts to the
	// server root.
	status, _, err := c.do(ctx, http.MethodPost, "", body, user, c.publishTimeout)
	if err != nil {
		c.telemetry.SetSpanError(span, err)
		c.telemetry.RecordPublishFailed(ctx, topic, time.Since(start), "transport")
		return err
	}

	if err := errors.ClassifyPublishStatus(status); err != nil {
		c.logger.Warn("publish rejected", "topic", topic, "status", status)
		c.telemetry.SetSpanError(span, err)
		c.telemetry.RecordPublishFailed(ctx, topic, time.Since(start), string(errors.CodeOf(err)))
		return err
	}

	c.logger.Debug("message published", "topic", topic, "bytes", len(body))
	c.telemetry.SetSpanSuccess(span)
	c.telemetry.RecordPublished(ctx, topic, time.Since(start))
	return nil
}

// CheckAuthentication checks whether the given user may access the topic.
// A nil user checks anonymous access; legacy servers without the auth
// endpoint answer 404 there, which counts as allowed.
func (c *Client) CheckAuthentication(ctx context.Context, topic string, user *User) (bool, error) {
	endpoint, err := filter.AuthEndpoint(topic)
	if err != nil {
		return false, err
	}

	status, _, err := c.do(ctx, http.MethodGet, endpoint, nil, user, c.requestTimeout)
	if err != nil {
		return false, err
	}

	allowed, err := errors.ClassifyAuthStatus(status, user == nil)
	if err != nil {
		return false, err
	}
	c.logger.Debug("auth check", "topic", topic, "user", userLabel(user), "allowed", allowed)
	return allowed, nil
}

// do executes one request/response call against the server and returns the
// status code and the full response body. Transport failures propagate
// unmodified; callers classify status codes themselves.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, user *User, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, payload, user)
	if err != nil {
		return 0, nil, err
	}

	c.logger.Debug("sending request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// newRequest builds a request with the standard headers and credentials.
func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte, user *User) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+"/"+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		header, err := user.AuthHeader()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", header)
	}

	return req, nil
}

// decodeInto decodes a JSON response body into out.
func decodeInto(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CodeMessageDecode, "decoding response body")
	}
	return nil
}

func userLabel(user *User) string {
	if user == nil {
		return "anonymous"
	}
	return user.String()
}
