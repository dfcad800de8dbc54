package client

import (
	"net/http"
	"time"

	"github.com/kart-io/ntfygo/observability"
	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/logger"
)

// Option configures a Client during construction.
type Option func(*Client) error

// WithHTTPClient replaces the HTTP client used for request/response calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return errors.New(errors.CodeInvalidParameter, "http client cannot be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithStreamClient replaces the HTTP client used for long-lived subscription
// streams. It should carry no overall timeout, since a subscription request
// is held open indefinitely.
func WithStreamClient(streamClient *http.Client) Option {
	return func(c *Client) error {
		if streamClient == nil {
			return errors.New(errors.CodeInvalidParameter, "stream client cannot be nil")
		}
		c.streamClient = streamClient
		return nil
	}
}

// WithLogger replaces the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) error {
		if log == nil {
			return errors.New(errors.CodeInvalidParameter, "logger cannot be nil")
		}
		c.logger = log
		return nil
	}
}

// WithTelemetry attaches a telemetry provider. A nil provider disables
// telemetry, which is also the default.
func WithTelemetry(telemetry *observability.TelemetryProvider) Option {
	return func(c *Client) error {
		c.telemetry = telemetry
		return nil
	}
}

// WithUserAgent replaces the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		if userAgent == "" {
			return errors.New(errors.CodeInvalidParameter, "user agent cannot be empty")
		}
		c.userAgent = userAgent
		return nil
	}
}

// WithRequestTimeout sets the timeout for ordinary request/response calls.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.New(errors.CodeInvalidParameter, "request timeout must be positive")
		}
		c.requestTimeout = timeout
		return nil
	}
}

// WithPublishTimeout sets the timeout for publish calls, which may upload
// attachments and therefore run much longer than ordinary requests.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.New(errors.CodeInvalidParameter, "publish timeout must be positive")
		}
		c.publishTimeout = timeout
		return nil
	}
}
