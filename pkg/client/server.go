package client

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/kart-io/ntfygo/pkg/errors"
)

// ServerInfo is the web-app configuration a server exposes.
type ServerInfo struct {
	BaseURL            string   `json:"base_url"`
	AppRoot            string   `json:"app_root"`
	EnableLogin        bool     `json:"enable_login"`
	EnableSignup       bool     `json:"enable_signup"`
	EnablePayments     bool     `json:"enable_payments"`
	EnableReservations bool     `json:"enable_reservations"`
	DisallowedTopics   []string `json:"disallowed_topics"`
}

// ServerHealth is the result of the server health probe.
type ServerHealth struct {
	Healthy bool `json:"healthy"`
}

// bareKeyPattern matches unquoted object keys in the config.js payload so
// it can be rewritten into strict JSON.
var bareKeyPattern = regexp.MustCompile(`(?m)^(\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// ServerInfo retrieves and decodes the server's config.js document. The
// document is a JavaScript assignment, not JSON, so it is unwrapped before
// decoding.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, "config.js", nil, nil, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		return nil, err
	}

	jsonBody, err := extractConfigObject(string(body))
	if err != nil {
		return nil, err
	}

	var info ServerInfo
	if err := decodeInto([]byte(jsonBody), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ServerHealth probes the server health endpoint.
func (c *Client) ServerHealth(ctx context.Context) (*ServerHealth, error) {
	status, body, err := c.do(ctx, http.MethodGet, "v1/health", nil, nil, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		return nil, err
	}

	var health ServerHealth
	if err := decodeInto(body, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// extractConfigObject strips the JavaScript wrapper from a config.js
// payload and quotes its bare keys, leaving a JSON object.
func extractConfigObject(script string) (string, error) {
	start := strings.Index(script, "{")
	end := strings.LastIndex(script, "}")
	if start < 0 || end < start {
		return "", errors.New(errors.CodeMessageDecode, "config.js does not contain an object literal")
	}

	object := script[start : end+1]
	object = bareKeyPattern.ReplaceAllString(object, `$1"$2":`)
	// Trailing commas are valid JavaScript but not JSON.
	object = strings.ReplaceAll(object, ",\n}", "\n}")
	object = strings.ReplaceAll(object, ",}", "}")
	return object, nil
}
