// Package errors provides error codes and typed errors for the ntfy client.
package errors

// ErrorCode represents a ntfy client error code
type ErrorCode string

// Validation Error Codes
const (
	// CodeInvalidTopic indicates a topic name that violates the topic naming rule
	CodeInvalidTopic ErrorCode = "INVALID_TOPIC"

	// CodeInvalidParameter indicates an invalid request parameter value
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// CodeMissingCredentials indicates a user without any authentication information
	CodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"
)

// Protocol Error Codes
const (
	// CodeUnauthorized indicates the server rejected the credentials (HTTP 401/403)
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeEntityTooLarge indicates the publish payload exceeded the server limit (HTTP 413)
	CodeEntityTooLarge ErrorCode = "ENTITY_TOO_LARGE"

	// CodeTooManyRequests indicates the server is rate limiting the client (HTTP 429)
	CodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"

	// CodeUnexpectedStatus indicates a status code outside the known set,
	// escalated verbatim rather than coerced into a known category
	CodeUnexpectedStatus ErrorCode = "UNEXPECTED_STATUS"
)

// Decode Error Codes
const (
	// CodeMessageDecode indicates a stream line that failed to decode as a message envelope
	CodeMessageDecode ErrorCode = "MESSAGE_DECODE"

	// CodeActionDecode indicates a single action record that failed to decode
	CodeActionDecode ErrorCode = "ACTION_DECODE"
)

// Queue Error Codes
const (
	// CodeQueueClosed indicates an enqueue against a closed queue
	CodeQueueClosed ErrorCode = "QUEUE_CLOSED"

	// CodeQueueFull indicates the queue reached its capacity
	CodeQueueFull ErrorCode = "QUEUE_FULL"
)
