package errors

import (
	"errors"
	"fmt"
)

// Error represents a ntfy client error with structured information
type Error struct {
	// Code classifies the error for programmatic branching
	Code ErrorCode `json:"code"`
	// Message is a human-readable description
	Message string `json:"message"`
	// Topic is the topic involved, if any
	Topic string `json:"topic,omitempty"`
	// StatusCode carries the literal HTTP status for protocol errors
	StatusCode int `json:"status_code,omitempty"`
	// Cause is the underlying error, not serialized
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Topic != "":
		return fmt.Sprintf("%s: %s (topic: %s)", e.Code, e.Message, e.Topic)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// NewInvalidTopic creates a validation error identifying the offending topic name
func NewInvalidTopic(topic string) *Error {
	return &Error{
		Code:    CodeInvalidTopic,
		Message: "topic must be 1-64 characters of A-Z, a-z, 0-9, underscore or dash",
		Topic:   topic,
	}
}

// IsCode reports whether err is an *Error carrying the given code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the error code of err, or an empty code for foreign errors
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
