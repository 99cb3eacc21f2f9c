package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is returned when no handler is registered for a tool name.
var ErrUnknownTool = errors.New("unknown tool")

// RedditAPIError is a structured rejection from the Reddit API: an HTTP error
// status or an error entry in a JSON response body.
type RedditAPIError struct {
	StatusCode int
	Code       string // Reddit error identifier, e.g. SUBREDDIT_NOEXIST or "private"
	Message    string
	Field      string
}

// Error implements the error interface.
func (e *RedditAPIError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	return msg
}

// NewRedditAPIError creates a RedditAPIError for an HTTP status.
func NewRedditAPIError(statusCode int, code, message string) *RedditAPIError {
	return &RedditAPIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// ToolError annotates a failure with the operation a handler was performing,
// e.g. "fetching posts from r/golang".
type ToolError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// WrapToolError wraps err with an operation description. A nil err stays nil.
func WrapToolError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ToolError{Op: op, Err: err}
}
