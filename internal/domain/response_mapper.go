package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Prefixes distinguishing the two tiers of tool failures.
const (
	APIErrorPrefix     = "Reddit API Error: "
	GenericErrorPrefix = "Error"
)

// DefaultResponseMapper is the default implementation of ResponseMapper.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// MapText wraps handler output in a single text content block.
func (m *DefaultResponseMapper) MapText(text string) *ToolResponse {
	return &ToolResponse{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

// MapError renders a failure as text.
//
//	Reddit API Error: <service message> (while <op>)
//	Error <op>: <cause>
//	Error: <cause>
func (m *DefaultResponseMapper) MapError(err error) *ToolResponse {
	if err == nil {
		return nil
	}

	return &ToolResponse{
		Content: []ContentBlock{{Type: "text", Text: FormatError(err)}},
		IsError: true,
	}
}

// FormatError returns the text rendering of a tool failure.
func FormatError(err error) string {
	var toolErr *ToolError
	hasOp := errors.As(err, &toolErr)

	var apiErr *RedditAPIError
	if errors.As(err, &apiErr) {
		if hasOp {
			return fmt.Sprintf("%s%s (while %s)", APIErrorPrefix, apiErr.Error(), toolErr.Op)
		}
		return APIErrorPrefix + apiErr.Error()
	}

	if hasOp {
		return fmt.Sprintf("%s %s: %v", GenericErrorPrefix, toolErr.Op, toolErr.Err)
	}
	return fmt.Sprintf("%s: %v", GenericErrorPrefix, err)
}

// StatusMessage describes an HTTP error status when Reddit sends no message
// of its own.
func StatusMessage(statusCode int) string {
	switch statusCode {
	case http.StatusUnauthorized:
		return "authentication failed"
	case http.StatusForbidden:
		return "access forbidden (private, quarantined or banned)"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	case http.StatusGatewayTimeout:
		return "gateway timeout"
	}

	switch {
	case statusCode >= 300 && statusCode < 400:
		return "resource not found (redirected)"
	case statusCode >= 400 && statusCode < 500:
		return fmt.Sprintf("client error (HTTP %d)", statusCode)
	case statusCode >= 500:
		return fmt.Sprintf("server error (HTTP %d)", statusCode)
	}
	return fmt.Sprintf("unexpected HTTP status %d", statusCode)
}
