package domain

import (
	"context"
)

// ToolHandler implements exactly one MCP tool.
type ToolHandler interface {
	// Definition returns the tool's name, description and input schema.
	Definition() ToolDefinition

	// Handle validates the raw arguments and returns the tool's Markdown text.
	// Failures are returned as errors; the router turns them into text.
	Handle(ctx context.Context, args map[string]interface{}) (string, error)
}
