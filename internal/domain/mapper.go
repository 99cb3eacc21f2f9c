package domain

// ResponseMapper converts handler output into MCP tool responses.
type ResponseMapper interface {
	// MapText wraps successful handler text.
	MapText(text string) *ToolResponse

	// MapError renders a handler failure as a text result. API errors and
	// generic errors get distinct prefixes.
	MapError(err error) *ToolResponse
}
