package domain

// ResponseMapper turns handler output into MCP tool responses and turns
// handler failures into the uniform JSON-RPC error envelope.
type ResponseMapper interface {
	// MapToToolResponse wraps human-readable text into a tool response.
	MapToToolResponse(text string) *ToolResponse

	// MapError normalizes an error raised while executing tool.
	// Protocol errors (*Error) are returned unchanged.
	MapError(tool string, err error) *Error
}
