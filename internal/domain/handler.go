package domain

import (
	"context"
)

// ToolHandler executes one or more MCP tools.
// The dispatcher validates and decodes arguments before Handle is called,
// so handlers only ever see a typed ToolArguments variant.
type ToolHandler interface {
	// Handle executes the tool named by args.ToolName().
	Handle(ctx context.Context, args ToolArguments) (*ToolResponse, error)

	// ListTools returns the definitions of every tool this handler serves.
	ListTools() []ToolDefinition
}
