package application

import (
	"context"

	"go.uber.org/zap"

	"trello-mcp-server/internal/domain"
)

// RequestRouter dispatches tool calls to the handler that publishes the
// requested tool, and normalizes every failure into a *domain.Error.
type RequestRouter struct {
	handlers map[string]domain.ToolHandler
	tools    []domain.ToolDefinition
	mapper   domain.ResponseMapper
	logger   *zap.Logger
}

// NewRequestRouter creates a RequestRouter serving every tool the handlers list.
// When two handlers publish the same tool name, the first one wins.
func NewRequestRouter(mapper domain.ResponseMapper, logger *zap.Logger, handlers ...domain.ToolHandler) *RequestRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := &RequestRouter{
		handlers: make(map[string]domain.ToolHandler),
		mapper:   mapper,
		logger:   logger,
	}

	for _, handler := range handlers {
		for _, tool := range handler.ListTools() {
			if _, exists := router.handlers[tool.Name]; exists {
				logger.Warn("duplicate tool ignored", zap.String("tool", tool.Name))
				continue
			}
			router.handlers[tool.Name] = handler
			router.tools = append(router.tools, tool)
		}
	}

	return router
}

// Route validates and executes a tool call.
// Unknown tools fail before any remote call. Argument problems fail before
// the handler runs. Handler failures that are not already protocol errors
// are wrapped as internal errors naming the tool.
func (r *RequestRouter) Route(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	handler, exists := r.handlers[req.Name]
	if !exists {
		return nil, unknownToolError(req.Name)
	}

	args, err := decodeArguments(req.Name, req.Arguments)
	if err != nil {
		return nil, r.mapper.MapError(req.Name, err)
	}

	resp, err := handler.Handle(ctx, args)
	if err != nil {
		r.logger.Error("tool execution failed",
			zap.String("tool", req.Name),
			zap.String("error_kind", string(domain.ClassifyError(err))),
			zap.Error(err),
		)
		return nil, r.mapper.MapError(req.Name, err)
	}

	return resp, nil
}

// ListAllTools returns the catalogue in registration order.
func (r *RequestRouter) ListAllTools() []domain.ToolDefinition {
	tools := make([]domain.ToolDefinition, len(r.tools))
	copy(tools, r.tools)
	return tools
}

// GetHandler returns the handler serving a tool.
func (r *RequestRouter) GetHandler(tool string) (domain.ToolHandler, bool) {
	handler, exists := r.handlers[tool]
	return handler, exists
}
