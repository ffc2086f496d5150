package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trello-mcp-server/internal/domain"
)

// Server is the MCP server. It reads requests from a transport, answers the
// protocol methods and hands tool calls to the router.
type Server struct {
	transport domain.Transport
	router    *RequestRouter
	info      domain.ServerInfo
	logger    *zap.Logger
	done      chan struct{}
}

// NewServer creates a new MCP server instance.
func NewServer(transport domain.Transport, router *RequestRouter, info domain.ServerInfo, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		transport: transport,
		router:    router,
		info:      info,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start starts the transport and begins processing requests in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}

	go s.processRequests(ctx)
	return nil
}

// processRequests handles requests one at a time until the transport's
// channel closes or ctx is cancelled.
func (s *Server) processRequests(ctx context.Context) {
	defer close(s.done)
	reqChan := s.transport.Receive()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("server shutting down")
			return
		case req, ok := <-reqChan:
			if !ok {
				s.logger.Info("transport closed")
				return
			}
			s.handleRequest(ctx, req)
		}
	}
}

// Done is closed once the server stops processing requests.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// handleRequest answers a single JSON-RPC request.
func (s *Server) handleRequest(ctx context.Context, req *domain.Request) {
	s.logger.Debug("received request",
		zap.String("method", req.Method),
		zap.Any("request_id", req.ID),
	)

	if req.Method == "" {
		s.send(domain.NewErrorResponse(req.ID, domain.InvalidRequest, "Invalid Request", "method is required"))
		return
	}

	// Notifications (initialized, cancelled, ...) are never answered.
	if req.IsNotification() {
		s.logger.Debug("notification received", zap.String("method", req.Method))
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "initialize":
		result = s.handleInitialize()
	case "ping":
		result = map[string]interface{}{}
	case "tools/list":
		result = map[string]interface{}{
			"tools": s.router.ListAllTools(),
		}
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req)
	default:
		err = &domain.Error{
			Code:    domain.MethodNotFound,
			Message: "Method not found",
			Data:    fmt.Sprintf("unknown method: %s", req.Method),
		}
	}

	if err != nil {
		var protoErr *domain.Error
		if !errors.As(err, &protoErr) {
			protoErr = &domain.Error{Code: domain.InternalError, Message: err.Error()}
		}
		s.send(&domain.Response{JSONRPC: domain.JSONRPCVersion, ID: req.ID, Error: protoErr})
		return
	}

	s.send(&domain.Response{JSONRPC: domain.JSONRPCVersion, ID: req.ID, Result: result})
}

// handleInitialize answers the MCP handshake.
func (s *Server) handleInitialize() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": domain.ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": s.info,
	}
}

// handleToolsCall decodes the tools/call params and routes the call.
func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) (*domain.ToolResponse, error) {
	toolReq, err := parseToolRequest(req.Params)
	if err != nil {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "Invalid params",
			Data:    err.Error(),
		}
	}

	resp, err := s.router.Route(ctx, toolReq)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tool call completed",
		zap.String("tool", toolReq.Name),
		zap.Any("request_id", req.ID),
	)
	return resp, nil
}

// parseToolRequest converts the params field into a ToolRequest.
func parseToolRequest(params interface{}) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]interface{})
	}

	return &toolReq, nil
}

func (s *Server) send(response *domain.Response) {
	if err := s.transport.Send(response); err != nil {
		s.logger.Error("failed to send response",
			zap.Any("request_id", response.ID),
			zap.Error(err),
		)
	}
}

// Close shuts the transport down.
func (s *Server) Close() error {
	s.logger.Info("closing server")
	return s.transport.Close()
}
