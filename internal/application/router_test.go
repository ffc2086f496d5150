package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"trello-mcp-server/internal/domain"
)

// mockHandler is a test implementation of ToolHandler
type mockHandler struct {
	tools    []domain.ToolDefinition
	received []domain.ToolArguments
	err      error
}

func (m *mockHandler) Handle(ctx context.Context, args domain.ToolArguments) (*domain.ToolResponse, error) {
	m.received = append(m.received, args)
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewResponseMapper().MapToToolResponse("handled " + args.ToolName()), nil
}

func (m *mockHandler) ListTools() []domain.ToolDefinition {
	return m.tools
}

func newMockHandler(err error) *mockHandler {
	return &mockHandler{
		tools: []domain.ToolDefinition{
			{Name: domain.ToolCreateCard},
			{Name: domain.ToolGetBoardInfo},
			{Name: domain.ToolCreateEpic},
		},
		err: err,
	}
}

func TestRouteToHandler(t *testing.T) {
	handler := newMockHandler(nil)
	router := NewRequestRouter(domain.NewResponseMapper(), nil, handler)

	resp, err := router.Route(context.Background(), &domain.ToolRequest{
		Name: domain.ToolCreateCard,
		Arguments: map[string]interface{}{
			"name":     "A",
			"listName": "Todo",
			"labels":   []interface{}{"x", "y"},
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := responseText(t, resp); got != "handled create_card" {
		t.Errorf("Unexpected response %q", got)
	}

	if len(handler.received) != 1 {
		t.Fatalf("Expected handler to be called once, got %d", len(handler.received))
	}
	args, ok := handler.received[0].(*domain.CreateCardArgs)
	if !ok {
		t.Fatalf("Expected *CreateCardArgs, got %T", handler.received[0])
	}
	if args.Name != "A" || args.ListName != "Todo" || len(args.Labels) != 2 {
		t.Errorf("Unexpected decoded arguments: %+v", args)
	}
}

func TestRouteUnknownTool(t *testing.T) {
	fake := newFakeTrello(domain.List{ID: "list-1", Name: "Todo"})
	handler := newTestHandler(t, fake, 1)
	router := NewRequestRouter(domain.NewResponseMapper(), nil, handler)

	_, err := router.Route(context.Background(), &domain.ToolRequest{Name: "delete_board"})

	var protoErr *domain.Error
	if !errors.As(err, &protoErr) {
		t.Fatalf("Expected *domain.Error, got %v", err)
	}
	if protoErr.Code != domain.MethodNotFound {
		t.Errorf("Expected MethodNotFound, got %d", protoErr.Code)
	}
	if protoErr.Message != "unknown tool: delete_board" {
		t.Errorf("Unexpected message %q", protoErr.Message)
	}
	if calls := fake.recordedCalls(); len(calls) != 0 {
		t.Errorf("Expected no remote calls, got %v", calls)
	}
}

func TestRouteValidatesArgumentsBeforeHandler(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]interface{}
		message string
	}{
		{
			name:    "missing name",
			tool:    domain.ToolCreateCard,
			args:    map[string]interface{}{"listName": "Todo"},
			message: "missing required parameter: name",
		},
		{
			name:    "empty list name",
			tool:    domain.ToolCreateCard,
			args:    map[string]interface{}{"name": "A", "listName": ""},
			message: "missing required parameter: listName",
		},
		{
			name:    "wrong type",
			tool:    domain.ToolCreateCard,
			args:    map[string]interface{}{"name": 42, "listName": "Todo"},
			message: "parameter name must be of type string",
		},
		{
			name:    "sub-task without name",
			tool:    domain.ToolCreateEpic,
			args:    map[string]interface{}{"epicName": "E", "listName": "Todo", "subTasks": []interface{}{map[string]interface{}{"description": "d"}}},
			message: "missing required parameter: subTasks[0].name",
		},
		{
			name:    "bad color",
			tool:    domain.ToolCreateEpic,
			args:    map[string]interface{}{"epicName": "E", "listName": "Todo", "epicColor": "magenta"},
			message: "parameter epicColor must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newMockHandler(nil)
			router := NewRequestRouter(domain.NewResponseMapper(), nil, handler)

			_, err := router.Route(context.Background(), &domain.ToolRequest{Name: tt.tool, Arguments: tt.args})

			var protoErr *domain.Error
			if !errors.As(err, &protoErr) {
				t.Fatalf("Expected *domain.Error, got %v", err)
			}
			if protoErr.Code != domain.InvalidParams {
				t.Errorf("Expected InvalidParams, got %d", protoErr.Code)
			}
			if !strings.Contains(protoErr.Message, tt.message) {
				t.Errorf("Expected message containing %q, got %q", tt.message, protoErr.Message)
			}
			if len(handler.received) != 0 {
				t.Error("Handler must not run on invalid arguments")
			}
		})
	}
}

func TestRouteAppliesDefaultEpicColor(t *testing.T) {
	handler := newMockHandler(nil)
	router := NewRequestRouter(domain.NewResponseMapper(), nil, handler)

	_, err := router.Route(context.Background(), &domain.ToolRequest{
		Name:      domain.ToolCreateEpic,
		Arguments: map[string]interface{}{"epicName": "E", "listName": "Todo"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	args := handler.received[0].(*domain.CreateEpicArgs)
	if args.EpicColor != domain.DefaultEpicColor {
		t.Errorf("Expected default color %s, got %s", domain.DefaultEpicColor, args.EpicColor)
	}
	if len(args.SubTasks) != 0 {
		t.Errorf("Expected no sub-tasks by default, got %d", len(args.SubTasks))
	}
}

func TestRoutePassesProtocolErrorsThrough(t *testing.T) {
	original := &domain.Error{Code: domain.InvalidParams, Message: "bad input"}
	router := NewRequestRouter(domain.NewResponseMapper(), nil, newMockHandler(original))

	_, err := router.Route(context.Background(), &domain.ToolRequest{Name: domain.ToolGetBoardInfo})

	if err != original {
		t.Errorf("Expected the original protocol error, got %v", err)
	}
}

func TestRouteWrapsOtherErrors(t *testing.T) {
	cause := fmt.Errorf("failed to create card: %w", &domain.HTTPError{StatusCode: 503, Method: "POST", Endpoint: "/cards"})
	router := NewRequestRouter(domain.NewResponseMapper(), nil, newMockHandler(cause))

	_, err := router.Route(context.Background(), &domain.ToolRequest{
		Name:      domain.ToolCreateCard,
		Arguments: map[string]interface{}{"name": "A", "listName": "Todo"},
	})

	var protoErr *domain.Error
	if !errors.As(err, &protoErr) {
		t.Fatalf("Expected *domain.Error, got %v", err)
	}
	if protoErr.Code != domain.InternalError {
		t.Errorf("Expected InternalError, got %d", protoErr.Code)
	}
	if !strings.HasPrefix(protoErr.Message, "error executing create_card: ") || !strings.Contains(protoErr.Message, cause.Error()) {
		t.Errorf("Expected message naming tool and cause, got %q", protoErr.Message)
	}

	data := protoErr.Data.(map[string]interface{})
	if data["kind"] != string(domain.KindRemote) || data["statusCode"] != 503 {
		t.Errorf("Unexpected error data %v", data)
	}
}

func TestListAllToolsKeepsRegistrationOrder(t *testing.T) {
	router := NewRequestRouter(domain.NewResponseMapper(), nil,
		NewTrelloHandler(nil, domain.NewResponseMapper(), HandlerOptions{}),
		newMockHandler(nil),
	)

	tools := router.ListAllTools()
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}

	want := []string{domain.ToolCreateCard, domain.ToolGetBoardInfo, domain.ToolCreateEpic}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v (duplicates dropped), got %v", want, names)
	}

	if handler, ok := router.GetHandler(domain.ToolCreateEpic); !ok {
		t.Error("Expected create_epic to be routed")
	} else if _, isTrello := handler.(*TrelloHandler); !isTrello {
		t.Errorf("Expected the first registered handler to win, got %T", handler)
	}
}
