package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trello-mcp-server/internal/domain"
)

// TrelloHandler implements ToolHandler for the board tools.
type TrelloHandler struct {
	client             domain.BoardClient
	resolver           *ListResolver
	mapper             domain.ResponseMapper
	logger             *zap.Logger
	now                func() time.Time
	subtaskConcurrency int
}

// HandlerOptions tunes a TrelloHandler. Zero values pick the defaults.
type HandlerOptions struct {
	// SubtaskConcurrency bounds concurrent sub-card writes in create_epic.
	// Defaults to 1 (sequential).
	SubtaskConcurrency int
	// Now stamps epic descriptions. Defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// NewTrelloHandler creates a new TrelloHandler instance.
func NewTrelloHandler(client domain.BoardClient, mapper domain.ResponseMapper, opts HandlerOptions) *TrelloHandler {
	h := &TrelloHandler{
		client:             client,
		resolver:           NewListResolver(client),
		mapper:             mapper,
		logger:             opts.Logger,
		now:                opts.Now,
		subtaskConcurrency: opts.SubtaskConcurrency,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.subtaskConcurrency < 1 {
		h.subtaskConcurrency = 1
	}
	return h
}

// ListTools returns the tool catalogue.
func (h *TrelloHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        domain.ToolCreateCard,
			Description: "Create a new card in a list of the Trello board",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Card name",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "Card description",
					},
					"listName": map[string]interface{}{
						"type":        "string",
						"description": "Name of the list to create the card in (case-insensitive)",
					},
					"labels": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Labels for the card",
					},
				},
				Required: []string{"name", "listName"},
			},
		},
		{
			Name:        domain.ToolGetBoardInfo,
			Description: "Get the board with all of its lists and cards",
			InputSchema: domain.JSONSchema{
				Type:       "object",
				Properties: map[string]interface{}{},
			},
		},
		{
			Name:        domain.ToolCreateEpic,
			Description: "Create an epic (parent card) together with its sub-cards",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"epicName": map[string]interface{}{
						"type":        "string",
						"description": "Epic name",
					},
					"epicDescription": map[string]interface{}{
						"type":        "string",
						"description": "Epic description",
					},
					"listName": map[string]interface{}{
						"type":        "string",
						"description": "List to create the epic in",
					},
					"subTasks": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name":        map[string]interface{}{"type": "string"},
								"description": map[string]interface{}{"type": "string"},
								"listName":    map[string]interface{}{"type": "string"},
							},
							"required": []string{"name"},
						},
						"description": "Sub-tasks, created in order",
					},
					"epicColor": map[string]interface{}{
						"type":        "string",
						"enum":        domain.EpicColors,
						"description": "Color of the epic label",
					},
				},
				Required: []string{"epicName", "listName"},
			},
		},
	}
}

// Handle executes the tool the typed arguments belong to.
func (h *TrelloHandler) Handle(ctx context.Context, args domain.ToolArguments) (*domain.ToolResponse, error) {
	switch a := args.(type) {
	case *domain.CreateCardArgs:
		return h.handleCreateCard(ctx, a)
	case *domain.GetBoardInfoArgs:
		return h.handleGetBoardInfo(ctx)
	case *domain.CreateEpicArgs:
		return h.handleCreateEpic(ctx, a)
	default:
		return nil, unknownToolError(args.ToolName())
	}
}

// handleCreateCard handles the create_card tool call.
func (h *TrelloHandler) handleCreateCard(ctx context.Context, args *domain.CreateCardArgs) (*domain.ToolResponse, error) {
	listID, err := h.resolver.Resolve(ctx, args.ListName)
	if err != nil {
		return nil, err
	}

	card, err := h.client.CreateCard(ctx, &domain.CardCreate{
		Name:   args.Name,
		Desc:   args.Description,
		IDList: listID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	h.logger.Info("card created",
		zap.String("card_id", card.ID),
		zap.String("list_id", listID),
	)

	return h.mapper.MapToToolResponse(formatCardCreated(card, args)), nil
}

// handleGetBoardInfo handles the get_board_info tool call.
// The three reads run concurrently; the first failure fails the call.
func (h *TrelloHandler) handleGetBoardInfo(ctx context.Context) (*domain.ToolResponse, error) {
	var (
		board *domain.Board
		lists []domain.List
		cards []domain.Card
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		board, err = h.client.GetBoard(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		lists, err = h.client.GetLists(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cards, err = h.client.GetCards(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch board: %w", err)
	}

	view := domain.NewBoardView(*board, lists, cards)
	return h.mapper.MapToToolResponse(formatBoardView(view)), nil
}
