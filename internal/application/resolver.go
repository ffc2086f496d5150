package application

import (
	"context"
	"fmt"
	"strings"

	"trello-mcp-server/internal/domain"
)

// ListResolver maps a human list name to its Trello list ID.
// Lists are fetched on every call; results are never memoized.
type ListResolver struct {
	client domain.BoardClient
}

// NewListResolver creates a resolver over the configured board.
func NewListResolver(client domain.BoardClient) *ListResolver {
	return &ListResolver{client: client}
}

// Resolve returns the ID of the first list, in board order, whose name
// equals listName ignoring case. Partial matches never count.
func (r *ListResolver) Resolve(ctx context.Context, listName string) (string, error) {
	lists, err := r.client.GetLists(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch lists: %w", err)
	}

	for _, list := range lists {
		if strings.EqualFold(list.Name, listName) {
			return list.ID, nil
		}
	}

	return "", &domain.ListNotFoundError{Name: listName}
}
