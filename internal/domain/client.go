package domain

import (
	"context"
)

// BoardClient is the authenticated gateway to the Trello board configured
// for this server. Every call goes to the remote service; nothing is cached.
type BoardClient interface {
	// BoardID returns the identifier of the configured board.
	BoardID() string

	// Request issues an authenticated call against an endpoint relative to
	// the API base. For GET, params are merged into the query string; for
	// any other method they are sent as a JSON body. The decoded response
	// is stored in out when out is non-nil.
	Request(ctx context.Context, method, endpoint string, params map[string]interface{}, out interface{}) error

	// GetBoard fetches the configured board's metadata.
	GetBoard(ctx context.Context) (*Board, error)

	// GetLists fetches all lists on the configured board.
	GetLists(ctx context.Context) ([]List, error)

	// GetCards fetches all cards on the configured board.
	GetCards(ctx context.Context) ([]Card, error)

	// CreateCard creates a card in the list named by card.IDList.
	CreateCard(ctx context.Context, card *CardCreate) (*Card, error)
}
