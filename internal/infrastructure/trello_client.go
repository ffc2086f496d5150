package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"trello-mcp-server/internal/domain"
)

// TrelloClient handles Trello REST API interactions for a single board.
// Authentication is supplied by the HTTP client's transport (see
// domain.NewAuthenticatedClient); this client never retries.
type TrelloClient struct {
	baseURL    string
	boardID    string
	httpClient *http.Client
}

// NewTrelloClient creates a new Trello API client.
// The baseURL is the API root (e.g., "https://api.trello.com/1").
func NewTrelloClient(baseURL, boardID string, httpClient *http.Client) *TrelloClient {
	return &TrelloClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		boardID:    boardID,
		httpClient: httpClient,
	}
}

// BaseURL returns the configured API root.
func (c *TrelloClient) BaseURL() string {
	return c.baseURL
}

// BoardID returns the identifier of the configured board.
func (c *TrelloClient) BoardID() string {
	return c.boardID
}

// Request issues a call against endpoint, relative to the API root.
// GET params are merged into the query string; for every other method they
// are sent as a JSON body. A non-2xx status yields a *domain.HTTPError.
func (c *TrelloClient) Request(ctx context.Context, method, endpoint string, params map[string]interface{}, out interface{}) error {
	target, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	var body io.Reader
	if method == http.MethodGet {
		query := target.Query()
		for k, v := range params {
			query.Set(k, fmt.Sprint(v))
		}
		target.RawQuery = query.Encode()
	} else if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trello API %s %s failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}

	return nil
}

// GetBoard retrieves the configured board's metadata.
func (c *TrelloClient) GetBoard(ctx context.Context) (*domain.Board, error) {
	var board domain.Board
	if err := c.Request(ctx, http.MethodGet, "/boards/"+url.PathEscape(c.boardID), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// GetLists retrieves every list on the configured board, in board order.
func (c *TrelloClient) GetLists(ctx context.Context) ([]domain.List, error) {
	var lists []domain.List
	if err := c.Request(ctx, http.MethodGet, "/boards/"+url.PathEscape(c.boardID)+"/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetCards retrieves every card on the configured board.
func (c *TrelloClient) GetCards(ctx context.Context) ([]domain.Card, error) {
	var cards []domain.Card
	if err := c.Request(ctx, http.MethodGet, "/boards/"+url.PathEscape(c.boardID)+"/cards", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateCard creates a card. Each call creates a new card; there is no
// deduplication.
func (c *TrelloClient) CreateCard(ctx context.Context, card *domain.CardCreate) (*domain.Card, error) {
	var created domain.Card
	if err := c.Request(ctx, http.MethodPost, "/cards", card.Params(), &created); err != nil {
		return nil, err
	}
	return &created, nil
}
