package application

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"trello-mcp-server/internal/domain"
	"trello-mcp-server/internal/infrastructure"
)

const (
	testBoardID = "board-1"
	testAPIKey  = "test-key"
	testToken   = "test-token"
)

// fakeTrello is an in-memory Trello API that records every call it receives.
type fakeTrello struct {
	mu      sync.Mutex
	board   domain.Board
	lists   []domain.List
	cards   []domain.Card
	calls   []string
	created []domain.CardCreate
	// failCreateAt makes the Nth card creation (1-based) fail with HTTP 500.
	failCreateAt int
	// failPaths answers the listed "METHOD /path" calls with HTTP 500.
	failPaths map[string]bool
	// failCardNames makes the creation of the named cards fail with HTTP 500.
	failCardNames map[string]bool
	// beforeRequest runs before the call is recorded, outside the lock, so
	// it may block to hold a request in flight.
	beforeRequest func(call string, body []byte)
	creates       int
}

func newFakeTrello(lists ...domain.List) *fakeTrello {
	return &fakeTrello{
		board: domain.Board{
			ID:   testBoardID,
			Name: "Project Board",
			URL:  "https://trello.com/b/board-1/project-board",
		},
		lists:         lists,
		failPaths:     make(map[string]bool),
		failCardNames: make(map[string]bool),
	}
}

func (f *fakeTrello) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)
	if f.beforeRequest != nil {
		f.beforeRequest(call, body)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)

	if r.URL.Query().Get("key") != testAPIKey || r.URL.Query().Get("token") != testToken {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid key"))
		return
	}

	if f.failPaths[call] {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/boards/"+testBoardID:
		json.NewEncoder(w).Encode(f.board)
	case r.Method == http.MethodGet && r.URL.Path == "/boards/"+testBoardID+"/lists":
		json.NewEncoder(w).Encode(f.lists)
	case r.Method == http.MethodGet && r.URL.Path == "/boards/"+testBoardID+"/cards":
		json.NewEncoder(w).Encode(f.cards)
	case r.Method == http.MethodPost && r.URL.Path == "/cards":
		var req domain.CardCreate
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.creates++
		if f.creates == f.failCreateAt || f.failCardNames[req.Name] {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("card creation failed"))
			return
		}
		f.created = append(f.created, req)
		id := fmt.Sprintf("card-%d", len(f.cards)+1)
		card := domain.Card{
			ID:     id,
			Name:   req.Name,
			Desc:   req.Desc,
			URL:    "https://trello.com/c/" + id,
			IDList: req.IDList,
		}
		f.cards = append(f.cards, card)
		json.NewEncoder(w).Encode(card)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// recordedCalls returns a copy of the calls received so far.
func (f *fakeTrello) recordedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeTrello) createdCards() []domain.CardCreate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CardCreate, len(f.created))
	copy(out, f.created)
	return out
}

func (f *fakeTrello) countCalls(call string) int {
	n := 0
	for _, c := range f.recordedCalls() {
		if c == call {
			n++
		}
	}
	return n
}

// startFakeTrello serves fake over HTTP and returns a real client bound to it.
func startFakeTrello(t *testing.T, fake *fakeTrello) *infrastructure.TrelloClient {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	httpClient := domain.NewAuthenticatedClient(&domain.Credentials{
		APIKey: testAPIKey,
		Token:  testToken,
	}, 5*time.Second)
	return infrastructure.NewTrelloClient(server.URL, testBoardID, httpClient)
}

var fixedNow = func() time.Time {
	return time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
}

func newTestHandler(t *testing.T, fake *fakeTrello, concurrency int) *TrelloHandler {
	t.Helper()
	return NewTrelloHandler(startFakeTrello(t, fake), domain.NewResponseMapper(), HandlerOptions{
		SubtaskConcurrency: concurrency,
		Now:                fixedNow,
	})
}

func responseText(t *testing.T, resp *domain.ToolResponse) string {
	t.Helper()
	if resp == nil {
		t.Fatal("Expected response, got nil")
	}
	if len(resp.Content) != 1 {
		t.Fatalf("Expected 1 content block, got %d", len(resp.Content))
	}
	if resp.Content[0].Type != "text" {
		t.Errorf("Expected text block, got %s", resp.Content[0].Type)
	}
	return resp.Content[0].Text
}

func assertCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Unexpected API calls\n got: %v\nwant: %v", got, want)
	}
}
