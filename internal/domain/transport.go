package domain

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transport carries JSON-RPC messages between an MCP client and the server.
type Transport interface {
	// Start begins listening for incoming messages.
	Start(ctx context.Context) error

	// Send transmits a JSON-RPC response to the client.
	Send(response *Response) error

	// Receive returns a channel of incoming requests.
	// The channel is closed when the transport shuts down.
	Receive() <-chan *Request

	// Close shuts the transport down.
	Close() error
}

// maxLineSize bounds a single newline-delimited message on stdio.
const maxLineSize = 4 * 1024 * 1024

// StdioTransport reads newline-delimited JSON-RPC requests from a reader
// and writes one JSON response per line to a writer.
type StdioTransport struct {
	reader  io.Reader
	writer  *bufio.Writer
	reqChan chan *Request
	logger  *zap.Logger
	mu      sync.Mutex
	closed  bool
}

// NewStdioTransport creates a transport bound to os.Stdin and os.Stdout.
func NewStdioTransport(logger *zap.Logger) *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout, logger)
}

// NewStdioTransportWithIO creates a StdioTransport over custom streams.
func NewStdioTransportWithIO(reader io.Reader, writer io.Writer, logger *zap.Logger) *StdioTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StdioTransport{
		reader:  reader,
		writer:  bufio.NewWriter(writer),
		reqChan: make(chan *Request, 10),
		logger:  logger,
	}
}

// Start spawns the read loop.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	go t.readLoop(ctx)
	return nil
}

func (t *StdioTransport) readLoop(ctx context.Context) {
	defer close(t.reqChan)

	scanner := bufio.NewScanner(t.reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		req, errResp := decodeRequest([]byte(line))
		if errResp != nil {
			if err := t.Send(errResp); err != nil {
				t.logger.Warn("failed to send decode error", zap.Error(err))
			}
			continue
		}

		select {
		case t.reqChan <- req:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		t.logger.Error("stdin read failed", zap.Error(err))
	}
}

// Send writes a response as a single line of JSON.
func (t *StdioTransport) Send(response *Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	if response.JSONRPC == "" {
		response.JSONRPC = JSONRPCVersion
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}

	return nil
}

// Receive returns the channel of incoming requests.
func (t *StdioTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close marks the transport closed. The request channel is closed by the
// read loop once stdin is exhausted or the context is cancelled.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// decodeRequest parses one JSON-RPC message. When the message is not a
// valid request the returned response describes why.
func decodeRequest(data []byte) (*Request, *Response) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewErrorResponse(nil, ParseError, "Parse error", err.Error())
	}

	if req.JSONRPC != JSONRPCVersion {
		return nil, NewErrorResponse(req.ID, InvalidRequest, "Invalid Request", "invalid jsonrpc version")
	}

	return &req, nil
}

// HTTPTransport serves MCP over HTTP with server-sent events:
// GET /mcp opens an SSE stream and announces a message endpoint, and
// POST /mcp/message?sessionId=... delivers client requests.
// Each response is written to the stream of the session that sent the request.
type HTTPTransport struct {
	host    string
	port    int
	server  *http.Server
	reqChan chan *Request
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool

	sessionsMu sync.RWMutex
	sessions   map[string]*sseSession
	// pending maps the transport key a request was tagged with to the
	// session that sent it and the ID the client chose.
	pending map[string]pendingRequest
}

type pendingRequest struct {
	sessionID string
	clientID  interface{}
}

type sseSession struct {
	id       string
	messages chan *Response
	done     chan struct{}
	once     sync.Once
}

func (s *sseSession) close() {
	s.once.Do(func() { close(s.done) })
}

// NewHTTPTransport creates a new HTTPTransport instance.
func NewHTTPTransport(host string, port int, logger *zap.Logger) *HTTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPTransport{
		host:     host,
		port:     port,
		reqChan:  make(chan *Request, 10),
		logger:   logger,
		sessions: make(map[string]*sseSession),
		pending:  make(map[string]pendingRequest),
	}
}

// Handler returns the HTTP handler serving both MCP endpoints.
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", t.handleSSE)
	mux.HandleFunc("/mcp/message", t.handleMessage)
	return mux
}

// Start begins serving HTTP and shuts down when ctx is cancelled.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", t.host, t.port),
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Unlock()

	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("HTTP transport stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	return nil
}

func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	session := &sseSession{
		id:       uuid.NewString(),
		messages: make(chan *Response, 10),
		done:     make(chan struct{}),
	}

	t.sessionsMu.Lock()
	t.sessions[session.id] = session
	t.sessionsMu.Unlock()

	defer func() {
		t.sessionsMu.Lock()
		delete(t.sessions, session.id)
		for key, p := range t.pending {
			if p.sessionID == session.id {
				delete(t.pending, key)
			}
		}
		t.sessionsMu.Unlock()
		session.close()
		t.logger.Debug("SSE session closed", zap.String("session_id", session.id))
	}()

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp/message?sessionId=%s\n\n", session.id)
	flusher.Flush()
	t.logger.Debug("SSE session established", zap.String("session_id", session.id))

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.done:
			return
		case response := <-session.messages:
			data, err := json.Marshal(response)
			if err != nil {
				t.logger.Error("failed to marshal SSE message", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (t *HTTPTransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Missing sessionId parameter", http.StatusBadRequest)
		return
	}

	t.sessionsMu.RLock()
	session, exists := t.sessions[sessionID]
	t.sessionsMu.RUnlock()
	if !exists {
		http.Error(w, "Invalid session", http.StatusBadRequest)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLineSize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	req, errResp := decodeRequest(body)
	if errResp != nil {
		t.deliver(session, errResp)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// Clients number their requests independently, so the ID is swapped for
	// a key unique to this transport and restored in Send.
	var key string
	if !req.IsNotification() {
		key = uuid.NewString()
		t.sessionsMu.Lock()
		t.pending[key] = pendingRequest{sessionID: session.id, clientID: req.ID}
		t.sessionsMu.Unlock()
		req.ID = key
	}

	// reqChan is closed under t.mu, so the send must happen under it too.
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		http.Error(w, "Transport closed", http.StatusServiceUnavailable)
		return
	}

	select {
	case t.reqChan <- req:
		w.WriteHeader(http.StatusAccepted)
	default:
		if key != "" {
			t.sessionsMu.Lock()
			req.ID = t.pending[key].clientID
			delete(t.pending, key)
			t.sessionsMu.Unlock()
		}
		t.deliver(session, NewErrorResponse(req.ID, InternalError, "Internal error", "request queue full"))
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}

func (t *HTTPTransport) deliver(session *sseSession, response *Response) {
	select {
	case session.messages <- response:
	default:
		t.logger.Warn("SSE session queue full, dropping message", zap.String("session_id", session.id))
	}
}

// Send routes a response to the session that issued the matching request
// and restores the ID that session used. Responses that match no pending
// request are dropped with an error.
func (t *HTTPTransport) Send(response *Response) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return fmt.Errorf("transport is closed")
	}

	if response.JSONRPC == "" {
		response.JSONRPC = JSONRPCVersion
	}

	t.sessionsMu.Lock()
	defer t.sessionsMu.Unlock()

	key, _ := response.ID.(string)
	p, ok := t.pending[key]
	if !ok {
		return fmt.Errorf("no session is awaiting response %v", response.ID)
	}
	delete(t.pending, key)
	response.ID = p.clientID

	session, ok := t.sessions[p.sessionID]
	if !ok {
		return fmt.Errorf("session %s is gone", p.sessionID)
	}
	t.deliver(session, response)
	return nil
}

// Receive returns the channel of incoming requests.
func (t *HTTPTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close ends every SSE session and shuts the HTTP server down.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.reqChan)
	server := t.server
	t.mu.Unlock()

	t.sessionsMu.Lock()
	for _, session := range t.sessions {
		session.close()
	}
	t.sessions = make(map[string]*sseSession)
	t.pending = make(map[string]pendingRequest)
	t.sessionsMu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}
