package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yegors/wx-widget/internal/widget"
	"github.com/yegors/wx-widget/pkg/logger"
)

// Message types sent by the browser
const (
	MessageTypeSearch       = "search"        // {query}
	MessageTypeLocate       = "locate"        // {lat, lon}
	MessageTypeLocateFailed = "locate_failed" // {reason: "denied" | "unsupported"}
	MessageTypeDismissError = "dismiss_error" // {}
	MessageTypeGetView      = "get_view"      // {}
)

// Message types sent to the browser
const (
	MessageTypeView  = "view"  // full widget.View
	MessageTypeClock = "clock" // weather.ClockDisplay
	MessageTypeError = "error" // protocol errors, not lookup failures
)

// maxMessageSize bounds browser messages; they are all tiny
const maxMessageSize = 4096

// Message represents a WebSocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// incoming is the shape of browser messages
type incoming struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// SessionFactory creates the widget session owned by a new client
type SessionFactory func() *widget.Session

// Client represents a WebSocket client
type Client struct {
	conn    *websocket.Conn
	send    chan *Message
	server  *Server
	session *widget.Session
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	closed  bool
}

// Server represents a WebSocket server
type Server struct {
	clients      map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	done         chan struct{}
	upgrader     websocket.Upgrader
	newSession   SessionFactory
	tickInterval time.Duration
	logger       *logger.Logger
	mu           sync.RWMutex
}

// NewServer creates a new WebSocket server
func NewServer(newSession SessionFactory, tickInterval time.Duration, log *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		newSession:   newSession,
		tickInterval: tickInterval,
		logger:       log.Named("web-socket"),
	}
}

// Run starts the WebSocket server and blocks until ctx is done.
// Every tick it re-derives each client's destination clock and pushes it.
func (s *Server) Run(ctx context.Context) {
	s.logger.Info("Starting WebSocket server", logger.Duration("tick_interval", s.tickInterval))

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client registered", logger.Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.markClosed()
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client unregistered", logger.Int("client_count", clientCount))

		case <-ticker.C:
			s.tick()
		}
	}
}

// tick pushes the clock to every client currently showing a result
func (s *Server) tick() {
	s.mu.RLock()
	clientsToRemove := make([]*Client, 0)
	for client := range s.clients {
		clock, shown := client.session.Tick()
		if !shown {
			continue
		}
		if !client.SendMessage(&Message{Type: MessageTypeClock, Data: clock}) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.mu.RUnlock()

	// Clean up failed clients
	if len(clientsToRemove) > 0 {
		s.mu.Lock()
		for _, client := range clientsToRemove {
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.markClosed()
			}
		}
		s.mu.Unlock()
		s.logger.Debug("Dropped unresponsive clients", logger.Int("count", len(clientsToRemove)))
	}
}

func (s *Server) shutdown() {
	close(s.done)

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		delete(s.clients, client)
		client.markClosed()
	}
	s.logger.Info("WebSocket server stopped")
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleConnection handles a WebSocket connection
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Handling new WebSocket connection request",
		logger.String("remote_addr", r.RemoteAddr),
		logger.String("user_agent", r.UserAgent()))

	// Upgrade HTTP connection to WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		conn:    conn,
		send:    make(chan *Message, 64),
		server:  s,
		session: s.newSession(),
		ctx:     ctx,
		cancel:  cancel,
	}

	select {
	case s.register <- client:
	case <-s.done:
		cancel()
		conn.Close()
		return
	}

	// Start with the (empty) view so the page can render its prompt
	client.SendMessage(&Message{Type: MessageTypeView, Data: client.session.View()})

	go client.readPump()
	go client.writePump()
}

// markClosed stops the client from accepting messages and ends its lookups.
// Callers must hold the server lock.
func (c *Client) markClosed() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()

	c.cancel()
	c.session.Close()
}

// readPump pumps messages from the WebSocket connection to the session
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		var msg incoming
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.server.logger.Warn("Failed to parse WebSocket message", logger.Error(err))
			c.SendMessage(&Message{Type: MessageTypeError, Data: map[string]string{"error": "invalid message"}})
			continue
		}

		c.server.logger.Debug("Received WebSocket message",
			logger.String("type", msg.Type),
			logger.String("session", c.session.ID()))

		c.handle(msg)
	}
}

// handle dispatches one browser message. Lookups are started here, in
// message order, and run in their own goroutine so a slow API does not
// block newer messages that supersede them.
func (c *Client) handle(msg incoming) {
	switch msg.Type {
	case MessageTypeSearch:
		query, _ := msg.Data["query"].(string)
		go c.sendLookup(c.session.StartSubmit(c.ctx, query))

	case MessageTypeLocate:
		lat, latOK := msg.Data["lat"].(float64)
		lon, lonOK := msg.Data["lon"].(float64)
		if !latOK || !lonOK {
			c.SendMessage(&Message{Type: MessageTypeError, Data: map[string]string{"error": "lat and lon must be numbers"}})
			return
		}
		go c.sendLookup(c.session.StartLocation(c.ctx, lat, lon))

	case MessageTypeLocateFailed:
		reason, _ := msg.Data["reason"].(string)
		c.sendView(c.session.LocationUnavailable(widget.LocationFailure(reason)))

	case MessageTypeDismissError:
		c.sendView(c.session.DismissError())

	case MessageTypeGetView:
		c.sendView(c.session.View())

	default:
		c.server.logger.Warn("Unknown WebSocket message type", logger.String("type", msg.Type))
		c.SendMessage(&Message{Type: MessageTypeError, Data: map[string]string{"error": "unknown message type: " + msg.Type}})
	}
}

func (c *Client) sendLookup(p *widget.Pending) {
	view, applied := p.Run()
	if applied {
		c.sendView(view)
	}
}

func (c *Client) sendView(view widget.View) {
	c.SendMessage(&Message{Type: MessageTypeView, Data: view})
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		data, err := json.Marshal(message)
		if err != nil {
			c.server.logger.Error("Failed to marshal message", logger.Error(err))
			continue
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.server.logger.Debug("WebSocket write failed", logger.Error(err))
			return
		}
	}

	// Channel closed
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// SendMessage sends a message to this specific client
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if client is closed
	if c.closed {
		return false
	}

	// Try to send message with non-blocking select
	select {
	case c.send <- message:
		return true
	default:
		// Channel is full, drop message
		return false
	}
}
