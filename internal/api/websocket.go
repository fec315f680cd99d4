package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/quickreceipt/internal/shell"
	"go.uber.org/zap"
)

// WebSocket message types
const (
	EventState    = "state"
	EventViewport = "viewport"
	EventPreview  = "preview"
	EventError    = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
	once   sync.Once
}

// Hub tracks connected clients for broadcasts
type Hub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
	logger  *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{clients: make(map[*WSClient]bool), logger: logger}
}

func (h *Hub) add(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *WSClient) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		c.closeSend()
	}
	h.mu.Unlock()
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastState pushes a snapshot to every client
func (h *Hub) BroadcastState(snap shell.Snapshot) {
	msg, err := newMessage(EventState, snap)
	if err != nil {
		h.logger.Error("Failed to encode state", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// Client send buffer full, skip
		}
	}
}

// sendTo queues msg for one client that is still registered
func (h *Hub) sendTo(c *WSClient, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.clients[c] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		client.closeSend()
	}
}

func newMessage(event string, data any) (WSMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return WSMessage{}, err
	}
	return WSMessage{Event: event, Data: raw}, nil
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}

	s.hub.add(client)
	s.logger.Debug("WebSocket client connected")

	// The first message is always the current state
	if msg, err := newMessage(EventState, s.shell.Snapshot()); err == nil {
		s.hub.sendTo(client, msg)
	}

	go client.readPump()
	go client.writePump()
}

func (c *WSClient) closeSend() {
	c.once.Do(func() { close(c.send) })
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.logger.Debug("WebSocket write error", zap.Error(err))
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.hub.remove(c)
		c.server.logger.Debug("WebSocket client disconnected")
	}()

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// handleMessage applies layout events; state changes reach every client through the hub
func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventViewport:
		var data struct {
			Width int `json:"width"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.Width <= 0 {
			c.sendError("width is required")
			return
		}
		c.server.shell.SetViewport(data.Width)
	case EventPreview:
		var data struct {
			Open bool `json:"open"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("open is required")
			return
		}
		if data.Open {
			c.server.shell.OpenPreview()
		} else {
			c.server.shell.ClosePreview()
		}
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

func (c *WSClient) sendError(message string) {
	msg, err := newMessage(EventError, map[string]string{"error": message})
	if err != nil {
		return
	}
	c.server.hub.sendTo(c, msg)
}
