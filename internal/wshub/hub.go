package wshub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"clearpoints/internal/round"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

var ErrUnknownMessage = errors.New("unknown message type")

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type  string `json:"t"`
	Value int    `json:"v,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type     string          `json:"t"`
	Change   string          `json:"c,omitempty"`
	Snapshot *round.Snapshot `json:"s,omitempty"`
	Error    string          `json:"e,omitempty"`
}

// Apply performs the client's request on the game.
func (m ClientMessage) Apply(game *round.Controller) error {
	switch m.Type {
	case "configure":
		if err := game.Configure(m.Value); err != nil {
			return fmt.Errorf("configuring %d targets: %w", m.Value, err)
		}
	case "start":
		game.Start()
	case "restart":
		game.Restart()
	case "activate":
		game.Activate(m.Value)
	case "snapshot":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	return nil
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ConnID    string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks open game sockets by connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ConnID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connID]; ok {
		close(c.Send)
		delete(h.clients, connID)
	}
}

// Count returns the number of sockets open on a session.
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.SessionID == sessionID {
			n++
		}
	}
	return n
}

// SendTo queues msg for one connection. Non-blocking: drops if channel full.
func (h *Hub) SendTo(connID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("marshal server message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// BroadcastSession sends msg to every socket of a session. Non-blocking:
// drops if channel full.
func (h *Hub) BroadcastSession(sessionID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("marshal server message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.SessionID != sessionID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}
