package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/neonmart/storefront-backend/internal/app/service"
	"github.com/neonmart/storefront-backend/internal/bus"
	"github.com/neonmart/storefront-backend/internal/surface"
	"github.com/neonmart/storefront-backend/pkg/logger"
)

// PushTypeCartUpdate labels the full surface refresh pushed after any cart
// change. There are no diff pushes; every message carries the whole state.
const PushTypeCartUpdate = "cart.update"

// SurfacePush is the payload sent to every connection of a session. It
// bundles all three presentation surfaces so clients replace their view
// wholesale.
type SurfacePush struct {
	Type    string             `json:"type"`
	Badge   surface.Badge      `json:"badge"`
	Drawer  surface.DrawerView `json:"drawer"`
	Summary surface.Summary    `json:"summary"`
}

// ClientMessage is a command from a connected client. Drawer commands exist
// so every tab of a session sees the same drawer state.
type ClientMessage struct {
	Type   string `json:"type"`   // drawer_open, drawer_close, drawer_toggle
	Reason string `json:"reason"` // close reason, drawer_close only
}

// Client is one websocket connection of a session. A session may hold many
// (one per open tab); each gets every push.
type Client struct {
	Hub       *Hub
	Conn      wsConn
	SessionID string
	Send      chan []byte
}

// Hub fans cart surface updates out to connected clients, keyed by session
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	carts   service.CartService
	drawers *surface.DrawerRegistry
	events  *bus.CartBus

	mu sync.RWMutex
}

// NewHub creates the surface push hub
func NewHub(carts service.CartService, drawers *surface.DrawerRegistry, events *bus.CartBus) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		carts:      carts,
		drawers:    drawers,
		events:     events,
	}
}

// Run processes registrations and cart events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	events, cancel := h.events.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			connections := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Info("Surface client connected", map[string]interface{}{
				"session_id":  client.SessionID,
				"connections": connections,
			})
			// New tabs render from the current state immediately
			h.PushToSession(ctx, client.SessionID)

		case client := <-h.unregister:
			h.removeClient(client)

		case evt, ok := <-events:
			if !ok {
				return
			}
			h.PushToSession(ctx, evt.SessionID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	remaining := make([]*Client, 0, len(list))
	for _, c := range list {
		if c != client {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = remaining
	}
	close(client.Send)

	logger.Info("Surface client disconnected", map[string]interface{}{
		"session_id":  client.SessionID,
		"connections": len(remaining),
	})
}

// PushToSession renders the session's surfaces and sends them to every
// connection of that session. Sessions without connections are skipped.
func (h *Hub) PushToSession(ctx context.Context, sessionID string) {
	h.mu.RLock()
	connected := len(h.clients[sessionID]) > 0
	h.mu.RUnlock()
	if !connected {
		return
	}

	payload, err := json.Marshal(h.render(ctx, sessionID))
	if err != nil {
		logger.Error("Failed to marshal surface push", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
			logger.Warn("Client send buffer full, dropping surface push", map[string]interface{}{
				"session_id": sessionID,
			})
		}
	}
}

// render builds the complete surface payload from the reconciled cart
func (h *Hub) render(ctx context.Context, sessionID string) SurfacePush {
	cart := h.carts.GetCart(ctx, sessionID)
	return SurfacePush{
		Type:    PushTypeCartUpdate,
		Badge:   surface.BadgeFrom(cart),
		Drawer:  h.drawers.DrawerFrom(sessionID, cart),
		Summary: surface.SummaryFrom(cart),
	}
}

// HandleClientMessage applies a drawer command and re-pushes the session's
// surfaces. Unknown commands are logged and dropped.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("Unparsable client message dropped", map[string]interface{}{
			"session_id": client.SessionID,
		})
		return
	}

	switch msg.Type {
	case "drawer_open":
		if !h.drawers.Open(client.SessionID) {
			return
		}
	case "drawer_close":
		reason := surface.CloseReason(msg.Reason)
		if reason == "" {
			reason = surface.CloseExplicit
		}
		if !h.drawers.Close(client.SessionID, reason) {
			return
		}
	case "drawer_toggle":
		h.drawers.Toggle(client.SessionID)
	default:
		logger.Debug("Unknown client message type", map[string]interface{}{
			"session_id": client.SessionID,
			"type":       msg.Type,
		})
		return
	}

	h.PushToSession(ctx, client.SessionID)
}

// Register queues a client for registration
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister queues a client for removal
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Connections reports how many connections a session currently holds
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
