// Package wsbridge streams job events out over WebSocket connections. It is
// the external transport named in spec.md §4.8's emission contract: the job
// orchestrator never imports this package directly, it only publishes to a
// [events.Bus], which this package subscribes to.
package wsbridge

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vasic-labs/doctranslate/pkg/events"
)

// Client is a single connected WebSocket subscriber, optionally scoped to
// one job's events via SessionID.
type Client struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
}

// Hub fans out events.Bus publications to registered clients, filtering
// delivery to a client's SessionID when both the event and the client
// declare one.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	eventBus    *events.Bus
	unsubscribe func()
}

// NewHub creates a hub subscribed to every event on bus. Call Run in its
// own goroutine to start processing register/unregister requests.
func NewHub(bus *events.Bus) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		eventBus:   bus,
	}
	h.unsubscribe = bus.SubscribeAll(h.handleEvent)
	return h
}

// Run processes registration and unregistration until the channels are
// abandoned; it is intended to run for the hub's entire lifetime.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
		}
	}
}

// Close stops receiving events from the bus. It does not close existing
// client connections.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}

// Register admits a client to receive broadcast events.
func (h *Hub) Register(c *Client) {
	c.hub = h
	h.register <- c
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

func (h *Hub) handleEvent(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if event.SessionID != "" && client.SessionID != "" && client.SessionID != event.SessionID {
			continue
		}
		select {
		case client.Send <- data:
		default:
			// client is backed up; drop rather than block the publisher.
		}
	}
}

// Broadcast sends message to every connected client, ignoring SessionID.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}

// ClientCount returns the number of currently registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient wraps conn as a hub client scoped to sessionID (empty for
// unscoped/broadcast-only clients).
func NewClient(id, sessionID string, conn *websocket.Conn) *Client {
	return &Client{ID: id, SessionID: sessionID, Conn: conn, Send: make(chan []byte, 16)}
}

// ReadPump discards incoming client messages, only using reads to detect
// disconnection, and unregisters the client on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump drains Send, coalescing any messages queued while writing, and
// exits when the hub closes the channel.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		if _, err := w.Write(message); err != nil {
			return
		}

		queued := len(c.Send)
		for i := 0; i < queued; i++ {
			if _, err := w.Write([]byte{'\n'}); err != nil {
				return
			}
			if _, err := w.Write(<-c.Send); err != nil {
				return
			}
		}

		if err := w.Close(); err != nil {
			return
		}
	}
}
