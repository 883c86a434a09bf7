// Package notifications pushes state transitions to websocket subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"

	"snapgram/internal/app"
	"snapgram/internal/observability"
)

const maxTotalConns = 1000

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("hub is shut down")

// Hub fans state events out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "state hub" }

// Register adds a connection. conn may be nil in tests.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	c := &Client{
		hub:  h,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		ID:   observability.GenerateCorrelationID(),
	}
	h.clients[c] = struct{}{}
	observability.WebSocketConnectionsTotal.Inc()
	return c, nil
}

// UnregisterClient removes c and closes its send channel. Safe to call twice.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll queues message for every client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
}

// Publish encodes ev and broadcasts it.
func (h *Hub) Publish(ev app.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		observability.GlobalLogger.Error("failed to encode state event",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
		return
	}
	h.BroadcastAll(data)
}

// Attach streams every transition of a to the hub until the returned
// function is called.
func (h *Hub) Attach(a *app.App) func() {
	return a.OnChange(h.Publish)
}

// Shutdown closes every send channel. Each client's WritePump then sends a
// going-away close frame and closes its connection; the hub never writes to
// a connection itself.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.Send)
		observability.WebSocketConnectionsTotal.Dec()
	}
	return nil
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}
