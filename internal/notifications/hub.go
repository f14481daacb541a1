package notifications

import (
	"context"
	"errors"
	"sync"

	"postboard/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

// ErrHubFull is returned by Register when the connection cap is reached.
var ErrHubFull = errors.New("live feed connection limit reached")

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("live feed is shutting down")

const defaultMaxConns = 10000

// Hub tracks live feed connections and broadcasts post events to all of them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	maxConns int
	closed   bool
}

// NewHub creates an empty hub. A non-positive maxConns selects the default cap.
func NewHub(maxConns int) *Hub {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	return &Hub{
		clients:  make(map[*Client]struct{}),
		maxConns: maxConns,
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *websocket.Conn, userID string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= h.maxConns {
		return nil, ErrHubFull
	}

	c := newClient(h, conn, userID)
	h.clients[c] = struct{}{}
	middleware.ActiveWebSockets.Inc()
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
	middleware.ActiveWebSockets.Dec()
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.clients {
		c.TrySend(data)
	}
}

// StartWiring subscribes the hub to the notifier's post events.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPostSubscriber(ctx, h.BroadcastAll)
}

// Shutdown closes every send channel; each WritePump then sends a close
// frame and drops its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
		middleware.ActiveWebSockets.Dec()
	}
	return nil
}
