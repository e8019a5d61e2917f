package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rajachanda/rps/internal/model"
)

// Hub tracks live connections and delivers frames to them.
// It implements the broadcaster's transport.
type Hub struct {
	clients map[model.ConnectionID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("connection_id", string(client.id)),
		slog.Int("total_clients", count))
}

// Unregister removes a client and closes its send queue. It is safe to
// call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client unregistered",
		slog.String("connection_id", string(client.id)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// Send queues msg for id without blocking. A client whose queue is full
// is too slow to keep up and gets disconnected.
func (h *Hub) Send(id model.ConnectionID, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[id]
	if !ok {
		return false
	}

	select {
	case client.send <- msg:
		return true
	default:
		h.logger.Warn("ws send buffer full, closing connection",
			slog.String("connection_id", string(id)))
		_ = client.conn.Close()
		return false
	}
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll drops every connection; their read loops then clean up
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		_ = client.conn.Close()
	}
	h.logger.Info("ws hub closed", slog.Int("disconnected_clients", len(h.clients)))
}
