package websocket

import (
	"sync"

	"investigative-ai-be/internal/pkg/logger"
)

// Hub tracks the live sessions so corpus-wide notifications can be
// fanned out to every connected client.
type Hub struct {
	// Registered clients keyed by session id
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Session.ID()] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"session_id": client.Session.ID(),
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.Session.ID()]; ok && current == client {
				delete(h.clients, client.Session.ID())
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
				"session_id": client.Session.ID(),
			})
		}
	}
}

// Broadcast sends a frame to every connected client. Slow clients are
// skipped, not disconnected.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, client := range h.clients {
		if !client.deliver(data) {
			h.logger.Warn("Hub", "Broadcast dropped, client buffer full", map[string]interface{}{
				"session_id": id,
			})
		}
	}
}

// Count reports the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
