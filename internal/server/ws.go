package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/host"
	"github.com/ayusman/toolsuite/internal/logging"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler streams host events to WebSocket clients.
type EventsHandler struct {
	log         hclog.Logger
	unsubscribe func()
	clients     map[*websocket.Conn]bool
	mu          sync.Mutex
	closed      bool
}

// NewEventsHandler subscribes to h and broadcasts every event it publishes.
func NewEventsHandler(h *host.Host, log hclog.Logger) *EventsHandler {
	e := &EventsHandler{
		log:     logging.OrNull(log),
		clients: make(map[*websocket.Conn]bool),
	}
	e.unsubscribe = h.Subscribe(e.broadcast)
	return e
}

// ServeHTTP handles WebSocket upgrade requests.
func (e *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.clients[conn] = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.clients, conn)
		e.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (e *EventsHandler) Clients() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.clients)
}

// broadcast sends ev to every connected client. Writes are serialized by e.mu.
func (e *EventsHandler) broadcast(ev host.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for conn := range e.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			e.log.Debug("dropping event client", "error", err)
			conn.Close()
			delete(e.clients, conn)
		}
	}
}

// Close unsubscribes from the host and disconnects every client.
func (e *EventsHandler) Close() {
	e.unsubscribe()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for conn := range e.clients {
		conn.Close()
		delete(e.clients, conn)
	}
}
