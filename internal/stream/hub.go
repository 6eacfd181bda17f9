package stream

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event names pushed to map clients. Each one invalidates the client's
// current render: the map re-fetches and redraws from scratch.
const (
	EventStreetsReload    = "streets_reload"
	EventSelectionChanged = "selection_changed"
	EventZonesChanged     = "zones_changed"
)

// Message is the envelope broadcast to every connected map client.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub fans render-invalidation events out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// Origin is enforced by the CORS allow-list upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and registers the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[stream] client connected (%d active)", count)

	// Reads are discarded; the socket exists for server → client pushes.
	// A read error means the client went away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an event to every connected client. Clients that fail to
// receive are dropped.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{Event: event, Payload: payload}
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[stream] dropping client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}
