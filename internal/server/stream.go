package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/strefethen/sonos-mqtt-go/internal/player"
)

// streamEvent is one state push on a player stream.
type streamEvent struct {
	Object   string       `json:"object"` // Always "player.state"
	PlayerID string       `json:"player_id"`
	State    player.State `json:"state"`
}

// Hub fans player state changes out to WebSocket subscribers. It implements
// player.StateSink, so every applied telemetry message and optimistic
// command effect reaches subscribers exactly once.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]bool // player id -> subscribers
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]map[*websocket.Conn]bool),
	}
}

// PlayerStateChanged pushes the new state to every subscriber of the player.
// Connections that fail to accept the write are dropped.
func (h *Hub) PlayerStateChanged(id string, state player.State) {
	event := streamEvent{Object: "player.state", PlayerID: id, State: state}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients[id] {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Dropping stream subscriber for %s: %v", id, err)
			conn.Close()
			delete(h.clients[id], conn)
		}
	}
}

// ServeStream upgrades the request and subscribes it to a player's state
// changes until the client disconnects.
func (h *Hub) ServeStream(w http.ResponseWriter, r *http.Request, playerID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade for %s failed: %v", playerID, err)
		return
	}

	h.mu.Lock()
	if h.clients[playerID] == nil {
		h.clients[playerID] = make(map[*websocket.Conn]bool)
	}
	h.clients[playerID][conn] = true
	h.mu.Unlock()

	// Drain the connection; we never expect inbound messages, but reading
	// is what detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients[playerID], conn)
	h.mu.Unlock()
	conn.Close()
}
