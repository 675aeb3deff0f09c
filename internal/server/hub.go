package server

import (
	"encoding/json"
	"sync"

	"github.com/neo/quizparty_backend/internal/logging"
)

// Hub fans broadcast events out to the sockets subscribed to each room. It
// implements the transport the game manager emits through; socket identity
// never leaks into game state.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]bool),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

// remove drops the client from the hub and every room index
func (h *Hub) remove(socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[socketID]; ok {
		close(c.send)
		delete(h.clients, socketID)
	}
	for code, members := range h.rooms {
		delete(members, socketID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Subscribe attaches a socket to a room's broadcast channel
func (h *Hub) Subscribe(socketID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[string]bool)
	}
	h.rooms[roomCode][socketID] = true
}

// Unsubscribe detaches a socket from a room's broadcast channel
func (h *Hub) Unsubscribe(socketID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomCode]; ok {
		delete(members, socketID)
		if len(members) == 0 {
			delete(h.rooms, roomCode)
		}
	}
}

// BroadcastToRoom sends an event to every socket subscribed to the room
func (h *Hub) BroadcastToRoom(roomCode, event string, payload map[string]interface{}) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		logging.Error("failed to encode event", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for socketID := range h.rooms[roomCode] {
		if c, ok := h.clients[socketID]; ok {
			c.enqueue(data)
		}
	}
}

// SendToSocket sends a targeted event to a single socket
func (h *Hub) SendToSocket(socketID, event string, payload map[string]interface{}) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		logging.Error("failed to encode event", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	c, ok := h.clients[socketID]
	h.mu.RUnlock()
	if ok {
		c.enqueue(data)
	}
}

// encodeEvent flattens the payload into the wire envelope {type, ...payload}
func encodeEvent(event string, payload map[string]interface{}) ([]byte, error) {
	envelope := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		envelope[k] = v
	}
	envelope["type"] = event
	return json.Marshal(envelope)
}
