package game

import (
	"context"
)

// Transport abstracts the socket layer away from room identity. The hub in
// internal/server implements it; tests use an in-memory recorder.
type Transport interface {
	// Subscribe attaches a socket to a room's broadcast channel
	Subscribe(socketID, roomCode string)
	// Unsubscribe detaches a socket from a room's broadcast channel
	Unsubscribe(socketID, roomCode string)
	// BroadcastToRoom sends an event to every socket subscribed to the room
	BroadcastToRoom(roomCode, event string, payload map[string]interface{})
	// SendToSocket sends a targeted event to a single socket
	SendToSocket(socketID, event string, payload map[string]interface{})
}

// Narrator is the TTS collaborator: given a text and cache key it returns a
// playable URL, or "" when narration is unavailable.
type Narrator interface {
	Generate(ctx context.Context, text string, cacheKey string) (string, error)
}
