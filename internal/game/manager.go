package game

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// Manager owns all rooms and is the single entry point for inbound client
// intents. Each handler resolves the sender's session, locks the room,
// validates phase preconditions and mutates state; after any mutation the
// room snapshot is broadcast.
type Manager struct {
	rooms     *RoomStore
	store     database.QuestionStore
	tts       Narrator
	transport Transport
	devMode   bool

	sessMu   sync.RWMutex
	sessions map[string]sessionRef
}

// sessionRef binds a transport identity to a player slot
type sessionRef struct {
	code     string
	playerID string
}

// NewManager creates the game manager
func NewManager(store database.QuestionStore, tts Narrator, transport Transport, devMode bool) *Manager {
	return &Manager{
		rooms:     NewRoomStore(),
		store:     store,
		tts:       tts,
		transport: transport,
		devMode:   devMode,
		sessions:  make(map[string]sessionRef),
	}
}

// Rooms exposes the room store for HTTP probes
func (m *Manager) Rooms() *RoomStore {
	return m.rooms
}

func (m *Manager) bindSession(socketID, code, playerID string) {
	m.sessMu.Lock()
	m.sessions[socketID] = sessionRef{code: code, playerID: playerID}
	m.sessMu.Unlock()
	m.transport.Subscribe(socketID, code)
}

func (m *Manager) dropSession(socketID string) {
	m.sessMu.Lock()
	ref, ok := m.sessions[socketID]
	delete(m.sessions, socketID)
	m.sessMu.Unlock()
	if ok {
		m.transport.Unsubscribe(socketID, ref.code)
	}
}

// withRoom runs fn with the sender's room locked and their player resolved.
// Unknown sessions and closed rooms are dropped silently.
func (m *Manager) withRoom(socketID string, fn func(*Room, *Player)) {
	m.sessMu.RLock()
	ref, ok := m.sessions[socketID]
	m.sessMu.RUnlock()
	if !ok {
		return
	}

	room, ok := m.rooms.Get(ref.code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return
	}

	player := room.playerByID(ref.playerID)
	if player == nil {
		return
	}

	fn(room, player)
}

// emit broadcasts a named event to the room's channel
func (m *Manager) emit(room *Room, event string, payload gin.H) {
	m.transport.BroadcastToRoom(room.Code, event, payload)
}

// broadcast publishes the client-facing room snapshot. Development servers
// also let the bots react to the new state.
func (m *Manager) broadcast(room *Room) {
	m.transport.BroadcastToRoom(room.Code, "room_update", gin.H{"room": m.snapshot(room)})
	if m.devMode {
		m.driveBots(room)
	}
}

func (m *Manager) sendError(socketID, code, message string) {
	m.transport.SendToSocket(socketID, "error", gin.H{
		"code":    code,
		"message": message,
	})
}

// CreateRoom creates a room and joins the creator as its host
func (m *Manager) CreateRoom(socketID, name, avatarSeed string, settings Settings) {
	name = strings.TrimSpace(name)
	if !validName(name) {
		m.sendError(socketID, "INVALID_NAME", "player name must be 1-24 characters")
		return
	}

	settings.Normalize()
	room := m.rooms.Create(settings)

	room.mu.Lock()
	defer room.mu.Unlock()

	player := m.addPlayer(room, socketID, name, avatarSeed, false)
	player.IsHost = true
	room.HostID = player.ID

	logging.LogRoomEvent("room_host_joined", room.Code, map[string]interface{}{
		"player_id": player.ID,
		"name":      player.Name,
	})

	m.transport.SendToSocket(socketID, "room_created", gin.H{
		"code":     room.Code,
		"playerId": player.ID,
	})
	m.broadcast(room)
}

// JoinRoom places a new player into an existing lobby
func (m *Manager) JoinRoom(socketID, code, name, avatarSeed string) {
	name = strings.TrimSpace(name)
	if !validName(name) {
		m.sendError(socketID, "INVALID_NAME", "player name must be 1-24 characters")
		return
	}

	room, ok := m.rooms.Get(code)
	if !ok {
		m.sendError(socketID, "ROOM_NOT_FOUND", "no room with that code")
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		m.sendError(socketID, "ROOM_NOT_FOUND", "no room with that code")
		return
	}

	if room.State.Phase != types.PhaseLobby {
		m.sendError(socketID, "ROOM_GAME_RUNNING", "the match has already started")
		return
	}
	if len(room.Players) >= MaxPlayers {
		m.sendError(socketID, "ROOM_FULL", "the room is full")
		return
	}

	player := m.addPlayer(room, socketID, name, avatarSeed, false)

	logging.LogRoomEvent("player_joined", room.Code, map[string]interface{}{
		"player_id": player.ID,
		"name":      player.Name,
		"players":   len(room.Players),
	})

	m.transport.SendToSocket(socketID, "room_joined", gin.H{
		"code":     room.Code,
		"playerId": player.ID,
	})
	m.emit(room, "player_joined", gin.H{
		"playerId": player.ID,
		"name":     player.Name,
	})
	m.broadcast(room)
}

// addPlayer allocates a player slot. Caller holds the room lock.
func (m *Manager) addPlayer(room *Room, socketID, name, avatarSeed string, isBot bool) *Player {
	player := &Player{
		ID:          newPlayerID(room.rng),
		SocketID:    socketID,
		Name:        name,
		AvatarSeed:  avatarSeed,
		IsConnected: true,
		IsBot:       isBot,
	}
	room.Players = append(room.Players, player)
	if !isBot {
		m.bindSession(socketID, room.Code, player.ID)
	}
	return player
}

// Reconnect re-attaches a socket to an existing player slot. The phase is
// unchanged; the caller immediately receives a fresh snapshot.
func (m *Manager) Reconnect(socketID, code, playerID string) {
	room, ok := m.rooms.Get(code)
	if !ok {
		m.sendError(socketID, "ROOM_NOT_FOUND", "no room with that code")
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		m.sendError(socketID, "ROOM_NOT_FOUND", "no room with that code")
		return
	}

	player := room.playerByID(playerID)
	if player == nil {
		m.sendError(socketID, "ROOM_NOT_FOUND", "unknown player in room")
		return
	}

	player.SocketID = socketID
	player.IsConnected = true
	m.bindSession(socketID, room.Code, player.ID)

	// Rooms that lost their host while everyone was away get one back.
	if host := room.playerByID(room.HostID); host == nil || !host.IsConnected {
		room.reassignHost()
	}

	logging.LogRoomEvent("player_reconnected", room.Code, map[string]interface{}{
		"player_id": player.ID,
		"phase":     room.State.Phase,
	})

	m.transport.SendToSocket(socketID, "room_joined", gin.H{
		"code":     room.Code,
		"playerId": player.ID,
	})
	m.transport.SendToSocket(socketID, "room_update", gin.H{"room": m.snapshot(room)})
	m.broadcast(room)
}

// Disconnect marks a player disconnected and applies the phase-specific
// disconnect policy. The player slot survives for reconnects.
func (m *Manager) Disconnect(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		player.IsConnected = false

		logging.LogRoomEvent("player_disconnected", room.Code, map[string]interface{}{
			"player_id": player.ID,
			"phase":     room.State.Phase,
		})

		m.handleAbsence(room, player)
		m.broadcast(room)
	})
	m.dropSession(socketID)
}

// LeaveRoom removes a player's slot entirely
func (m *Manager) LeaveRoom(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		player.IsConnected = false
		m.handleAbsence(room, player)
		room.removePlayer(player.ID)

		logging.LogRoomEvent("player_left", room.Code, map[string]interface{}{
			"player_id": player.ID,
		})

		m.emit(room, "player_left", gin.H{"playerId": player.ID})

		if len(room.Players) == 0 {
			m.closeRoom(room)
			return
		}
		m.broadcast(room)
	})
	m.dropSession(socketID)
}

// handleAbsence applies disconnect policy for live roles and schedules room
// cleanup when the last connected player is gone. Caller holds the room lock.
func (m *Manager) handleAbsence(room *Room, player *Player) {
	if player.IsHost {
		player.IsHost = false
		if host := room.reassignHost(); host != nil {
			logging.LogRoomEvent("host_reassigned", room.Code, map[string]interface{}{
				"old_host": player.ID,
				"new_host": host.ID,
			})
		}
	}

	// A player holding a live role is treated as having timed out.
	state := room.State
	if state.Phase == types.PhaseBonusRound && state.Bonus != nil {
		switch {
		case state.Bonus.Collective != nil:
			m.collectiveHandleDisconnect(room, player)
		case state.Bonus.HotButton != nil:
			m.hotButtonHandleDisconnect(room, player)
		}
	}

	if room.connectedCount() == 0 {
		m.scheduleEmptyRoomCleanup(room)
	}
}

// scheduleEmptyRoomCleanup deletes the room after the grace window if nobody
// reconnected in the meantime.
func (m *Manager) scheduleEmptyRoomCleanup(room *Room) {
	code := room.Code
	time.AfterFunc(DisconnectGraceWindow, func() {
		r, ok := m.rooms.Get(code)
		if !ok {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.connectedCount() > 0 {
			return
		}
		logging.LogRoomEvent("room_abandoned", code, nil)
		m.closeRoom(r)
	})
}

// closeRoom tears the room down. Caller holds the room lock.
func (m *Manager) closeRoom(room *Room) {
	if room.closed {
		return
	}
	room.closed = true
	room.State.PhaseToken++ // invalidate every outstanding timer
	room.clearGates()

	if room.State.Bonus != nil && room.State.Bonus.HotButton != nil {
		room.State.Bonus.HotButton.clearAllTimers()
	}

	for _, p := range room.Players {
		if !p.IsBot && p.SocketID != "" {
			m.sessMu.Lock()
			delete(m.sessions, p.SocketID)
			m.sessMu.Unlock()
			m.transport.Unsubscribe(p.SocketID, room.Code)
		}
	}

	m.rooms.Delete(room.Code)
}

// kickPlayer removes a slot and notifies the target socket
func (m *Manager) kickPlayer(room *Room, player *Player, reason string) {
	if !player.IsBot && player.SocketID != "" {
		m.transport.SendToSocket(player.SocketID, "kicked_from_room", gin.H{"reason": reason})
		m.sessMu.Lock()
		delete(m.sessions, player.SocketID)
		m.sessMu.Unlock()
		m.transport.Unsubscribe(player.SocketID, room.Code)
	}
	room.removePlayer(player.ID)
	m.emit(room, "player_left", gin.H{"playerId": player.ID})
}

func validName(name string) bool {
	return len(name) >= 1 && len(name) <= 24
}
