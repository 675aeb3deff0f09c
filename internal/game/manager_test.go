package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/quizparty_backend/internal/types"
)

func TestCreateRoomMakesCreatorHost(t *testing.T) {
	m, tr := newTestManager(&stubStore{})

	m.CreateRoom("sock-1", "Alice", "seed-a", DefaultSettings())

	created := tr.directTo("sock-1")
	require.Len(t, created, 1)
	assert.Equal(t, "room_created", created[0].event)

	code := created[0].payload["code"].(string)
	room, ok := m.rooms.Get(code)
	require.True(t, ok)

	room.mu.Lock()
	defer room.mu.Unlock()
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	assert.Equal(t, room.Players[0].ID, room.HostID)
	assert.Equal(t, types.PhaseLobby, room.State.Phase)
	assert.Equal(t, created[0].payload["playerId"], room.Players[0].ID)
}

func TestCreateRoomRejectsInvalidName(t *testing.T) {
	m, tr := newTestManager(&stubStore{})

	m.CreateRoom("sock-1", "   ", "", DefaultSettings())

	msgs := tr.directTo("sock-1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].event)
	assert.Equal(t, "INVALID_NAME", msgs[0].payload["code"])
	assert.Equal(t, 0, m.rooms.Count())
}

func TestJoinRoomValidation(t *testing.T) {
	m, tr := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice")

	t.Run("unknown code", func(t *testing.T) {
		m.JoinRoom("sock-x", "ZZZZ", "Bob", "")
		msgs := tr.directTo("sock-x")
		require.NotEmpty(t, msgs)
		assert.Equal(t, "ROOM_NOT_FOUND", msgs[len(msgs)-1].payload["code"])
	})

	t.Run("game already running", func(t *testing.T) {
		room.mu.Lock()
		room.State.Phase = types.PhaseQuestion
		room.mu.Unlock()

		m.JoinRoom("sock-y", room.Code, "Bob", "")
		msgs := tr.directTo("sock-y")
		require.NotEmpty(t, msgs)
		assert.Equal(t, "ROOM_GAME_RUNNING", msgs[len(msgs)-1].payload["code"])

		room.mu.Lock()
		room.State.Phase = types.PhaseLobby
		room.mu.Unlock()
	})

	t.Run("room full", func(t *testing.T) {
		room.mu.Lock()
		for len(room.Players) < MaxPlayers {
			m.addPlayer(room, "", "Filler", "", true)
		}
		room.mu.Unlock()

		m.JoinRoom("sock-z", room.Code, "Bob", "")
		msgs := tr.directTo("sock-z")
		require.NotEmpty(t, msgs)
		assert.Equal(t, "ROOM_FULL", msgs[len(msgs)-1].payload["code"])
	})
}

func TestJoinRoomAnnouncesPlayer(t *testing.T) {
	m, tr := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice")

	m.JoinRoom("sock-2", room.Code, "Bob", "seed-b")

	joined := tr.lastEvent("player_joined")
	require.NotNil(t, joined)
	assert.Equal(t, "Bob", joined.payload["name"])

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Len(t, room.Players, 2)
	assert.False(t, room.Players[1].IsHost)
}

func TestDisconnectKeepsSlotAndReassignsHost(t *testing.T) {
	m, _ := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice", "Bob")

	m.Disconnect("sock-1")

	room.mu.Lock()
	defer room.mu.Unlock()
	require.Len(t, room.Players, 2)
	assert.False(t, room.Players[0].IsConnected)
	assert.False(t, room.Players[0].IsHost)
	assert.True(t, room.Players[1].IsHost)
	assert.Equal(t, room.Players[1].ID, room.HostID)
}

func TestReconnectRestoresSlot(t *testing.T) {
	m, tr := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	playerID := room.Players[1].ID
	room.mu.Unlock()

	m.Disconnect("sock-2")
	m.Reconnect("sock-99", room.Code, playerID)

	room.mu.Lock()
	player := room.playerByID(playerID)
	assert.True(t, player.IsConnected)
	assert.Equal(t, "sock-99", player.SocketID)
	room.mu.Unlock()

	msgs := tr.directTo("sock-99")
	require.NotEmpty(t, msgs)
	assert.Equal(t, "room_joined", msgs[0].event)
	// the reconnecting client immediately gets a full snapshot
	assert.Equal(t, "room_update", msgs[1].event)
}

func TestReconnectUnknownPlayerFails(t *testing.T) {
	m, tr := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice")

	m.Reconnect("sock-99", room.Code, "p_notthere")

	msgs := tr.directTo("sock-99")
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].event)
}

func TestLeaveRoomRemovesSlotAndClosesEmptyRoom(t *testing.T) {
	m, tr := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice", "Bob")

	m.LeaveRoom("sock-2")

	room.mu.Lock()
	assert.Len(t, room.Players, 1)
	room.mu.Unlock()
	assert.NotNil(t, tr.lastEvent("player_left"))

	m.LeaveRoom("sock-1")
	_, ok := m.rooms.Get(room.Code)
	assert.False(t, ok)
}

func TestClosedRoomDropsLateInput(t *testing.T) {
	m, tr := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	m.closeRoom(room)
	room.mu.Unlock()

	before := len(tr.directTo("sock-1"))
	m.StartGame("sock-1")
	assert.Len(t, tr.directTo("sock-1"), before)
}
