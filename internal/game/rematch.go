package game

import (
	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// startRematchVoting opens the 30 s yes/no window. Caller holds the room
// lock.
func (m *Manager) startRematchVoting(room *Room) {
	m.setPhase(room, types.PhaseRematchVoting)
	room.State.RematchVotes = make(map[string]bool)
	room.setDeadline(RematchVoteDuration)

	m.emit(room, "rematch_voting_start", gin.H{})
	m.broadcast(room)

	m.after(room, RematchVoteDuration, func() {
		m.resolveRematch(room)
	})
}

// RematchVote records a vote. A no-vote leaves the room on the spot; votes
// cannot be changed.
func (m *Manager) RematchVote(socketID string, yes bool) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleRematchVote(room, player, yes)
	})
}

func (m *Manager) handleRematchVote(room *Room, player *Player, yes bool) {
	if room.State.Phase != types.PhaseRematchVoting {
		return
	}
	if _, voted := room.State.RematchVotes[player.ID]; voted {
		return
	}

	room.State.RematchVotes[player.ID] = yes
	m.emit(room, "rematch_vote_update", gin.H{
		"playerId": player.ID,
		"vote":     yes,
	})

	if !yes {
		wasHost := player.IsHost
		m.kickPlayer(room, player, "rematch_declined")
		if wasHost {
			room.reassignHost()
		}
		if len(room.Players) == 0 {
			m.closeRoom(room)
			return
		}
	}
	m.broadcast(room)

	// Everyone still in the room has voted: no need to wait out the window.
	for _, p := range room.connectedPlayers() {
		if _, voted := room.State.RematchVotes[p.ID]; !voted {
			return
		}
	}
	m.resolveRematch(room)
}

// resolveRematch counts non-voters as no, removes them, and either resets
// the room to a fresh lobby or closes it.
func (m *Manager) resolveRematch(room *Room) {
	votes := room.State.RematchVotes

	var yesVoters []*Player
	for _, p := range append([]*Player(nil), room.Players...) {
		if votes[p.ID] {
			yesVoters = append(yesVoters, p)
			continue
		}
		m.kickPlayer(room, p, "rematch_declined")
	}

	if len(yesVoters) == 0 {
		logging.LogRoomEvent("rematch_nobody_stayed", room.Code, nil)
		m.emit(room, "rematch_result", gin.H{"restart": false})
		m.after(room, RoomCloseDelay, func() {
			m.closeRoom(room)
		})
		return
	}

	// The old host keeps the room if they stayed; otherwise the first
	// yes-voter inherits it.
	host := yesVoters[0]
	for _, p := range yesVoters {
		if p.ID == room.HostID && p.IsConnected {
			host = p
			break
		}
	}
	for _, p := range room.Players {
		p.IsHost = p.ID == host.ID
		p.Score = 0
	}
	room.HostID = host.ID

	// Fresh match state; the token keeps counting so timers armed before the
	// reset stay invalid.
	token := room.State.PhaseToken + 1
	room.State = newMatchState()
	room.State.PhaseToken = token
	room.plan = nil
	room.explainedBonusIntros = make(map[types.BonusType]bool)
	room.clearGates()

	logging.LogRoomEvent("rematch_restart", room.Code, map[string]interface{}{
		"players": len(room.Players),
		"host":    host.ID,
	})

	m.emit(room, "rematch_result", gin.H{
		"restart": true,
		"hostId":  host.ID,
	})
	m.broadcast(room)
}
