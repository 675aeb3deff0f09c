package game

import (
	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

const (
	rpsPhaseChoosing    = "choosing"
	rpsPhaseRoundResult = "round_result"
	rpsPhasePick        = "pick"
)

// rpsBeats maps each choice to the one it defeats
var rpsBeats = map[string]string{
	"rock":     "scissors",
	"paper":    "rock",
	"scissors": "paper",
}

// RPSDuelState drives a best-of-three rock/paper/scissors duel between two
// randomly drawn players. Tied rounds advance neither count; after three
// rounds the higher count wins, a dead heat plays extra rounds until decided.
type RPSDuelState struct {
	Player1ID string
	Player2ID string
	Round     int
	Wins      map[string]int
	Choices   map[string]string
	WinnerID  string
	Phase     string
}

// snapshot hides the actual choices until the round resolves
func (s *RPSDuelState) snapshot() gin.H {
	chosen := make(map[string]bool, len(s.Choices))
	for id := range s.Choices {
		chosen[id] = true
	}
	return gin.H{
		"phase":     s.Phase,
		"round":     s.Round,
		"player1Id": s.Player1ID,
		"player2Id": s.Player2ID,
		"wins":      s.Wins,
		"chosen":    chosen,
		"winnerId":  s.WinnerID,
	}
}

func (s *RPSDuelState) isDuelist(playerID string) bool {
	return playerID == s.Player1ID || playerID == s.Player2ID
}

// startRPSDuel draws two distinct connected players and plays the duel
func (m *Manager) startRPSDuel(room *Room) {
	connected := room.connectedPlayers()
	if len(connected) < 2 {
		m.startVoting(room)
		return
	}

	i := room.rng.Intn(len(connected))
	j := room.rng.Intn(len(connected) - 1)
	if j >= i {
		j++
	}

	m.setPhase(room, types.PhaseCategoryRPSDuel)
	room.State.RPS = &RPSDuelState{
		Player1ID: connected[i].ID,
		Player2ID: connected[j].ID,
		Wins:      make(map[string]int),
	}

	m.emit(room, "rps_duel_start", gin.H{
		"player1Id": connected[i].ID,
		"player2Id": connected[j].ID,
	})
	m.startRPSRound(room)
}

func (m *Manager) startRPSRound(room *Room) {
	duel := room.State.RPS
	duel.Round++
	duel.Choices = make(map[string]string)
	duel.Phase = rpsPhaseChoosing

	m.emit(room, "rps_round_start", gin.H{"round": duel.Round})
	room.setDeadline(RPSRoundDuration)
	m.broadcast(room)

	round := duel.Round
	m.afterIf(room, RPSRoundDuration, func() bool {
		d := room.State.RPS
		return d != nil && d.Round == round && d.Phase == rpsPhaseChoosing
	}, func() {
		m.autoChooseRemaining(room)
	})
}

// RPSChoice records a duelist's pick for the current round
func (m *Manager) RPSChoice(socketID, choice string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleRPSChoice(room, player, choice)
	})
}

func (m *Manager) handleRPSChoice(room *Room, player *Player, choice string) {
	duel := room.State.RPS
	if room.State.Phase != types.PhaseCategoryRPSDuel || duel == nil || duel.Phase != rpsPhaseChoosing {
		return
	}
	if !duel.isDuelist(player.ID) {
		return
	}
	if _, ok := rpsBeats[choice]; !ok {
		return
	}
	if _, already := duel.Choices[player.ID]; already {
		return
	}

	duel.Choices[player.ID] = choice
	m.emit(room, "rps_choice_made", gin.H{"playerId": player.ID})
	m.broadcast(room)

	if len(duel.Choices) == 2 {
		m.resolveRPSRound(room)
	}
}

// autoChooseRemaining fills in random picks for duelists who missed the
// deadline
func (m *Manager) autoChooseRemaining(room *Room) {
	duel := room.State.RPS
	options := []string{"rock", "paper", "scissors"}
	for _, id := range []string{duel.Player1ID, duel.Player2ID} {
		if _, ok := duel.Choices[id]; !ok {
			duel.Choices[id] = options[room.rng.Intn(len(options))]
			m.emit(room, "rps_choice_made", gin.H{"playerId": id})
		}
	}
	m.resolveRPSRound(room)
}

func (m *Manager) resolveRPSRound(room *Room) {
	duel := room.State.RPS
	c1 := duel.Choices[duel.Player1ID]
	c2 := duel.Choices[duel.Player2ID]

	var roundWinner string
	switch {
	case rpsBeats[c1] == c2:
		roundWinner = duel.Player1ID
	case rpsBeats[c2] == c1:
		roundWinner = duel.Player2ID
	}
	if roundWinner != "" {
		duel.Wins[roundWinner]++
	}

	duel.Phase = rpsPhaseRoundResult
	room.State.TimerEnd = nil
	m.emit(room, "rps_round_result", gin.H{
		"round":    duel.Round,
		"choices":  duel.Choices,
		"winnerId": roundWinner,
		"wins":     duel.Wins,
	})
	m.broadcast(room)

	round := duel.Round
	m.afterIf(room, RPSResultHold, func() bool {
		d := room.State.RPS
		return d != nil && d.Round == round && d.Phase == rpsPhaseRoundResult
	}, func() {
		m.advanceRPSDuel(room)
	})
}

// advanceRPSDuel decides the duel or opens the next round. First to two wins
// takes it; after three rounds any lead wins; a dead heat keeps playing.
func (m *Manager) advanceRPSDuel(room *Room) {
	duel := room.State.RPS
	w1 := duel.Wins[duel.Player1ID]
	w2 := duel.Wins[duel.Player2ID]

	var winner string
	switch {
	case w1 >= 2:
		winner = duel.Player1ID
	case w2 >= 2:
		winner = duel.Player2ID
	case duel.Round >= 3 && w1 != w2:
		if w1 > w2 {
			winner = duel.Player1ID
		} else {
			winner = duel.Player2ID
		}
	}

	if winner == "" {
		m.startRPSRound(room)
		return
	}

	duel.Phase = rpsPhasePick
	duel.WinnerID = winner

	logging.LogPhaseEvent("rps_duel_winner", room.Code, string(room.State.Phase), map[string]interface{}{
		"winner": winner,
		"rounds": duel.Round,
	})

	m.emit(room, "rps_duel_winner", gin.H{"playerId": winner})
	m.emit(room, "rps_duel_pick", gin.H{"playerId": winner})
	room.setDeadline(PickDuration)
	m.broadcast(room)

	m.after(room, PickDuration, func() {
		m.selectCategory(room, room.randomVotingCategory())
	})
}
