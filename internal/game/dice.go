package game

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

const (
	dicePhaseRolling = "rolling"
	dicePhaseReroll  = "reroll"
	dicePhaseResult  = "result"
)

// DiceRoyaleState drives the simultaneous two-d6 roll-off. Ties reroll among
// only the tied players, indefinitely, until a unique winner emerges.
type DiceRoyaleState struct {
	Phase         string
	Round         int
	EligibleIDs   []string
	PlayerRolls   map[string][]int
	TiedPlayerIDs []string
	WinnerID      string
}

func (d *DiceRoyaleState) snapshot() gin.H {
	return gin.H{
		"phase":             d.Phase,
		"round":             d.Round,
		"eligiblePlayerIds": d.EligibleIDs,
		"playerRolls":       d.PlayerRolls,
		"tiedPlayerIds":     d.TiedPlayerIDs,
		"winnerId":          d.WinnerID,
	}
}

func (d *DiceRoyaleState) eligible(playerID string) bool {
	for _, id := range d.EligibleIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

func (d *DiceRoyaleState) allRolled() bool {
	for _, id := range d.EligibleIDs {
		if d.PlayerRolls[id] == nil {
			return false
		}
	}
	return true
}

// startDiceRoyale opens the first rolling window for all connected players
func (m *Manager) startDiceRoyale(room *Room) {
	var eligible []string
	for _, p := range room.connectedPlayers() {
		eligible = append(eligible, p.ID)
	}
	if len(eligible) < 2 {
		m.startVoting(room)
		return
	}

	m.setPhase(room, types.PhaseCategoryDiceRoyale)
	room.State.Dice = &DiceRoyaleState{
		Phase:       dicePhaseRolling,
		Round:       1,
		EligibleIDs: eligible,
		PlayerRolls: make(map[string][]int),
	}

	m.emit(room, "dice_royale_start", gin.H{
		"eligiblePlayerIds": eligible,
		"round":             1,
	})
	room.setDeadline(DiceRollDuration)
	// ready marks the rolling window open; clients enable the roll button
	m.emit(room, "dice_royale_ready", gin.H{
		"eligiblePlayerIds": eligible,
		"round":             1,
	})
	m.broadcast(room)
	m.armDiceDeadline(room, DiceRollDuration)
}

// armDiceDeadline schedules the auto-roll for the current rolling window.
// The reroll loop stays inside one phase token, so validity rides on the
// dice round number.
func (m *Manager) armDiceDeadline(room *Room, d time.Duration) {
	round := room.State.Dice.Round
	m.afterIf(room, d, func() bool {
		dice := room.State.Dice
		return dice != nil && dice.Round == round && dice.Phase == dicePhaseRolling
	}, func() {
		m.autoRollRemaining(room)
	})
}

// DiceRoll rolls both dice for the sender. The server generates the values;
// a repeat roll in the same window is a no-op.
func (m *Manager) DiceRoll(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleDiceRoll(room, player)
	})
}

func (m *Manager) handleDiceRoll(room *Room, player *Player) {
	dice := room.State.Dice
	if room.State.Phase != types.PhaseCategoryDiceRoyale || dice == nil || dice.Phase != dicePhaseRolling {
		return
	}
	if !dice.eligible(player.ID) || dice.PlayerRolls[player.ID] != nil {
		return
	}

	m.recordRoll(room, player.ID)
	if dice.allRolled() {
		m.resolveDiceRound(room)
	}
}

func (m *Manager) recordRoll(room *Room, playerID string) {
	rolls := []int{room.rng.Intn(6) + 1, room.rng.Intn(6) + 1}
	room.State.Dice.PlayerRolls[playerID] = rolls
	m.emit(room, "dice_royale_roll", gin.H{
		"playerId": playerID,
		"rolls":    rolls,
	})
	m.broadcast(room)
}

// autoRollRemaining rolls on behalf of everyone who missed the deadline
func (m *Manager) autoRollRemaining(room *Room) {
	dice := room.State.Dice
	for _, id := range dice.EligibleIDs {
		if dice.PlayerRolls[id] == nil {
			m.recordRoll(room, id)
		}
	}
	m.resolveDiceRound(room)
}

// resolveDiceRound finds the highest sum. A unique winner opens the pick
// window; a tie resets only the tied players and reopens rolling.
func (m *Manager) resolveDiceRound(room *Room) {
	dice := room.State.Dice

	best := -1
	for _, id := range dice.EligibleIDs {
		if sum := diceSum(dice.PlayerRolls[id]); sum > best {
			best = sum
		}
	}
	var winners []string
	for _, id := range dice.EligibleIDs {
		if diceSum(dice.PlayerRolls[id]) == best {
			winners = append(winners, id)
		}
	}

	if len(winners) == 1 {
		dice.Phase = dicePhaseResult
		dice.WinnerID = winners[0]
		dice.TiedPlayerIDs = nil
		room.State.LoserPickPlayerID = winners[0]

		logging.LogPhaseEvent("dice_royale_winner", room.Code, string(room.State.Phase), map[string]interface{}{
			"winner": winners[0],
			"rounds": dice.Round,
		})

		m.emit(room, "dice_royale_winner", gin.H{"playerId": winners[0]})
		m.emit(room, "dice_royale_pick", gin.H{"playerId": winners[0]})
		room.setDeadline(PickDuration)
		m.broadcast(room)

		m.after(room, PickDuration, func() {
			m.selectCategory(room, room.randomVotingCategory())
		})
		return
	}

	// No RNG shortcut on ties: the tied players roll again, as often as it
	// takes.
	dice.Phase = dicePhaseReroll
	dice.TiedPlayerIDs = winners
	dice.EligibleIDs = winners
	for _, id := range winners {
		delete(dice.PlayerRolls, id)
	}

	m.emit(room, "dice_royale_tie", gin.H{
		"tiedPlayerIds": winners,
		"round":         dice.Round + 1,
	})
	m.broadcast(room)

	m.after(room, DiceTieHold, func() {
		if room.State.Dice != dice {
			return
		}
		dice.Phase = dicePhaseRolling
		dice.Round++
		room.setDeadline(DiceRerollDuration)
		m.emit(room, "dice_royale_ready", gin.H{
			"eligiblePlayerIds": dice.EligibleIDs,
			"round":             dice.Round,
		})
		m.broadcast(room)
		m.armDiceDeadline(room, DiceRerollDuration)
	})
}

func diceSum(rolls []int) int {
	sum := 0
	for _, v := range rolls {
		sum += v
	}
	return sum
}
