package game

import (
	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// setPhase moves the room to a new phase. Bumping the token invalidates every
// timer armed for the previous phase; pending gates die with it. Caller holds
// the room lock.
func (m *Manager) setPhase(room *Room, phase types.Phase) {
	state := room.State
	logging.LogPhaseEvent("phase_change", room.Code, string(phase), map[string]interface{}{
		"from":  state.Phase,
		"round": state.CurrentRound,
	})

	state.Phase = phase
	state.PhaseToken++
	state.TimerEnd = nil
	room.clearGates()

	m.emit(room, "phase_change", gin.H{"phase": phase})
}

// StartGame begins the match. Host only, lobby only.
func (m *Manager) StartGame(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		if room.State.Phase != types.PhaseLobby {
			return
		}
		if !player.IsHost {
			logging.LogRoomEvent("start_game_not_host", room.Code, map[string]interface{}{
				"player_id": player.ID,
			})
			return
		}
		if room.connectedCount() == 0 {
			return
		}

		room.plan = m.buildPlan(room)
		room.State.CurrentRound = 1
		room.State.SnippetIndex = room.rng.Intn(1000)

		logging.LogRoomEvent("game_started", room.Code, map[string]interface{}{
			"players": room.connectedCount(),
			"rounds":  len(room.plan),
		})

		// Clients play the intro animation and welcome narration during
		// round_announcement; the match clock starts once they are done.
		m.setPhase(room, types.PhaseRoundAnnouncement)
		m.broadcast(room)

		m.installGate(room, "game_start_ready", GameStartMaxWait, func() {
			m.after(room, AnnouncementHold, func() {
				m.proceedAfterAnnouncement(room)
			})
		})
	})
}

// GameStartReady acknowledges the intro animation
func (m *Manager) GameStartReady(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.ackGate(room, "game_start_ready", player.ID)
	})
}

// IntroReady acknowledges a bonus-round rules narration
func (m *Manager) IntroReady(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.ackGate(room, "intro_ready", player.ID)
	})
}

// ScoreboardReady acknowledges the scoreboard narration
func (m *Manager) ScoreboardReady(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.ackGate(room, "scoreboard_ready", player.ID)
	})
}

// buildPlan produces the match schedule. Custom schedules are taken verbatim;
// otherwise each round rolls the bonus chance, and the final round is forced
// to a bonus when configured. Caller holds the room lock.
func (m *Manager) buildPlan(room *Room) []roundPlan {
	s := room.Settings
	if s.CustomMode {
		plan := make([]roundPlan, 0, len(s.CustomRounds))
		for _, cr := range s.CustomRounds {
			plan = append(plan, roundPlan{
				Kind:               cr.Kind,
				CategoryMode:       cr.CategoryMode,
				SpecificQuestionID: cr.SpecificQuestionID,
			})
		}
		return plan
	}

	plan := make([]roundPlan, 0, s.MaxRounds)
	for i := 1; i <= s.MaxRounds; i++ {
		isFinal := i == s.MaxRounds
		bonus := room.rng.Intn(100) < s.BonusRoundChance
		if isFinal && s.FinalRoundAlwaysBonus {
			bonus = true
		}
		if bonus {
			plan = append(plan, roundPlan{Kind: m.pickBonusKind(room)})
		} else {
			plan = append(plan, roundPlan{Kind: types.RoundQuestion})
		}
	}
	return plan
}

// pickBonusKind prefers a bonus type the match has not seen yet
func (m *Manager) pickBonusKind(room *Room) types.RoundKind {
	kinds := []types.RoundKind{types.RoundHotButton, types.RoundCollectiveList}
	var fresh []types.RoundKind
	for _, k := range kinds {
		if !room.State.UsedBonusTypes[bonusTypeFor(k)] {
			fresh = append(fresh, k)
		}
	}
	if len(fresh) > 0 {
		return fresh[room.rng.Intn(len(fresh))]
	}
	return kinds[room.rng.Intn(len(kinds))]
}

func bonusTypeFor(kind types.RoundKind) types.BonusType {
	if kind == types.RoundCollectiveList {
		return types.BonusCollectiveList
	}
	return types.BonusHotButton
}

// currentPlan returns the schedule entry for the running round
func (r *Room) currentPlan() roundPlan {
	idx := r.State.CurrentRound - 1
	if idx < 0 || idx >= len(r.plan) {
		return roundPlan{Kind: types.RoundQuestion}
	}
	return r.plan[idx]
}

// beginRound announces the round and hands off to category selection or the
// scheduled bonus. Caller holds the room lock.
func (m *Manager) beginRound(room *Room) {
	m.resetRoundState(room)
	m.setPhase(room, types.PhaseRoundAnnouncement)
	m.broadcast(room)

	m.after(room, AnnouncementHold, func() {
		m.proceedAfterAnnouncement(room)
	})
}

// proceedAfterAnnouncement dispatches on the round kind
func (m *Manager) proceedAfterAnnouncement(room *Room) {
	plan := room.currentPlan()
	switch plan.Kind {
	case types.RoundHotButton, types.RoundCollectiveList:
		m.setPhase(room, types.PhaseBonusRoundAnnouncement)
		m.emit(room, "category_mode", gin.H{"mode": "bonus", "kind": plan.Kind})
		m.broadcast(room)
		m.after(room, AnnouncementHold, func() {
			m.startBonusRound(room, plan.Kind, plan.SpecificQuestionID)
		})
	default:
		m.startCategorySelection(room, plan.CategoryMode)
	}
}

// resetRoundState clears per-round scratch state. Caller holds the room lock.
func (m *Manager) resetRoundState(room *Room) {
	state := room.State
	state.RoundQuestions = nil
	state.CurrentQuestionIndex = 0
	state.Current = nil
	state.Answers = make(map[string]*PlayerAnswer)
	state.CategoryMode = ""
	state.VotingCategories = nil
	state.CategoryVotes = make(map[string]string)
	state.SelectedCategory = nil
	state.WheelSelectedIndex = -1
	state.LoserPickPlayerID = ""
	state.Dice = nil
	state.RPS = nil
	state.Bonus = nil
}

// advanceRound moves to the next round or to the final results
func (m *Manager) advanceRound(room *Room) {
	if room.State.CurrentRound >= len(room.plan) {
		m.showFinalResults(room)
		return
	}
	room.State.CurrentRound++
	room.State.SnippetIndex = room.rng.Intn(1000)
	m.beginRound(room)
}
