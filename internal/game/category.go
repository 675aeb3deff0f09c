package game

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// startCategorySelection seeds the round's categories and runs the selection
// mode. Caller holds the room lock.
func (m *Manager) startCategorySelection(room *Room, override types.CategoryMode) {
	cats, err := m.store.RandomCategories(VotingCategoryCount)
	if err != nil || len(cats) == 0 {
		logging.LogQuestionEvent("category_seed_failed", room.Code, map[string]interface{}{
			"error": errString(err),
		})
		m.skipRound(room)
		return
	}
	room.State.VotingCategories = cats

	mode := m.resolveCategoryMode(room, override)
	room.State.CategoryMode = mode

	logging.LogPhaseEvent("category_mode", room.Code, string(room.State.Phase), map[string]interface{}{
		"mode": mode,
	})

	m.setPhase(room, types.PhaseCategoryAnnouncement)
	m.emit(room, "category_mode", gin.H{"mode": mode})
	m.broadcast(room)

	m.after(room, AnnouncementHold, func() {
		m.enterCategoryMode(room, mode)
	})
}

// ForceCategoryMode pins the selection mode for all following rounds; an
// empty mode clears the pin. Development servers only.
func (m *Manager) ForceCategoryMode(socketID, mode string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		if !m.devMode || !player.IsHost {
			return
		}
		if mode == "" {
			room.ForcedCategoryMode = ""
			return
		}
		parsed, err := types.ParseCategoryMode(mode)
		if err != nil {
			return
		}
		room.ForcedCategoryMode = parsed
		logging.LogRoomEvent("category_mode_forced", room.Code, map[string]interface{}{
			"mode": mode,
		})
	})
}

// resolveCategoryMode applies overrides, the loser-pick cooldown and the
// minimum-player fallbacks.
func (m *Manager) resolveCategoryMode(room *Room, override types.CategoryMode) types.CategoryMode {
	mode := override
	if mode == "" {
		mode = room.ForcedCategoryMode
	}
	if mode == "" {
		mode = m.randomCategoryMode(room)
	}

	// Duel modes degrade to voting when there is nobody to duel.
	if room.connectedCount() < 2 {
		switch mode {
		case types.ModeDiceRoyale, types.ModeRPSDuel:
			mode = types.ModeVoting
		}
	}
	return mode
}

func (m *Manager) randomCategoryMode(room *Room) types.CategoryMode {
	state := room.State
	var pool []types.CategoryMode
	for _, mode := range types.AllCategoryModes {
		if mode == types.ModeLosersPick &&
			state.LastLoserPickRound > 0 &&
			state.CurrentRound-state.LastLoserPickRound <= LoserPickCooldown {
			continue
		}
		pool = append(pool, mode)
	}
	return pool[room.rng.Intn(len(pool))]
}

func (m *Manager) enterCategoryMode(room *Room, mode types.CategoryMode) {
	switch mode {
	case types.ModeWheel:
		m.startWheel(room)
	case types.ModeLosersPick:
		m.startLosersPick(room)
	case types.ModeDiceRoyale:
		m.startDiceRoyale(room)
	case types.ModeRPSDuel:
		m.startRPSDuel(room)
	default:
		m.startVoting(room)
	}
}

// selectCategory finalises the round's category and hands off to the question
// flow after a short reveal hold. The phase token does not move between a
// manual pick and its fallback timer, so a second call is dropped here.
// Caller holds the room lock.
func (m *Manager) selectCategory(room *Room, cat *database.Category) {
	m.selectCategoryWithHold(room, cat, CategorySelectedHold)
}

func (m *Manager) selectCategoryWithHold(room *Room, cat *database.Category, hold time.Duration) {
	if room.State.SelectedCategory != nil {
		return
	}
	room.State.SelectedCategory = cat
	m.emit(room, "category_selected", gin.H{"category": cat})
	m.broadcast(room)

	if hold <= 0 {
		m.startQuestionRound(room)
		return
	}
	m.after(room, hold, func() {
		m.startQuestionRound(room)
	})
}

func (r *Room) categoryByID(id string) *database.Category {
	for _, c := range r.State.VotingCategories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *Room) randomVotingCategory() *database.Category {
	cats := r.State.VotingCategories
	return cats[r.rng.Intn(len(cats))]
}

// --- voting -----------------------------------------------------------------

func (m *Manager) startVoting(room *Room) {
	m.setPhase(room, types.PhaseCategoryVoting)
	room.State.CategoryVotes = make(map[string]string)
	room.setDeadline(VotingDuration)
	m.broadcast(room)

	m.after(room, VotingDuration, func() {
		m.resolveVoting(room)
	})
}

// SubmitVote records one player's category vote. Votes may be changed until
// the deadline.
func (m *Manager) SubmitVote(socketID, categoryID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleVote(room, player, categoryID)
	})
}

func (m *Manager) handleVote(room *Room, player *Player, categoryID string) {
	if room.State.Phase != types.PhaseCategoryVoting {
		return
	}
	if room.categoryByID(categoryID) == nil {
		return
	}
	room.State.CategoryVotes[player.ID] = categoryID
	m.broadcast(room)
}

// resolveVoting tallies the votes. A tie runs the visible roulette: the
// server picks the winner among the tied categories first, clients animate
// toward it. Caller holds the room lock.
func (m *Manager) resolveVoting(room *Room) {
	counts := make(map[string]int)
	for _, catID := range room.State.CategoryVotes {
		counts[catID]++
	}

	if len(counts) == 0 {
		m.selectCategory(room, room.randomVotingCategory())
		return
	}

	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	var tied []*database.Category
	for _, c := range room.State.VotingCategories {
		if counts[c.ID] == best {
			tied = append(tied, c)
		}
	}

	if len(tied) == 1 {
		m.selectCategory(room, tied[0])
		return
	}

	winner := tied[room.rng.Intn(len(tied))]
	m.emit(room, "voting_tiebreaker", gin.H{
		"tiedCategories": tied,
		"winnerId":       winner.ID,
	})
	m.after(room, TiebreakerHold, func() {
		m.selectCategory(room, winner)
	})
}

// --- wheel ------------------------------------------------------------------

// startWheel pre-picks the landing index; clients animate a 5 s spin onto it.
// The spin itself is the reveal, so the round starts as soon as the hold ends.
func (m *Manager) startWheel(room *Room) {
	m.setPhase(room, types.PhaseCategoryWheel)
	idx := room.rng.Intn(len(room.State.VotingCategories))
	room.State.WheelSelectedIndex = idx
	m.broadcast(room)

	m.after(room, WheelSpinHold, func() {
		m.selectCategoryWithHold(room, room.State.VotingCategories[idx], 0)
	})
}

// --- loser's pick -----------------------------------------------------------

// startLosersPick entitles the lowest-scoring connected player; ties go to
// the earliest-joined.
func (m *Manager) startLosersPick(room *Room) {
	loser := room.lowestScoringConnected()
	if loser == nil {
		m.startVoting(room)
		return
	}

	m.setPhase(room, types.PhaseCategoryLosersPick)
	room.State.LoserPickPlayerID = loser.ID
	room.State.LastLoserPickRound = room.State.CurrentRound
	room.setDeadline(PickDuration)
	m.broadcast(room)

	m.after(room, PickDuration, func() {
		m.selectCategory(room, room.randomVotingCategory())
	})
}

// lowestScoringConnected returns the connected player with the lowest score,
// earliest-joined on tie.
func (r *Room) lowestScoringConnected() *Player {
	var loser *Player
	for _, p := range r.Players {
		if !p.IsConnected {
			continue
		}
		if loser == nil || p.Score < loser.Score {
			loser = p
		}
	}
	return loser
}

// PickCategory handles the entitled player's choice in loser's-pick and in
// the dice-royale / RPS winner windows.
func (m *Manager) PickCategory(socketID, categoryID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handlePickCategory(room, player, categoryID)
	})
}

func (m *Manager) handlePickCategory(room *Room, player *Player, categoryID string) {
	cat := room.categoryByID(categoryID)
	if cat == nil {
		return
	}

	state := room.State
	switch state.Phase {
	case types.PhaseCategoryLosersPick:
		if player.ID != state.LoserPickPlayerID {
			return
		}
	case types.PhaseCategoryDiceRoyale:
		if state.Dice == nil || state.Dice.Phase != dicePhaseResult || player.ID != state.Dice.WinnerID {
			return
		}
	case types.PhaseCategoryRPSDuel:
		if state.RPS == nil || state.RPS.Phase != rpsPhasePick || player.ID != state.RPS.WinnerID {
			return
		}
	default:
		return
	}

	m.selectCategory(room, cat)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
