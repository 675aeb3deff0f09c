package game

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/types"
)

// snapshot builds the client-facing projection of a room. Socket ids, timer
// handles and unrevealed correct answers never leave the server; the correct
// answer first appears in the reveal broadcast. Caller holds the room lock.
func (m *Manager) snapshot(room *Room) gin.H {
	state := room.State
	now := time.Now()

	players := make([]gin.H, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, gin.H{
			"id":          p.ID,
			"name":        p.Name,
			"avatarSeed":  p.AvatarSeed,
			"score":       p.Score,
			"isHost":      p.IsHost,
			"isConnected": p.IsConnected,
			"isBot":       p.IsBot,
		})
	}

	snap := gin.H{
		"code":         room.Code,
		"hostId":       room.HostID,
		"phase":        state.Phase,
		"serverTime":   now.UnixMilli(),
		"timerEnd":     nil,
		"players":      players,
		"settings":     room.Settings,
		"currentRound": state.CurrentRound,
		"snippetIndex": state.SnippetIndex,
	}
	if state.TimerEnd != nil && state.TimerEnd.After(now) {
		snap["timerEnd"] = state.TimerEnd.UnixMilli()
	}

	if state.CategoryMode != "" {
		snap["categoryMode"] = state.CategoryMode
	}
	if len(state.VotingCategories) > 0 {
		snap["votingCategories"] = state.VotingCategories
	}
	if state.Phase == types.PhaseCategoryVoting {
		snap["categoryVotes"] = state.CategoryVotes
	}
	if state.SelectedCategory != nil {
		snap["selectedCategory"] = state.SelectedCategory
	}
	if state.WheelSelectedIndex >= 0 {
		snap["wheelSelectedIndex"] = state.WheelSelectedIndex
	}
	if state.LoserPickPlayerID != "" {
		snap["loserPickPlayerId"] = state.LoserPickPlayerID
	}
	if state.Dice != nil {
		snap["diceRoyale"] = state.Dice.snapshot()
	}
	if state.RPS != nil {
		snap["rpsDuel"] = state.RPS.snapshot()
	}
	if state.Bonus != nil {
		snap["bonusRound"] = m.bonusSnapshot(state.Bonus)
	}
	if q := state.Current; q != nil {
		snap["currentQuestion"] = questionSnapshot(q, state.CurrentQuestionIndex, len(state.RoundQuestions))
	}
	if state.Phase == types.PhaseRematchVoting {
		snap["rematchVotes"] = state.RematchVotes
	}

	return snap
}

// questionSnapshot projects the current question. The correct answer and
// per-player awards are withheld until the reveal phase stamped it Revealed.
func questionSnapshot(q *QuestionView, index, total int) gin.H {
	view := gin.H{
		"id":            q.ID,
		"type":          q.Type,
		"text":          q.Text,
		"questionIndex": index,
		"totalInRound":  total,
	}
	if len(q.Answers) > 0 {
		view["answers"] = q.Answers
	}
	if q.Unit != "" {
		view["unit"] = q.Unit
	}
	if q.TTSURL != "" {
		view["ttsUrl"] = q.TTSURL
	}
	if q.Revealed {
		switch q.Type {
		case types.QuestionEstimation:
			view["correctValue"] = q.CorrectValue
		default:
			view["correctIndex"] = q.CorrectIndex
		}
		if q.Explanation != "" {
			view["explanation"] = q.Explanation
		}
		view["awards"] = q.Awards
	}
	return view
}

// bonusSnapshot projects the active bonus sub-game
func (m *Manager) bonusSnapshot(b *BonusState) gin.H {
	switch {
	case b.Collective != nil:
		return b.Collective.snapshot()
	case b.HotButton != nil:
		return b.HotButton.snapshot()
	}
	return gin.H{"type": b.Type}
}
