package game

import (
	"context"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// BonusState tags which sub-game is running; exactly one pointer is set
type BonusState struct {
	Type       types.BonusType
	Collective *CollectiveListState
	HotButton  *HotButtonState
}

// startBonusRound loads questions for the scheduled sub-game and enters the
// bonus_round phase. An empty store skips the round. Caller holds the room
// lock.
func (m *Manager) startBonusRound(room *Room, kind types.RoundKind, specificQuestionID string) {
	switch kind {
	case types.RoundCollectiveList:
		m.startCollectiveList(room, specificQuestionID)
	default:
		m.startHotButton(room)
	}
}

// runBonusIntro narrates the rules the first time a bonus type appears this
// match, then waits for every client; repeats get a short hold instead.
// Caller holds the room lock.
func (m *Manager) runBonusIntro(room *Room, bonusType types.BonusType, introText string, play func()) {
	if room.explainedBonusIntros[bonusType] {
		m.after(room, HotButtonIntroHold, play)
		return
	}
	room.explainedBonusIntros[bonusType] = true

	ttsURL := ""
	if m.tts != nil {
		url, err := m.tts.Generate(context.Background(), introText, "bonus-intro-"+string(bonusType))
		if err != nil {
			logging.LogTTSEvent("tts_unavailable", "bonus-intro-"+string(bonusType), map[string]interface{}{
				"error": err.Error(),
			})
		}
		ttsURL = url
	}

	m.emit(room, "bonus_round_intro", map[string]interface{}{
		"bonusType": bonusType,
		"ttsUrl":    ttsURL,
	})
	m.installGate(room, "intro_ready", IntroMaxWait, play)
}

// finishBonusRound shows the round result, then the scoreboard or the final
func (m *Manager) finishBonusRound(room *Room) {
	m.setPhase(room, types.PhaseBonusRoundResult)
	m.broadcast(room)

	m.after(room, FinalResultsHold, func() {
		if room.State.CurrentRound >= len(room.plan) {
			m.showFinalResults(room)
			return
		}
		m.showScoreboard(room)
	})
}
