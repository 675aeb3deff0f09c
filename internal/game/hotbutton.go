package game

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/fuzzy"
	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/scoring"
	"github.com/neo/quizparty_backend/internal/types"
)

const (
	hotButtonPhaseIntro     = "intro"
	hotButtonPhaseReveal    = "question_reveal"
	hotButtonPhaseAnswering = "answering"
	hotButtonPhaseResult    = "result"
	hotButtonPhaseFinished  = "finished"
)

// hotButtonRecord is one entry of the round's question history
type hotButtonRecord struct {
	QuestionID string `json:"questionId"`
	Outcome    string `json:"outcome"`
	PlayerID   string `json:"playerId,omitempty"`
	Points     int    `json:"points"`
}

// HotButtonState drives the progressive-reveal buzzer game. Seq moves on
// every sub-phase boundary (question start, buzz, answer, rebuzz, result) and
// every timer validates it; clearAllTimers additionally stops the handles at
// each boundary.
type HotButtonState struct {
	Questions            []*database.Question
	CurrentQuestionIndex int

	RevealedChars          int
	IsFullyRevealed        bool
	QuestionStartTime      time.Time
	BuzzedPlayerID         string
	RevealedAtBuzz         int
	OriginalBuzzerTimerEnd time.Time
	BuzzTimestamps         map[string]int64
	BuzzOrder              []string
	AttemptedPlayerIDs     map[string]bool

	BuzzerTimeoutDuration time.Duration
	AnswerTimeoutDuration time.Duration
	MaxRebuzzAttempts     int
	AllowRebuzz           bool

	PlayerScores    map[string]int
	QuestionHistory []hotButtonRecord

	Phase string
	Seq   int

	revealTimer *time.Timer
	buzzerTimer *time.Timer
	answerTimer *time.Timer
	nextTimer   *time.Timer
}

func (s *HotButtonState) clearAllTimers() {
	for _, t := range []*time.Timer{s.revealTimer, s.buzzerTimer, s.answerTimer, s.nextTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

func (s *HotButtonState) currentQuestion() *database.Question {
	return s.Questions[s.CurrentQuestionIndex]
}

func (s *HotButtonState) textRunes() []rune {
	return []rune(s.currentQuestion().Text)
}

// snapshot exposes only the revealed prefix of the question text
func (s *HotButtonState) snapshot() gin.H {
	attempted := make([]string, 0, len(s.AttemptedPlayerIDs))
	for id := range s.AttemptedPlayerIDs {
		attempted = append(attempted, id)
	}

	snap := gin.H{
		"type":               types.BonusHotButton,
		"phase":              s.Phase,
		"questionIndex":      s.CurrentQuestionIndex,
		"totalQuestions":     len(s.Questions),
		"isFullyRevealed":    s.IsFullyRevealed,
		"buzzedPlayerId":     s.BuzzedPlayerID,
		"attemptedPlayerIds": attempted,
		"buzzOrder":          s.BuzzOrder,
		"playerScores":       s.PlayerScores,
	}
	if s.Phase != hotButtonPhaseIntro && s.Phase != hotButtonPhaseFinished {
		runes := s.textRunes()
		n := s.RevealedChars
		if n > len(runes) {
			n = len(runes)
		}
		snap["revealedText"] = string(runes[:n])
		snap["textLength"] = len(runes)
	}
	return snap
}

// startHotButton loads the round's buzzer questions and runs the intro
func (m *Manager) startHotButton(room *Room) {
	count := room.Settings.HotButtonQuestionsPerRound
	questions, err := m.store.RandomQuestions("", types.QuestionHotButton, count, room.State.UsedBonusQuestionIDs)
	if err != nil || len(questions) == 0 {
		logging.LogQuestionEvent("bonus_load_failed", room.Code, map[string]interface{}{
			"kind":  types.RoundHotButton,
			"error": errString(err),
		})
		m.skipRound(room)
		return
	}
	for _, q := range questions {
		room.State.UsedBonusQuestionIDs[q.ID] = true
	}
	room.State.UsedBonusTypes[types.BonusHotButton] = true

	hb := &HotButtonState{
		Questions:             questions,
		BuzzerTimeoutDuration: DefaultBuzzerTimeout,
		AnswerTimeoutDuration: DefaultAnswerTimeout,
		MaxRebuzzAttempts:     DefaultMaxRebuzzAttempts,
		AllowRebuzz:           true,
		PlayerScores:          make(map[string]int),
		Phase:                 hotButtonPhaseIntro,
	}
	room.State.Bonus = &BonusState{Type: types.BonusHotButton, HotButton: hb}

	m.setPhase(room, types.PhaseBonusRound)
	m.broadcast(room)

	intro := "Bonusrunde: Hot Button! Die Frage erscheint Buchstabe für Buchstabe. " +
		"Wer zuerst buzzert, darf antworten. Falsche Antworten kosten Punkte."
	m.runBonusIntro(room, types.BonusHotButton, intro, func() {
		m.startHotButtonQuestion(room)
	})
}

func hotButtonOf(room *Room) *HotButtonState {
	if room.State.Bonus == nil {
		return nil
	}
	return room.State.Bonus.HotButton
}

// startHotButtonQuestion resets per-question state and opens the reveal
func (m *Manager) startHotButtonQuestion(room *Room) {
	hb := hotButtonOf(room)
	if hb.CurrentQuestionIndex >= len(hb.Questions) {
		m.endHotButton(room)
		return
	}

	hb.clearAllTimers()
	hb.RevealedChars = 0
	hb.IsFullyRevealed = false
	hb.BuzzedPlayerID = ""
	hb.RevealedAtBuzz = 0
	hb.BuzzTimestamps = make(map[string]int64)
	hb.BuzzOrder = nil
	hb.AttemptedPlayerIDs = make(map[string]bool)
	hb.QuestionStartTime = time.Now()
	hb.OriginalBuzzerTimerEnd = hb.QuestionStartTime.Add(hb.BuzzerTimeoutDuration)
	hb.Phase = hotButtonPhaseReveal
	hb.Seq++

	room.State.TimerEnd = &hb.OriginalBuzzerTimerEnd
	m.broadcast(room)

	m.armHotButtonReveal(room)
	m.armHotButtonBuzzerTimeout(room, hb.BuzzerTimeoutDuration)
}

func (m *Manager) hotButtonSeqValid(room *Room, seq int) func() bool {
	return func() bool {
		hb := hotButtonOf(room)
		return hb != nil && hb.Seq == seq
	}
}

// armHotButtonReveal schedules the next character tick
func (m *Manager) armHotButtonReveal(room *Room) {
	hb := hotButtonOf(room)
	q := hb.currentQuestion()

	speed := DefaultRevealSpeed
	if q.HotButton.RevealSpeedMS > 0 {
		speed = time.Duration(q.HotButton.RevealSpeedMS) * time.Millisecond
	}

	hb.revealTimer = m.afterIf(room, speed, m.hotButtonSeqValid(room, hb.Seq), func() {
		m.hotButtonRevealStep(room)
	})
}

func (m *Manager) hotButtonRevealStep(room *Room) {
	hb := hotButtonOf(room)
	if hb.Phase != hotButtonPhaseReveal || hb.IsFullyRevealed {
		return
	}

	hb.RevealedChars++
	runes := hb.textRunes()
	m.emit(room, "hot_button_reveal", gin.H{
		"revealedChars": hb.RevealedChars,
		"revealedText":  string(runes[:hb.RevealedChars]),
	})

	if hb.RevealedChars >= len(runes) {
		hb.IsFullyRevealed = true
		return
	}
	m.armHotButtonReveal(room)
}

func (m *Manager) armHotButtonBuzzerTimeout(room *Room, d time.Duration) {
	hb := hotButtonOf(room)
	hb.buzzerTimer = m.afterIf(room, d, m.hotButtonSeqValid(room, hb.Seq), func() {
		m.hotButtonBuzzerTimeout(room)
	})
}

// HotButtonBuzz claims the answer slot for the first eligible buzzer
func (m *Manager) HotButtonBuzz(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleBuzz(room, player)
	})
}

func (m *Manager) handleBuzz(room *Room, player *Player) {
	hb := hotButtonOf(room)
	if room.State.Phase != types.PhaseBonusRound || hb == nil || hb.Phase != hotButtonPhaseReveal {
		return
	}
	if hb.AttemptedPlayerIDs[player.ID] {
		return
	}

	hb.Seq++
	hb.clearAllTimers()

	hb.BuzzedPlayerID = player.ID
	hb.RevealedAtBuzz = hb.RevealedChars
	hb.BuzzTimestamps[player.ID] = time.Now().UnixMilli()
	hb.BuzzOrder = append(hb.BuzzOrder, player.ID)
	hb.AttemptedPlayerIDs[player.ID] = true
	hb.Phase = hotButtonPhaseAnswering

	room.setDeadline(hb.AnswerTimeoutDuration)
	m.emit(room, "hot_button_buzz", gin.H{
		"playerId":      player.ID,
		"revealedChars": hb.RevealedAtBuzz,
	})
	m.broadcast(room)

	hb.answerTimer = m.afterIf(room, hb.AnswerTimeoutDuration, m.hotButtonSeqValid(room, hb.Seq), func() {
		m.hotButtonAnswerTimeout(room)
	})
}

// HotButtonAnswer resolves the buzzed player's answer
func (m *Manager) HotButtonAnswer(socketID, text string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleHotButtonAnswer(room, player, text)
	})
}

func (m *Manager) handleHotButtonAnswer(room *Room, player *Player, text string) {
	hb := hotButtonOf(room)
	if room.State.Phase != types.PhaseBonusRound || hb == nil || hb.Phase != hotButtonPhaseAnswering {
		return
	}
	if player.ID != hb.BuzzedPlayerID {
		return
	}

	hb.Seq++
	hb.clearAllTimers()

	q := hb.currentQuestion()
	item := fuzzy.Item{
		ID:      q.ID,
		Display: q.HotButton.CorrectAnswer,
		Aliases: q.HotButton.AcceptedAnswers,
	}
	result := fuzzy.Match(text, []fuzzy.Item{item}, nil, DefaultFuzzyThreshold)

	if result.IsMatch {
		m.hotButtonCorrect(room, player, text)
		return
	}
	m.hotButtonWrong(room, player, text, q.HotButton.PointsWrong)
}

// hotButtonCorrect scores a right answer with the speed bonus taken at the
// moment of the buzz.
func (m *Manager) hotButtonCorrect(room *Room, player *Player, answer string) {
	hb := hotButtonOf(room)
	q := hb.currentQuestion()

	revealedPercent := float64(hb.RevealedAtBuzz) / float64(len(hb.textRunes()))
	points := q.HotButton.PointsCorrect + scoring.HotButtonSpeedBonus(revealedPercent)

	player.Score += points
	hb.PlayerScores[player.ID] += points
	hb.QuestionHistory = append(hb.QuestionHistory, hotButtonRecord{
		QuestionID: q.ID,
		Outcome:    "correct",
		PlayerID:   player.ID,
		Points:     points,
	})

	m.emit(room, "hot_button_answer_result", gin.H{
		"playerId":      player.ID,
		"correct":       true,
		"answer":        answer,
		"points":        points,
		"correctAnswer": q.HotButton.CorrectAnswer,
	})
	m.hotButtonShowResult(room)
}

// hotButtonWrong applies the penalty and opens a rebuzz with the remaining
// portion of the original buzzer window, when one is still possible. The
// correct answer is only revealed once no rebuzz can follow.
func (m *Manager) hotButtonWrong(room *Room, player *Player, answer string, penalty int) {
	hb := hotButtonOf(room)
	q := hb.currentQuestion()

	player.Score += penalty
	hb.PlayerScores[player.ID] += penalty

	canRebuzz := hb.AllowRebuzz &&
		hb.MaxRebuzzAttempts-len(hb.AttemptedPlayerIDs) > 0 &&
		m.hotButtonHasFreshBuzzer(room)

	outcome := "wrong"
	if answer == "" {
		outcome = "answer_timeout"
	}
	hb.QuestionHistory = append(hb.QuestionHistory, hotButtonRecord{
		QuestionID: q.ID,
		Outcome:    outcome,
		PlayerID:   player.ID,
		Points:     penalty,
	})

	payload := gin.H{
		"playerId":  player.ID,
		"correct":   false,
		"answer":    answer,
		"points":    penalty,
		"canRebuzz": canRebuzz,
	}
	if !canRebuzz {
		payload["correctAnswer"] = q.HotButton.CorrectAnswer
	}
	m.emit(room, "hot_button_answer_result", payload)

	if !canRebuzz {
		m.hotButtonShowResult(room)
		return
	}

	hb.Phase = hotButtonPhaseResult
	hb.BuzzedPlayerID = ""
	room.State.TimerEnd = nil
	m.broadcast(room)

	hb.nextTimer = m.afterIf(room, RebuzzDelay, m.hotButtonSeqValid(room, hb.Seq), func() {
		m.hotButtonResumeReveal(room)
	})
}

func (m *Manager) hotButtonHasFreshBuzzer(room *Room) bool {
	hb := hotButtonOf(room)
	for _, p := range room.connectedPlayers() {
		if !hb.AttemptedPlayerIDs[p.ID] {
			return true
		}
	}
	return false
}

// hotButtonResumeReveal reopens the buzzer keeping the original question
// clock: the new window ends exactly at OriginalBuzzerTimerEnd, and the
// reveal resumes from where it stopped.
func (m *Manager) hotButtonResumeReveal(room *Room) {
	hb := hotButtonOf(room)

	remaining := time.Until(hb.OriginalBuzzerTimerEnd)
	if remaining <= 0 {
		m.hotButtonBuzzerTimeout(room)
		return
	}

	hb.Phase = hotButtonPhaseReveal
	hb.Seq++
	room.State.TimerEnd = &hb.OriginalBuzzerTimerEnd
	m.broadcast(room)

	if !hb.IsFullyRevealed {
		m.armHotButtonReveal(room)
	}
	m.armHotButtonBuzzerTimeout(room, remaining)
}

// hotButtonAnswerTimeout runs the wrong-answer path with no penalty: a
// missed window costs nothing, only a submitted wrong answer does.
func (m *Manager) hotButtonAnswerTimeout(room *Room) {
	hb := hotButtonOf(room)
	player := room.playerByID(hb.BuzzedPlayerID)

	hb.Seq++
	hb.clearAllTimers()
	if player == nil {
		m.hotButtonShowResult(room)
		return
	}
	m.hotButtonWrong(room, player, "", 0)
}

// hotButtonBuzzerTimeout ends a question nobody buzzed on
func (m *Manager) hotButtonBuzzerTimeout(room *Room) {
	hb := hotButtonOf(room)
	q := hb.currentQuestion()

	hb.Seq++
	hb.clearAllTimers()
	hb.RevealedChars = len(hb.textRunes())
	hb.IsFullyRevealed = true
	hb.QuestionHistory = append(hb.QuestionHistory, hotButtonRecord{
		QuestionID: q.ID,
		Outcome:    "no_buzz",
	})

	m.emit(room, "hot_button_timeout", gin.H{
		"correctAnswer": q.HotButton.CorrectAnswer,
	})
	m.hotButtonShowResult(room)
}

// hotButtonShowResult reveals the full text and schedules the next question
func (m *Manager) hotButtonShowResult(room *Room) {
	hb := hotButtonOf(room)

	hb.Phase = hotButtonPhaseResult
	hb.RevealedChars = len(hb.textRunes())
	hb.IsFullyRevealed = true
	room.State.TimerEnd = nil
	m.broadcast(room)

	hb.nextTimer = m.afterIf(room, ResultDisplay, m.hotButtonSeqValid(room, hb.Seq), func() {
		hb.CurrentQuestionIndex++
		m.startHotButtonQuestion(room)
	})
}

// hotButtonHandleDisconnect treats a buzzed player's disconnect as an answer
// timeout. Caller holds the room lock.
func (m *Manager) hotButtonHandleDisconnect(room *Room, player *Player) {
	hb := hotButtonOf(room)
	if hb == nil || hb.Phase != hotButtonPhaseAnswering || hb.BuzzedPlayerID != player.ID {
		return
	}
	m.hotButtonAnswerTimeout(room)
}

// endHotButton builds the round breakdown ranked by round points
func (m *Manager) endHotButton(room *Room) {
	hb := hotButtonOf(room)
	hb.Phase = hotButtonPhaseFinished
	hb.Seq++
	hb.clearAllTimers()
	room.State.TimerEnd = nil

	ranked := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		ranked = append(ranked, p.ID)
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && hb.PlayerScores[ranked[j]] > hb.PlayerScores[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	breakdown := make([]gin.H, 0, len(ranked))
	for i, id := range ranked {
		breakdown = append(breakdown, gin.H{
			"playerId": id,
			"points":   hb.PlayerScores[id],
			"rank":     i + 1,
		})
	}

	logging.LogPhaseEvent("hot_button_end", room.Code, string(room.State.Phase), map[string]interface{}{
		"questions": len(hb.Questions),
	})

	m.emit(room, "hot_button_end", gin.H{
		"playerScoreBreakdown": breakdown,
		"questionHistory":      hb.QuestionHistory,
	})
	m.finishBonusRound(room)
}
