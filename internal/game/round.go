package game

import (
	"context"
	"time"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/scoring"
	"github.com/neo/quizparty_backend/internal/types"
)

// startQuestionRound loads the round's questions for the selected category:
// all but one are choice (true/false rides the same pipeline), the last is
// an estimation when the store has one. Caller holds the room lock.
func (m *Manager) startQuestionRound(room *Room) {
	state := room.State
	cat := state.SelectedCategory
	n := room.Settings.QuestionsPerRound

	choiceCount := n
	if n > 1 {
		choiceCount = n - 1
	}

	questions, err := m.store.RandomQuestions(cat.ID, types.QuestionChoice, choiceCount, state.UsedQuestionIDs)
	if err != nil {
		logging.LogQuestionEvent("question_load_failed", room.Code, map[string]interface{}{
			"category": cat.ID,
			"error":    err.Error(),
		})
	}

	if n > 1 {
		est, estErr := m.store.RandomQuestions(cat.ID, types.QuestionEstimation, 1, state.UsedQuestionIDs)
		if estErr == nil && len(est) > 0 {
			questions = append(questions, est[0])
		} else {
			// No estimation available: the round runs all choice.
			extra, _ := m.store.RandomQuestions(cat.ID, types.QuestionChoice, 1, usedPlus(state.UsedQuestionIDs, questions))
			questions = append(questions, extra...)
		}
	}

	if len(questions) == 0 {
		logging.LogQuestionEvent("round_skipped_empty_store", room.Code, map[string]interface{}{
			"category": cat.ID,
		})
		m.skipRound(room)
		return
	}

	for _, q := range questions {
		state.UsedQuestionIDs[q.ID] = true
	}
	state.RoundQuestions = questions
	state.CurrentQuestionIndex = 0

	m.presentQuestion(room)
}

func usedPlus(used map[string]bool, questions []*database.Question) map[string]bool {
	out := make(map[string]bool, len(used)+len(questions))
	for id := range used {
		out[id] = true
	}
	for _, q := range questions {
		out[q.ID] = true
	}
	return out
}

// skipRound aborts the running round when the store cannot serve it
func (m *Manager) skipRound(room *Room) {
	m.advanceRound(room)
}

// presentQuestion enters the question (or estimation) phase for the current
// index. Choice answers are shuffled exactly once here; clients never see
// the correct index before the reveal.
func (m *Manager) presentQuestion(room *Room) {
	state := room.State
	q := state.RoundQuestions[state.CurrentQuestionIndex]

	view := &QuestionView{
		ID:          q.ID,
		Type:        q.Type,
		Text:        q.Text,
		Explanation: q.Explanation,
		Window:      time.Duration(room.Settings.TimePerQuestion) * time.Second,
		Awards:      make(map[string]int),
	}

	phase := types.PhaseQuestion
	switch q.Type {
	case types.QuestionEstimation:
		phase = types.PhaseEstimation
		view.CorrectValue = q.Estimation.CorrectValue
		view.Unit = q.Estimation.Unit
	default:
		answers := append([]string{q.Choice.CorrectAnswer}, q.Choice.IncorrectAnswers...)
		perm := room.rng.Perm(len(answers))
		view.Answers = make([]string, len(answers))
		for shuffled, orig := range perm {
			view.Answers[shuffled] = answers[orig]
			if orig == 0 {
				view.CorrectIndex = shuffled
			}
		}
	}

	if m.tts != nil {
		url, err := m.tts.Generate(context.Background(), q.Text, q.ID)
		if err != nil {
			logging.LogTTSEvent("tts_unavailable", q.ID, map[string]interface{}{
				"error": err.Error(),
			})
		}
		view.TTSURL = url
	}

	state.Current = view
	state.Answers = make(map[string]*PlayerAnswer)

	m.setPhase(room, phase)
	view.StartedAt = time.Now()
	room.setDeadline(view.Window)
	m.broadcast(room)

	logging.LogQuestionEvent("question_presented", room.Code, map[string]interface{}{
		"question_id": q.ID,
		"type":        q.Type,
		"index":       state.CurrentQuestionIndex,
	})

	m.after(room, view.Window, func() {
		m.resolveQuestion(room)
	})
}

// SubmitAnswer records a player's submission for the current question. A
// second submission from the same player is a no-op.
func (m *Manager) SubmitAnswer(socketID string, answerIndex *int, estimationValue *float64) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleAnswer(room, player, answerIndex, estimationValue)
	})
}

func (m *Manager) handleAnswer(room *Room, player *Player, answerIndex *int, estimationValue *float64) {
	state := room.State
	q := state.Current
	if q == nil {
		return
	}

	switch state.Phase {
	case types.PhaseQuestion:
		if answerIndex == nil || *answerIndex < 0 || *answerIndex >= len(q.Answers) {
			return
		}
	case types.PhaseEstimation:
		if estimationValue == nil {
			return
		}
	default:
		return
	}

	if _, already := state.Answers[player.ID]; already {
		return
	}

	state.Answers[player.ID] = &PlayerAnswer{
		AnswerIndex:     answerIndex,
		EstimationValue: estimationValue,
		ReceivedAt:      time.Now(),
	}
	m.broadcast(room)

	// Everyone in: no reason to wait out the clock.
	for _, p := range room.connectedPlayers() {
		if _, ok := state.Answers[p.ID]; !ok {
			return
		}
	}
	m.resolveQuestion(room)
}

// resolveQuestion scores every submission and enters the reveal phase
func (m *Manager) resolveQuestion(room *Room) {
	state := room.State
	q := state.Current
	cat := state.SelectedCategory

	q.Revealed = true
	for playerID, ans := range state.Answers {
		player := room.playerByID(playerID)
		if player == nil {
			continue
		}

		points := 0
		switch q.Type {
		case types.QuestionEstimation:
			points = scoring.EstimationPoints(*ans.EstimationValue, q.CorrectValue)
			state.Stats.RecordEstimation(playerID, points)
		default:
			correct := *ans.AnswerIndex == q.CorrectIndex
			if correct {
				elapsed := ans.ReceivedAt.Sub(q.StartedAt)
				remaining := 1 - float64(elapsed)/float64(q.Window)
				points = scoring.ChoicePoints(remaining)
			}
			state.Stats.RecordAnswer(playerID, cat.ID, cat.Name, correct, ans.ReceivedAt.Sub(q.StartedAt))
		}

		player.Score += points
		q.Awards[playerID] = points
	}

	phase := types.PhaseRevealing
	if q.Type == types.QuestionEstimation {
		phase = types.PhaseEstimationReveal
	}
	m.setPhase(room, phase)
	m.broadcast(room)

	m.after(room, RevealHold, func() {
		m.nextQuestion(room)
	})
}

// nextQuestion advances within the round or closes it out
func (m *Manager) nextQuestion(room *Room) {
	state := room.State
	state.CurrentQuestionIndex++
	state.Current = nil
	state.Answers = make(map[string]*PlayerAnswer)

	if state.CurrentQuestionIndex >= len(state.RoundQuestions) {
		m.showScoreboard(room)
		return
	}
	m.presentQuestion(room)
}
