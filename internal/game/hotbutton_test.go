package game

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/types"
)

// startTestHotButton runs the real intro path and acks it, leaving the first
// question in the reveal phase. The test questions use a reveal speed far
// beyond the test runtime so no character ticks fire on their own.
func startTestHotButton(t *testing.T, m *Manager, room *Room, questions ...*database.Question) *HotButtonState {
	t.Helper()

	room.plan = []roundPlan{{Kind: types.RoundHotButton}, {Kind: types.RoundQuestion}}
	room.State.CurrentRound = 1
	room.Settings.HotButtonQuestionsPerRound = len(questions)

	m.startHotButton(room)
	require.Equal(t, types.PhaseBonusRound, room.State.Phase)

	for _, p := range room.connectedHumans() {
		m.ackGate(room, "intro_ready", p.ID)
	}

	hb := hotButtonOf(room)
	require.NotNil(t, hb)
	require.Equal(t, hotButtonPhaseReveal, hb.Phase)
	return hb
}

func TestHotButtonQuestionStartArmsOriginalWindow(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)

	assert.Equal(t, 0, hb.RevealedChars)
	assert.False(t, hb.IsFullyRevealed)
	require.NotNil(t, room.State.TimerEnd)
	assert.Equal(t, hb.OriginalBuzzerTimerEnd, *room.State.TimerEnd)
	assert.WithinDuration(t, time.Now().Add(DefaultBuzzerTimeout), hb.OriginalBuzzerTimerEnd, time.Second)
}

func TestHotButtonRevealStepEmitsPrefixOnly(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)

	m.hotButtonRevealStep(room)
	m.hotButtonRevealStep(room)

	assert.Equal(t, 2, hb.RevealedChars)
	reveal := tr.lastEvent("hot_button_reveal")
	require.NotNil(t, reveal)
	assert.Equal(t, "We", reveal.payload["revealedText"])

	snap := hb.snapshot()
	assert.Equal(t, "We", snap["revealedText"])
	assert.Equal(t, len([]rune(q.Text)), snap["textLength"])
	assert.NotContains(t, snap, "correctAnswer")
}

func TestHotButtonBuzzClaimsAnswerSlot(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1, p2 := room.Players[0], room.Players[1]

	m.handleBuzz(room, p1)

	assert.Equal(t, hotButtonPhaseAnswering, hb.Phase)
	assert.Equal(t, p1.ID, hb.BuzzedPlayerID)
	assert.True(t, hb.AttemptedPlayerIDs[p1.ID])
	require.NotNil(t, tr.lastEvent("hot_button_buzz"))

	// a second buzz while someone answers is ignored
	m.handleBuzz(room, p2)
	assert.Equal(t, p1.ID, hb.BuzzedPlayerID)
	assert.False(t, hb.AttemptedPlayerIDs[p2.ID])
}

func TestHotButtonCorrectAnswerScoresSpeedBonus(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1 := room.Players[0]

	// buzz with nothing revealed: the top speed-bonus band
	m.handleBuzz(room, p1)
	m.handleHotButtonAnswer(room, p1, "goethe")

	want := q.HotButton.PointsCorrect + 500
	assert.Equal(t, want, p1.Score)
	assert.Equal(t, want, hb.PlayerScores[p1.ID])
	assert.Equal(t, hotButtonPhaseResult, hb.Phase)
	assert.True(t, hb.IsFullyRevealed)

	require.Len(t, hb.QuestionHistory, 1)
	assert.Equal(t, "correct", hb.QuestionHistory[0].Outcome)

	result := tr.lastEvent("hot_button_answer_result")
	require.NotNil(t, result)
	assert.Equal(t, true, result.payload["correct"])
	assert.Equal(t, "Goethe", result.payload["correctAnswer"])
}

func TestHotButtonWrongAnswerOpensRebuzzWithoutRevealingAnswer(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1 := room.Players[0]

	m.handleBuzz(room, p1)
	m.handleHotButtonAnswer(room, p1, "Schiller")

	assert.Equal(t, q.HotButton.PointsWrong, p1.Score)
	assert.Equal(t, hotButtonPhaseResult, hb.Phase)
	assert.Nil(t, room.State.TimerEnd)

	result := tr.lastEvent("hot_button_answer_result")
	require.NotNil(t, result)
	assert.Equal(t, false, result.payload["correct"])
	assert.Equal(t, true, result.payload["canRebuzz"])
	// the answer stays hidden while a rebuzz is still possible
	assert.NotContains(t, result.payload, "correctAnswer")
}

func TestHotButtonResumeRevealRestoresOriginalClock(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	original := hb.OriginalBuzzerTimerEnd
	p1 := room.Players[0]

	m.handleBuzz(room, p1)
	m.handleHotButtonAnswer(room, p1, "Schiller")
	m.hotButtonResumeReveal(room)

	assert.Equal(t, hotButtonPhaseReveal, hb.Phase)
	assert.Equal(t, original, hb.OriginalBuzzerTimerEnd)
	require.NotNil(t, room.State.TimerEnd)
	// the rebuzz window ends exactly where the first one would have
	assert.Equal(t, original, *room.State.TimerEnd)
}

func TestHotButtonResumeRevealExpiredWindowTimesOut(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1 := room.Players[0]

	m.handleBuzz(room, p1)
	m.handleHotButtonAnswer(room, p1, "Schiller")

	hb.OriginalBuzzerTimerEnd = time.Now().Add(-time.Second)
	m.hotButtonResumeReveal(room)

	assert.True(t, hb.IsFullyRevealed)
	require.NotEmpty(t, hb.QuestionHistory)
	assert.Equal(t, "no_buzz", hb.QuestionHistory[len(hb.QuestionHistory)-1].Outcome)
	assert.NotNil(t, tr.lastEvent("hot_button_timeout"))
}

func TestHotButtonWrongAnswerSoloRevealsAnswer(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1 := room.Players[0]

	m.handleBuzz(room, p1)
	m.handleHotButtonAnswer(room, p1, "Schiller")

	// no fresh buzzer is left, so there is no rebuzz and the answer shows
	result := tr.lastEvent("hot_button_answer_result")
	require.NotNil(t, result)
	assert.Equal(t, false, result.payload["canRebuzz"])
	assert.Equal(t, "Goethe", result.payload["correctAnswer"])
	assert.True(t, hb.IsFullyRevealed)
}

func TestHotButtonAnswerTimeoutCostsNothing(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1 := room.Players[0]

	m.handleBuzz(room, p1)
	m.hotButtonAnswerTimeout(room)

	assert.Equal(t, 0, p1.Score)
	require.NotEmpty(t, hb.QuestionHistory)
	last := hb.QuestionHistory[len(hb.QuestionHistory)-1]
	assert.Equal(t, "answer_timeout", last.Outcome)
	assert.Equal(t, 0, last.Points)
}

func TestHotButtonBuzzerTimeoutRecordsNoBuzz(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	m.hotButtonBuzzerTimeout(room)

	assert.True(t, hb.IsFullyRevealed)
	require.Len(t, hb.QuestionHistory, 1)
	assert.Equal(t, "no_buzz", hb.QuestionHistory[0].Outcome)

	timeout := tr.lastEvent("hot_button_timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "Goethe", timeout.payload["correctAnswer"])
}

func TestHotButtonStaleSeqTimerIsNoop(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	valid := m.hotButtonSeqValid(room, hb.Seq)
	assert.True(t, valid())

	hb.Seq++
	assert.False(t, valid(), "a timer armed before the boundary must not act")
}

func TestHotButtonDisconnectWhileAnsweringIsTimeout(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1 := room.Players[0]

	m.handleBuzz(room, p1)
	p1.IsConnected = false
	m.hotButtonHandleDisconnect(room, p1)

	require.NotEmpty(t, hb.QuestionHistory)
	assert.Equal(t, "answer_timeout", hb.QuestionHistory[len(hb.QuestionHistory)-1].Outcome)
	assert.Equal(t, 0, p1.Score)
}

func TestEndHotButtonRanksByRoundPoints(t *testing.T) {
	q := hotButtonQuestion("q-hb", "Wer schrieb Faust?", "Goethe")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	hb := startTestHotButton(t, m, room, q)
	p1, p2 := room.Players[0], room.Players[1]
	hb.PlayerScores[p1.ID] = 100
	hb.PlayerScores[p2.ID] = 700

	m.endHotButton(room)

	assert.Equal(t, hotButtonPhaseFinished, hb.Phase)
	assert.Equal(t, types.PhaseBonusRoundResult, room.State.Phase)

	end := tr.lastEvent("hot_button_end")
	require.NotNil(t, end)
	breakdown := end.payload["playerScoreBreakdown"].([]gin.H)
	require.Len(t, breakdown, 2)
	assert.Equal(t, p2.ID, breakdown[0]["playerId"])
	assert.Equal(t, 1, breakdown[0]["rank"])
	assert.Equal(t, p1.ID, breakdown[1]["playerId"])
}
