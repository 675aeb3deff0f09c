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

// startTestCollective runs the real intro path and acks it for every player,
// leaving the round in the playing phase.
func startTestCollective(t *testing.T, m *Manager, room *Room, q *database.Question) *CollectiveListState {
	t.Helper()

	room.plan = []roundPlan{{Kind: types.RoundCollectiveList}, {Kind: types.RoundQuestion}}
	room.State.CurrentRound = 1

	m.startCollectiveList(room, q.ID)
	require.Equal(t, types.PhaseBonusRound, room.State.Phase)

	for _, p := range room.connectedHumans() {
		m.ackGate(room, "intro_ready", p.ID)
	}

	cl := collectiveOf(room)
	require.NotNil(t, cl)
	require.Equal(t, collectivePhasePlaying, cl.Phase)
	return cl
}

func assertCollectiveInvariant(t *testing.T, cl *CollectiveListState) {
	t.Helper()
	assert.Equal(t, len(cl.TurnOrder), len(cl.EliminatedPlayers)+len(cl.ActivePlayers),
		"every starter must be either active or eliminated")
}

func TestSortedByScoreAscendingKeepsJoinOrderOnTies(t *testing.T) {
	players := []*Player{
		{ID: "a", Score: 100},
		{ID: "b", Score: 50},
		{ID: "c", Score: 50},
		{ID: "d", Score: 10},
	}
	assert.Equal(t, []string{"d", "b", "c", "a"}, sortedByScoreAscending(players))
}

func TestCollectiveTurnOrderLowestScoreFirst(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen", "Sachsen")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	room.Players[0].Score = 500
	cl := startTestCollective(t, m, room, q)

	assert.Equal(t, []string{room.Players[1].ID, room.Players[0].ID}, cl.TurnOrder)
	assert.Equal(t, room.Players[1].ID, cl.currentPlayerID())

	turn := tr.lastEvent("bonus_round_turn")
	require.NotNil(t, turn)
	assert.Equal(t, room.Players[1].ID, turn.payload["playerId"])
}

func TestCollectiveCorrectGuessScoresAndAdvancesTurn(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen", "Sachsen")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)
	current := room.playerByID(cl.currentPlayerID())

	m.handleBonusAnswer(room, current, "bayern")

	assert.Equal(t, q.CollectiveList.PointsPerCorrect, current.Score)
	assert.Equal(t, 1, cl.PlayerCorrectCounts[current.ID])
	assert.Len(t, cl.GuessedIDs, 1)

	correct := tr.lastEvent("bonus_round_correct")
	require.NotNil(t, correct)
	assert.Equal(t, "Bayern", correct.payload["display"])

	// turn moved to the other player
	assert.NotEqual(t, current.ID, cl.currentPlayerID())
	assertCollectiveInvariant(t, cl)
}

func TestCollectiveWrongGuessEliminates(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)
	current := room.playerByID(cl.currentPlayerID())
	other := room.playerByID(cl.ActivePlayers[1])

	m.handleBonusAnswer(room, current, "completely wrong")

	require.Len(t, cl.EliminatedPlayers, 1)
	assert.Equal(t, current.ID, cl.EliminatedPlayers[0].PlayerID)
	assert.Equal(t, types.EliminatedWrong, cl.EliminatedPlayers[0].Reason)
	assert.Equal(t, 2, cl.EliminatedPlayers[0].Rank)
	assertCollectiveInvariant(t, cl)

	// two starters, one knockout: the survivor wins on the spot
	assert.Equal(t, collectivePhaseFinished, cl.Phase)
	assert.Equal(t, WinnerBonusSolo, other.Score)

	end := tr.lastEvent("collective_list_end")
	require.NotNil(t, end)
	assert.Equal(t, "last_standing", end.payload["reason"])
}

func TestCollectiveRepeatGuessEliminates(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen", "Sachsen")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob", "Cleo")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)

	first := room.playerByID(cl.currentPlayerID())
	m.handleBonusAnswer(room, first, "Bayern")

	second := room.playerByID(cl.currentPlayerID())
	m.handleBonusAnswer(room, second, "BAYERN")

	require.Len(t, cl.EliminatedPlayers, 1)
	assert.Equal(t, second.ID, cl.EliminatedPlayers[0].PlayerID)
	assert.Equal(t, types.EliminatedWrong, cl.EliminatedPlayers[0].Reason)
	assertCollectiveInvariant(t, cl)
}

func turnAnnouncementsFor(tr *fakeTransport, playerID string) int {
	n := 0
	for _, e := range tr.events("bonus_round_turn") {
		if e.payload["playerId"] == playerID {
			n++
		}
	}
	return n
}

func TestCollectiveEarlyAnswerDoesNotDoubleAdvanceTurn(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen", "Sachsen", "Berlin")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob", "Cleo")

	room.mu.Lock()
	cl := startTestCollective(t, m, room, q)

	first := room.playerByID(cl.currentPlayerID())
	m.handleBonusAnswer(room, first, "Bayern")

	// the next player answers during the correct-answer hold, before their
	// turn was announced; only the newest pending advance may fire
	second := room.playerByID(cl.currentPlayerID())
	m.handleBonusAnswer(room, second, "Hessen")

	third := cl.currentPlayerID()
	room.mu.Unlock()

	require.Eventually(t, func() bool {
		return turnAnnouncementsFor(tr, third) > 0
	}, 4*time.Second, 25*time.Millisecond)
	time.Sleep(250 * time.Millisecond)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, 1, turnAnnouncementsFor(tr, third), "one announcement per turn")
	assert.Equal(t, 2, cl.TurnNumber)
	assert.Equal(t, third, cl.currentPlayerID())
}

func TestCollectiveIgnoresOutOfTurnAnswers(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)
	notCurrent := room.playerByID(cl.ActivePlayers[1])

	m.handleBonusAnswer(room, notCurrent, "Bayern")

	assert.Empty(t, cl.GuessedIDs)
	assert.Empty(t, cl.EliminatedPlayers)
}

func TestCollectiveAllGuessedEndsWithSurvivorBonus(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)

	first := room.playerByID(cl.currentPlayerID())
	m.handleBonusAnswer(room, first, "Bayern")
	second := room.playerByID(cl.currentPlayerID())
	m.handleBonusAnswer(room, second, "Hessen")

	assert.Equal(t, collectivePhaseFinished, cl.Phase)

	end := tr.lastEvent("collective_list_end")
	require.NotNil(t, end)
	assert.Equal(t, "all_guessed", end.payload["reason"])

	// both survived, both take the shared winner bonus on top of their guesses
	ppc := q.CollectiveList.PointsPerCorrect
	assert.Equal(t, ppc+WinnerBonusMulti, first.Score)
	assert.Equal(t, ppc+WinnerBonusMulti, second.Score)
}

func TestCollectiveSoloSelfEliminationStillWins(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen", "Sachsen", "Berlin", "Bremen")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)
	solo := room.Players[0]

	m.handleBonusAnswer(room, solo, "Bayern")
	m.handleBonusAnswer(room, solo, "Hessen")
	m.handleBonusAnswer(room, solo, "Sachsen")
	m.handleBonusAnswer(room, solo, "no idea")

	require.Len(t, cl.EliminatedPlayers, 1)
	assert.Equal(t, 1, cl.EliminatedPlayers[0].Rank)
	assert.Equal(t, collectivePhaseFinished, cl.Phase)

	end := tr.lastEvent("collective_list_end")
	require.NotNil(t, end)
	breakdown := end.payload["playerScoreBreakdown"].([]gin.H)
	require.Len(t, breakdown, 1)
	assert.Equal(t, 3, breakdown[0]["correctAnswers"])
	assert.Equal(t, 3*q.CollectiveList.PointsPerCorrect, breakdown[0]["correctPoints"])
	assert.Equal(t, WinnerBonusSolo, breakdown[0]["rankBonus"])
	assert.Equal(t, 1, breakdown[0]["rank"])

	assert.Equal(t, 3*q.CollectiveList.PointsPerCorrect+WinnerBonusSolo, solo.Score)
}

func TestCollectiveSkipEliminatesCurrentPlayer(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob", "Cleo")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)
	current := room.playerByID(cl.currentPlayerID())

	m.handleBonusSkip(room, current)

	require.Len(t, cl.EliminatedPlayers, 1)
	assert.Equal(t, current.ID, cl.EliminatedPlayers[0].PlayerID)
	assert.Equal(t, types.EliminatedSkip, cl.EliminatedPlayers[0].Reason)
	assert.Equal(t, 3, cl.EliminatedPlayers[0].Rank)
	assertCollectiveInvariant(t, cl)
}

func TestCollectiveCurrentPlayerDisconnectIsImmediateKnockout(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob", "Cleo")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)
	current := room.playerByID(cl.currentPlayerID())
	current.IsConnected = false

	m.collectiveHandleDisconnect(room, current)

	require.Len(t, cl.EliminatedPlayers, 1)
	assert.Equal(t, types.EliminatedDisconnected, cl.EliminatedPlayers[0].Reason)
	assertCollectiveInvariant(t, cl)
}

func TestCollectiveTurnStartDropsDisconnectedPlayers(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen")
	m, _ := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice", "Bob", "Cleo")

	room.mu.Lock()
	defer room.mu.Unlock()

	cl := startTestCollective(t, m, room, q)

	// somebody else's turn; a waiting player drops their connection
	waiting := room.playerByID(cl.ActivePlayers[1])
	waiting.IsConnected = false

	m.startCollectiveTurn(room)

	require.NotEmpty(t, cl.EliminatedPlayers)
	assert.Equal(t, waiting.ID, cl.EliminatedPlayers[0].PlayerID)
	assert.Equal(t, types.EliminatedDisconnected, cl.EliminatedPlayers[0].Reason)
	assertCollectiveInvariant(t, cl)
}

func TestCollectiveFirstIntroIsExplainedOnceOnly(t *testing.T) {
	q := collectiveQuestion("q-list", "Bayern", "Hessen")
	m, tr := newTestManager(&stubStore{questions: []*database.Question{q}})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	defer room.mu.Unlock()

	startTestCollective(t, m, room, q)
	assert.Len(t, tr.events("bonus_round_intro"), 1)
	assert.True(t, room.explainedBonusIntros[types.BonusCollectiveList])
}
