package game

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/fuzzy"
	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

const (
	collectivePhaseIntro    = "intro"
	collectivePhasePlaying  = "playing"
	collectivePhaseFinished = "finished"
)

// CollectiveItem is one answer slot during a collective-list round
type CollectiveItem struct {
	ID        string
	Display   string
	Aliases   []string
	Group     string
	GuessedBy string
}

// EliminatedPlayer records one knockout in elimination order
type EliminatedPlayer struct {
	PlayerID string                  `json:"playerId"`
	Reason   types.EliminationReason `json:"reason"`
	Rank     int                     `json:"rank"`
}

// CollectiveListState drives the turn-based elimination list game. Seq is the
// validity token for turn timers: it moves on every turn boundary so a timer
// armed for an earlier turn can never eliminate anyone.
type CollectiveListState struct {
	QuestionID  string
	Topic       string
	Description string

	Items               []*CollectiveItem
	GuessedIDs          map[string]bool
	PlayerCorrectCounts map[string]int

	TurnOrder        []string
	ActivePlayers    []string
	CurrentTurnIndex int
	TurnNumber       int
	Seq              int

	EliminatedPlayers []EliminatedPlayer

	PointsPerCorrect int
	TimePerTurn      time.Duration
	FuzzyThreshold   float64
	Phase            string
}

// snapshot exposes only guessed items; the remaining answers stay hidden
func (s *CollectiveListState) snapshot() gin.H {
	guessed := make([]gin.H, 0, len(s.GuessedIDs))
	for _, item := range s.Items {
		if item.GuessedBy != "" {
			guessed = append(guessed, gin.H{
				"id":        item.ID,
				"display":   item.Display,
				"group":     item.Group,
				"guessedBy": item.GuessedBy,
			})
		}
	}

	snap := gin.H{
		"type":                types.BonusCollectiveList,
		"phase":               s.Phase,
		"topic":               s.Topic,
		"description":         s.Description,
		"totalItems":          len(s.Items),
		"guessedItems":        guessed,
		"playerCorrectCounts": s.PlayerCorrectCounts,
		"turnOrder":           s.TurnOrder,
		"activePlayers":       s.ActivePlayers,
		"turnNumber":          s.TurnNumber,
		"eliminatedPlayers":   s.EliminatedPlayers,
		"pointsPerCorrect":    s.PointsPerCorrect,
		"timePerTurn":         int(s.TimePerTurn / time.Second),
	}
	if s.Phase == collectivePhasePlaying && len(s.ActivePlayers) > 0 {
		snap["currentPlayerId"] = s.ActivePlayers[s.CurrentTurnIndex]
	}
	return snap
}

func (s *CollectiveListState) currentPlayerID() string {
	if len(s.ActivePlayers) == 0 {
		return ""
	}
	return s.ActivePlayers[s.CurrentTurnIndex%len(s.ActivePlayers)]
}

func (s *CollectiveListState) isActive(playerID string) bool {
	for _, id := range s.ActivePlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

func (s *CollectiveListState) fuzzyItems() []fuzzy.Item {
	items := make([]fuzzy.Item, len(s.Items))
	for i, it := range s.Items {
		items[i] = fuzzy.Item{ID: it.ID, Display: it.Display, Aliases: it.Aliases}
	}
	return items
}

// startCollectiveList loads the list question and runs the intro. Caller
// holds the room lock.
func (m *Manager) startCollectiveList(room *Room, specificQuestionID string) {
	q, err := m.loadCollectiveQuestion(room, specificQuestionID)
	if err != nil || q == nil {
		logging.LogQuestionEvent("bonus_load_failed", room.Code, map[string]interface{}{
			"kind":  types.RoundCollectiveList,
			"error": errString(err),
		})
		m.skipRound(room)
		return
	}
	room.State.UsedBonusQuestionIDs[q.ID] = true
	room.State.UsedBonusTypes[types.BonusCollectiveList] = true

	content := q.CollectiveList
	items := make([]*CollectiveItem, len(content.Items))
	for i, it := range content.Items {
		items[i] = &CollectiveItem{ID: it.ID, Display: it.Display, Aliases: it.Aliases, Group: it.Group}
	}

	threshold := content.FuzzyThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}

	// Turn order is fixed for the round: lowest score goes first, ties keep
	// join order.
	turnOrder := sortedByScoreAscending(room.connectedPlayers())

	state := &CollectiveListState{
		QuestionID:          q.ID,
		Topic:               content.Topic,
		Description:         content.Description,
		Items:               items,
		GuessedIDs:          make(map[string]bool),
		PlayerCorrectCounts: make(map[string]int),
		TurnOrder:           turnOrder,
		ActivePlayers:       append([]string(nil), turnOrder...),
		PointsPerCorrect:    content.PointsPerCorrect,
		TimePerTurn:         time.Duration(content.TimePerTurn) * time.Second,
		FuzzyThreshold:      threshold,
		Phase:               collectivePhaseIntro,
	}
	room.State.Bonus = &BonusState{Type: types.BonusCollectiveList, Collective: state}

	m.setPhase(room, types.PhaseBonusRound)
	m.broadcast(room)

	intro := "Bonusrunde: Gemeinsame Liste! Nennt abwechselnd Begriffe zum Thema " + content.Topic +
		". Wer falsch liegt, wiederholt oder zu lange braucht, scheidet aus."
	m.runBonusIntro(room, types.BonusCollectiveList, intro, func() {
		state.Phase = collectivePhasePlaying
		m.startCollectiveTurn(room)
	})
}

func (m *Manager) loadCollectiveQuestion(room *Room, specificID string) (*database.Question, error) {
	if specificID != "" {
		return m.store.GetQuestion(specificID)
	}
	questions, err := m.store.RandomQuestions("", types.QuestionCollectiveList, 1, room.State.UsedBonusQuestionIDs)
	if err != nil || len(questions) == 0 {
		return nil, err
	}
	return questions[0], nil
}

func sortedByScoreAscending(players []*Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	// insertion sort keeps join order stable on equal scores
	byID := make(map[string]*Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && byID[out[j]].Score < byID[out[j-1]].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// startCollectiveTurn opens the next turn: disconnected players are knocked
// out first, then the turn timer is armed against the new Seq.
func (m *Manager) startCollectiveTurn(room *Room) {
	cl := room.State.Bonus.Collective

	for {
		dropped := false
		for _, id := range cl.ActivePlayers {
			p := room.playerByID(id)
			if p == nil || !p.IsConnected {
				m.recordElimination(room, id, types.EliminatedDisconnected)
				dropped = true
				break
			}
		}
		if !dropped {
			break
		}
	}

	if m.collectiveFinishedAfterEliminations(room) {
		return
	}

	cl.CurrentTurnIndex %= len(cl.ActivePlayers)
	cl.TurnNumber++
	cl.Seq++
	seq := cl.Seq

	current := cl.ActivePlayers[cl.CurrentTurnIndex]
	room.setDeadline(cl.TimePerTurn)
	m.emit(room, "bonus_round_turn", gin.H{
		"playerId":   current,
		"turnNumber": cl.TurnNumber,
	})
	m.broadcast(room)

	m.afterIf(room, cl.TimePerTurn, func() bool {
		c := collectiveOf(room)
		return c != nil && c.Phase == collectivePhasePlaying && c.Seq == seq
	}, func() {
		m.eliminateCollective(room, current, types.EliminatedTimeout)
	})
}

func collectiveOf(room *Room) *CollectiveListState {
	if room.State.Bonus == nil {
		return nil
	}
	return room.State.Bonus.Collective
}

// SubmitBonusAnswer dispatches a collective-list guess from the current-turn
// player through the fuzzy matcher.
func (m *Manager) SubmitBonusAnswer(socketID, text string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleBonusAnswer(room, player, text)
	})
}

func (m *Manager) handleBonusAnswer(room *Room, player *Player, text string) {
	cl := collectiveOf(room)
	if room.State.Phase != types.PhaseBonusRound || cl == nil || cl.Phase != collectivePhasePlaying {
		return
	}
	if player.ID != cl.currentPlayerID() {
		return
	}

	cl.Seq++ // the turn timer must not fire after a received answer
	result := fuzzy.Match(text, cl.fuzzyItems(), cl.GuessedIDs, cl.FuzzyThreshold)

	if result.AlreadyGuessed || !result.IsMatch {
		m.eliminateCollective(room, player.ID, types.EliminatedWrong)
		return
	}

	cl.GuessedIDs[result.MatchedItemID] = true
	for _, item := range cl.Items {
		if item.ID == result.MatchedItemID {
			item.GuessedBy = player.ID
		}
	}
	cl.PlayerCorrectCounts[player.ID]++
	player.Score += cl.PointsPerCorrect

	m.emit(room, "bonus_round_correct", gin.H{
		"playerId": player.ID,
		"itemId":   result.MatchedItemID,
		"display":  result.MatchedDisplay,
		"points":   cl.PointsPerCorrect,
	})
	m.broadcast(room)

	if len(cl.GuessedIDs) == len(cl.Items) {
		m.endCollective(room, "all_guessed")
		return
	}

	// currentPlayerID() already points at the next player during the hold;
	// an answer from them re-arms the advance, so the old one must go stale.
	cl.CurrentTurnIndex = (cl.CurrentTurnIndex + 1) % len(cl.ActivePlayers)
	seq := cl.Seq
	m.afterIf(room, CorrectAnswerDelay, func() bool {
		c := collectiveOf(room)
		return c != nil && c.Phase == collectivePhasePlaying && c.Seq == seq
	}, func() {
		m.startCollectiveTurn(room)
	})
}

// SkipBonusRound eliminates the current-turn player on their own request
func (m *Manager) SkipBonusRound(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		m.handleBonusSkip(room, player)
	})
}

func (m *Manager) handleBonusSkip(room *Room, player *Player) {
	cl := collectiveOf(room)
	if room.State.Phase != types.PhaseBonusRound || cl == nil || cl.Phase != collectivePhasePlaying {
		return
	}
	if player.ID != cl.currentPlayerID() {
		return
	}
	cl.Seq++
	m.eliminateCollective(room, player.ID, types.EliminatedSkip)
}

// collectiveHandleDisconnect treats a disconnecting current-turn player as an
// immediate knockout; inactive players are dropped at the next turn start.
// Caller holds the room lock.
func (m *Manager) collectiveHandleDisconnect(room *Room, player *Player) {
	cl := collectiveOf(room)
	if cl == nil || cl.Phase != collectivePhasePlaying {
		return
	}
	if player.ID != cl.currentPlayerID() {
		return
	}
	cl.Seq++
	m.eliminateCollective(room, player.ID, types.EliminatedDisconnected)
}

// recordElimination appends the knockout and removes the player from the
// active list, keeping CurrentTurnIndex pointing at the next still-active
// player.
func (m *Manager) recordElimination(room *Room, playerID string, reason types.EliminationReason) {
	cl := collectiveOf(room)

	rank := len(cl.TurnOrder) - len(cl.EliminatedPlayers)
	cl.EliminatedPlayers = append(cl.EliminatedPlayers, EliminatedPlayer{
		PlayerID: playerID,
		Reason:   reason,
		Rank:     rank,
	})

	for i, id := range cl.ActivePlayers {
		if id == playerID {
			cl.ActivePlayers = append(cl.ActivePlayers[:i], cl.ActivePlayers[i+1:]...)
			if i < cl.CurrentTurnIndex {
				cl.CurrentTurnIndex--
			}
			break
		}
	}
	if len(cl.ActivePlayers) > 0 {
		cl.CurrentTurnIndex %= len(cl.ActivePlayers)
	} else {
		cl.CurrentTurnIndex = 0
	}

	m.emit(room, "bonus_round_eliminate", gin.H{
		"playerId": playerID,
		"reason":   reason,
		"rank":     rank,
	})
}

// eliminateCollective knocks a player out and either ends the round or opens
// the next turn after a short hold.
func (m *Manager) eliminateCollective(room *Room, playerID string, reason types.EliminationReason) {
	m.recordElimination(room, playerID, reason)
	m.broadcast(room)

	if m.collectiveFinishedAfterEliminations(room) {
		return
	}

	cl := collectiveOf(room)
	seq := cl.Seq
	m.afterIf(room, EliminationHold, func() bool {
		c := collectiveOf(room)
		return c != nil && c.Phase == collectivePhasePlaying && c.Seq == seq
	}, func() {
		m.startCollectiveTurn(room)
	})
}

// collectiveFinishedAfterEliminations ends the round when at most one player
// remains of a multi-player start, or none remains of a solo start.
func (m *Manager) collectiveFinishedAfterEliminations(room *Room) bool {
	cl := collectiveOf(room)
	if len(cl.TurnOrder) > 1 && len(cl.ActivePlayers) <= 1 {
		m.endCollective(room, "last_standing")
		return true
	}
	if len(cl.TurnOrder) == 1 && len(cl.ActivePlayers) == 0 {
		m.endCollective(room, "last_standing")
		return true
	}
	return false
}

// endCollective awards the winner bonus, builds the score breakdown and moves
// to the result phase.
func (m *Manager) endCollective(room *Room, endReason string) {
	cl := collectiveOf(room)
	cl.Phase = collectivePhaseFinished
	cl.Seq++
	room.State.TimerEnd = nil

	// Survivors win; a solo player who knocked themselves out still holds
	// rank 1 and takes the solo bonus.
	winners := append([]string(nil), cl.ActivePlayers...)
	if len(winners) == 0 {
		for _, e := range cl.EliminatedPlayers {
			if e.Rank == 1 {
				winners = append(winners, e.PlayerID)
			}
		}
	}
	rankBonus := WinnerBonusMulti
	if len(winners) == 1 {
		rankBonus = WinnerBonusSolo
	}
	winnerSet := make(map[string]bool, len(winners))
	for _, id := range winners {
		winnerSet[id] = true
		if p := room.playerByID(id); p != nil {
			p.Score += rankBonus
		}
	}

	breakdown := make([]gin.H, 0, len(cl.TurnOrder))
	for _, id := range cl.TurnOrder {
		correct := cl.PlayerCorrectCounts[id]
		bonus := 0
		rank := 1
		if winnerSet[id] {
			bonus = rankBonus
		} else {
			for _, e := range cl.EliminatedPlayers {
				if e.PlayerID == id {
					rank = e.Rank
				}
			}
		}
		breakdown = append(breakdown, gin.H{
			"playerId":       id,
			"correctAnswers": correct,
			"correctPoints":  correct * cl.PointsPerCorrect,
			"rankBonus":      bonus,
			"totalPoints":    correct*cl.PointsPerCorrect + bonus,
			"rank":           rank,
		})
	}

	logging.LogPhaseEvent("collective_list_end", room.Code, string(room.State.Phase), map[string]interface{}{
		"reason":  endReason,
		"guessed": len(cl.GuessedIDs),
		"items":   len(cl.Items),
	})

	m.emit(room, "collective_list_end", gin.H{
		"reason":               endReason,
		"playerScoreBreakdown": breakdown,
	})
	m.finishBonusRound(room)
}
