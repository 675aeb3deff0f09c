package game

import (
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// showFinalResults ranks the match and publishes the full statistics block,
// then opens rematch voting. Caller holds the room lock.
func (m *Manager) showFinalResults(room *Room) {
	m.setPhase(room, types.PhaseFinal)

	stats := room.State.Stats
	sorted := playersByScoreDescending(room.connectedPlayers())

	rankings := make([]gin.H, 0, len(sorted))
	for i, p := range sorted {
		ps := stats.Players[p.ID]
		entry := gin.H{
			"rank":     i + 1,
			"playerId": p.ID,
			"name":     p.Name,
			"score":    p.Score,
		}
		if ps != nil {
			entry["correctAnswers"] = ps.CorrectAnswers
			entry["totalAnswers"] = ps.TotalAnswers
			entry["accuracy"] = stats.Accuracy(p.ID)
			entry["estimationPoints"] = ps.EstimationPoints
			entry["estimationQuestions"] = ps.EstimationQuestions
			entry["fastestAnswer"] = ps.FastestAnswerMS
			entry["longestStreak"] = ps.LongestStreak
		}
		rankings = append(rankings, entry)
	}

	payload := gin.H{
		"rankings":            rankings,
		"categoryPerformance": categoryPerformance(room),
	}
	if best := bestEstimator(room); best != nil {
		payload["bestEstimator"] = best
	}
	if fastest := fastestFingers(room); len(fastest) > 0 {
		payload["fastestFingers"] = fastest
	}
	if best, worst := bestWorstCategory(room); best != nil {
		payload["bestCategory"] = best
		payload["worstCategory"] = worst
	}

	logging.LogRoomEvent("game_over", room.Code, map[string]interface{}{
		"rounds":  room.State.CurrentRound,
		"players": len(sorted),
	})

	m.emit(room, "game_over", payload)
	m.broadcast(room)

	m.after(room, FinalResultsHold, func() {
		m.startRematchVoting(room)
	})
}

// bestEstimator returns the player with the most estimation points, requiring
// at least one answered estimation.
func bestEstimator(room *Room) gin.H {
	stats := room.State.Stats
	var bestID string
	bestPoints := -1
	for _, p := range room.Players {
		ps := stats.Players[p.ID]
		if ps == nil || ps.EstimationQuestions == 0 {
			continue
		}
		if ps.EstimationPoints > bestPoints {
			bestPoints = ps.EstimationPoints
			bestID = p.ID
		}
	}
	if bestID == "" {
		return nil
	}
	return gin.H{
		"playerId":         bestID,
		"estimationPoints": bestPoints,
	}
}

// fastestFingers returns up to three players by average response time, only
// counting players with at least three answers.
func fastestFingers(room *Room) []gin.H {
	stats := room.State.Stats

	type fastEntry struct {
		playerID string
		avgMS    int64
	}
	var entries []fastEntry
	for _, p := range room.Players {
		ps := stats.Players[p.ID]
		if ps == nil || ps.TotalAnswers < 3 {
			continue
		}
		entries = append(entries, fastEntry{p.ID, stats.AverageResponseMS(p.ID)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].avgMS < entries[j].avgMS
	})
	if len(entries) > 3 {
		entries = entries[:3]
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"playerId":          e.playerID,
			"averageResponseMs": e.avgMS,
		})
	}
	return out
}

// bestWorstCategory compares room-wide accuracy per category
func bestWorstCategory(room *Room) (gin.H, gin.H) {
	cats := room.State.Stats.Categories
	var bestID, worstID string
	bestAcc, worstAcc := -1.0, 2.0
	for id, cs := range cats {
		if cs.Total == 0 {
			continue
		}
		acc := float64(cs.Correct) / float64(cs.Total)
		if acc > bestAcc {
			bestAcc = acc
			bestID = id
		}
		if acc < worstAcc {
			worstAcc = acc
			worstID = id
		}
	}
	if bestID == "" {
		return nil, nil
	}
	return gin.H{
			"categoryId": bestID,
			"name":       cats[bestID].Name,
			"accuracy":   100 * bestAcc,
		}, gin.H{
			"categoryId": worstID,
			"name":       cats[worstID].Name,
			"accuracy":   100 * worstAcc,
		}
}

// categoryPerformance lists every played category with its accuracy
func categoryPerformance(room *Room) []gin.H {
	cats := room.State.Stats.Categories
	ids := make([]string, 0, len(cats))
	for id := range cats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		cs := cats[id]
		acc := 0.0
		if cs.Total > 0 {
			acc = 100 * float64(cs.Correct) / float64(cs.Total)
		}
		out = append(out, gin.H{
			"categoryId": id,
			"name":       cs.Name,
			"correct":    cs.Correct,
			"total":      cs.Total,
			"accuracy":   acc,
		})
	}
	return out
}
