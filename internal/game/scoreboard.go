package game

import (
	"context"
	"fmt"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// showScoreboard enters the scoreboard phase and narrates the standings.
// Multiplayer advances once every client acked (or the fallback fires); solo
// play waits for the host's explicit ack without a fallback. Caller holds
// the room lock.
func (m *Manager) showScoreboard(room *Room) {
	m.setPhase(room, types.PhaseScoreboard)

	sorted := playersByScoreDescending(room.connectedPlayers())
	solo := len(sorted) <= 1

	ttsURL := ""
	text := ""
	if !solo {
		text = scoreboardNarration(sorted, room.State.CurrentRound, room.State.SnippetIndex)
		if m.tts != nil {
			key := fmt.Sprintf("scoreboard-%s-%d", room.Code, room.State.CurrentRound)
			url, err := m.tts.Generate(context.Background(), text, key)
			if err != nil {
				logging.LogTTSEvent("tts_unavailable", key, map[string]interface{}{
					"error": err.Error(),
				})
			}
			ttsURL = url
		}
	}

	m.emit(room, "scoreboard_announcement", gin.H{
		"ttsUrl": ttsURL,
		"text":   text,
	})
	m.broadcast(room)

	if solo {
		// No auto-advance: the host continues when ready.
		room.gates["scoreboard_ready"] = &readyGate{
			acked: make(map[string]bool),
			fn:    func() { m.advanceRound(room) },
		}
		return
	}

	m.installGate(room, "scoreboard_ready", ScoreboardMaxWait, func() {
		m.advanceRound(room)
	})
}

func playersByScoreDescending(players []*Player) []*Player {
	sorted := append([]*Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// scoreboardNarration builds the German moderator line for the standings.
// The template is chosen by the round's snippet index, so every client and
// the TTS cache see the same phrasing for a given room and round.
func scoreboardNarration(sorted []*Player, round, snippetIndex int) string {
	leader := sorted[0]
	second := sorted[1]
	gap := leader.Score - second.Score

	var templates []string
	switch {
	case gap == 0:
		templates = []string{
			fmt.Sprintf("Unglaublich! %s und %s liegen mit %d Punkten gleichauf an der Spitze!", leader.Name, second.Name, leader.Score),
			fmt.Sprintf("Punktgleichstand an der Spitze! %s und %s haben beide %d Punkte.", leader.Name, second.Name, leader.Score),
		}
	case gap <= 100:
		templates = []string{
			fmt.Sprintf("Was für ein Kopf-an-Kopf-Rennen! %s führt mit nur %d Punkten Vorsprung vor %s.", leader.Name, gap, second.Name),
			fmt.Sprintf("Es bleibt spannend! %s liegt knapp vor %s, nur %d Punkte trennen die beiden.", leader.Name, second.Name, gap),
		}
	default:
		templates = []string{
			fmt.Sprintf("Nach Runde %d führt %s souverän mit %d Punkten!", round, leader.Name, leader.Score),
			fmt.Sprintf("%s dominiert das Spiel mit %d Punkten. %s liegt %d Punkte zurück.", leader.Name, leader.Score, second.Name, gap),
			fmt.Sprintf("Die Führung geht an %s mit starken %d Punkten!", leader.Name, leader.Score),
		}
	}

	intro := fmt.Sprintf("Das war Runde %d! ", round)
	return intro + templates[snippetIndex%len(templates)]
}
