package game

import (
	"fmt"
	"time"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// Bot names cycle when the host keeps adding them
var botNames = []string{"Robo-Rita", "Quiz-Quirin", "Blech-Bernd", "Daten-Doris", "Chip-Charlie", "Logik-Lotte", "Pixel-Paul"}

// AddBot adds a simulated player to a lobby. Development servers only.
func (m *Manager) AddBot(socketID string) {
	m.withRoom(socketID, func(room *Room, player *Player) {
		if !m.devMode || !player.IsHost {
			return
		}
		if room.State.Phase != types.PhaseLobby || len(room.Players) >= MaxPlayers {
			return
		}

		name := botNames[len(room.Players)%len(botNames)]
		bot := m.addPlayer(room, "", name, fmt.Sprintf("bot-%d", room.rng.Intn(10000)), true)

		logging.LogRoomEvent("bot_added", room.Code, map[string]interface{}{
			"player_id": bot.ID,
			"name":      bot.Name,
		})
		m.broadcast(room)
	})
}

// driveBots schedules pending bot inputs for the current phase. Called after
// every broadcast; the key set makes each decision fire once per context.
// Caller holds the room lock.
func (m *Manager) driveBots(room *Room) {
	for _, p := range room.Players {
		if p.IsBot && p.IsConnected {
			m.driveBot(room, p)
		}
	}
}

func (m *Manager) driveBot(room *Room, bot *Player) {
	state := room.State
	token := state.PhaseToken

	switch state.Phase {
	case types.PhaseCategoryVoting:
		m.scheduleBot(room, bot, fmt.Sprintf("vote:%d", token), m.botDelay(room, 1, 6), func(r *Room, b *Player) {
			m.handleVote(r, b, r.randomVotingCategory().ID)
		})

	case types.PhaseCategoryLosersPick:
		if state.LoserPickPlayerID == bot.ID {
			m.scheduleBot(room, bot, fmt.Sprintf("pick:%d", token), m.botDelay(room, 2, 6), func(r *Room, b *Player) {
				m.handlePickCategory(r, b, r.randomVotingCategory().ID)
			})
		}

	case types.PhaseCategoryDiceRoyale:
		dice := state.Dice
		if dice == nil {
			return
		}
		switch dice.Phase {
		case dicePhaseRolling:
			if dice.eligible(bot.ID) && dice.PlayerRolls[bot.ID] == nil {
				m.scheduleBot(room, bot, fmt.Sprintf("dice:%d:%d", token, dice.Round), m.botDelay(room, 1, 5), func(r *Room, b *Player) {
					m.handleDiceRoll(r, b)
				})
			}
		case dicePhaseResult:
			if dice.WinnerID == bot.ID {
				m.scheduleBot(room, bot, fmt.Sprintf("dicepick:%d", token), m.botDelay(room, 2, 6), func(r *Room, b *Player) {
					m.handlePickCategory(r, b, r.randomVotingCategory().ID)
				})
			}
		}

	case types.PhaseCategoryRPSDuel:
		duel := state.RPS
		if duel == nil {
			return
		}
		switch duel.Phase {
		case rpsPhaseChoosing:
			if duel.isDuelist(bot.ID) {
				if _, chosen := duel.Choices[bot.ID]; !chosen {
					m.scheduleBot(room, bot, fmt.Sprintf("rps:%d:%d", token, duel.Round), m.botDelay(room, 1, 5), func(r *Room, b *Player) {
						options := []string{"rock", "paper", "scissors"}
						m.handleRPSChoice(r, b, options[r.rng.Intn(len(options))])
					})
				}
			}
		case rpsPhasePick:
			if duel.WinnerID == bot.ID {
				m.scheduleBot(room, bot, fmt.Sprintf("rpspick:%d", token), m.botDelay(room, 2, 6), func(r *Room, b *Player) {
					m.handlePickCategory(r, b, r.randomVotingCategory().ID)
				})
			}
		}

	case types.PhaseQuestion, types.PhaseEstimation:
		if _, answered := state.Answers[bot.ID]; answered || state.Current == nil {
			return
		}
		maxDelay := int(state.Current.Window/time.Second) - 1
		if maxDelay > 8 {
			maxDelay = 8
		}
		if maxDelay < 2 {
			maxDelay = 2
		}
		m.scheduleBot(room, bot, fmt.Sprintf("answer:%d", token), m.botDelay(room, 1, maxDelay), func(r *Room, b *Player) {
			q := r.State.Current
			if q == nil {
				return
			}
			if q.Type == types.QuestionEstimation {
				guess := q.CorrectValue * (0.5 + r.rng.Float64())
				m.handleAnswer(r, b, nil, &guess)
				return
			}
			idx := r.rng.Intn(len(q.Answers))
			m.handleAnswer(r, b, &idx, nil)
		})

	case types.PhaseBonusRound:
		m.driveBotBonus(room, bot)

	case types.PhaseRematchVoting:
		m.scheduleBot(room, bot, fmt.Sprintf("rematch:%d", token), m.botDelay(room, 2, 6), func(r *Room, b *Player) {
			m.handleRematchVote(r, b, r.rng.Intn(100) < 70)
		})
	}
}

func (m *Manager) driveBotBonus(room *Room, bot *Player) {
	state := room.State
	token := state.PhaseToken

	if cl := collectiveOf(room); cl != nil {
		if cl.Phase != collectivePhasePlaying || cl.currentPlayerID() != bot.ID {
			return
		}
		m.scheduleBot(room, bot, fmt.Sprintf("cl:%d:%d", token, cl.TurnNumber), m.botDelay(room, 2, 8), func(r *Room, b *Player) {
			c := collectiveOf(r)
			if c == nil {
				return
			}
			// Mostly right, sometimes a dud.
			if r.rng.Intn(100) < 70 {
				for _, item := range c.Items {
					if !c.GuessedIDs[item.ID] {
						m.handleBonusAnswer(r, b, item.Display)
						return
					}
				}
			}
			m.handleBonusAnswer(r, b, "keine Ahnung")
		})
		return
	}

	if hb := hotButtonOf(room); hb != nil {
		switch hb.Phase {
		case hotButtonPhaseReveal:
			if hb.AttemptedPlayerIDs[bot.ID] {
				return
			}
			m.scheduleBot(room, bot, fmt.Sprintf("hbbuzz:%d:%d", token, hb.Seq), m.botDelay(room, 2, 10), func(r *Room, b *Player) {
				m.handleBuzz(r, b)
			})
		case hotButtonPhaseAnswering:
			if hb.BuzzedPlayerID != bot.ID {
				return
			}
			m.scheduleBot(room, bot, fmt.Sprintf("hbans:%d:%d", token, hb.Seq), m.botDelay(room, 1, 4), func(r *Room, b *Player) {
				h := hotButtonOf(r)
				if h == nil {
					return
				}
				answer := "keine Ahnung"
				if r.rng.Intn(100) < 50 {
					answer = h.currentQuestion().HotButton.CorrectAnswer
				}
				m.handleHotButtonAnswer(r, b, answer)
			})
		}
	}
}

// scheduleBot arms one deduplicated bot action. The fired closure runs under
// the room lock with the phase token already validated; the handlers'
// own guards cover everything that changed since scheduling.
func (m *Manager) scheduleBot(room *Room, bot *Player, key string, delay time.Duration, action func(*Room, *Player)) {
	key = bot.ID + ":" + key
	if room.botKeys[key] {
		return
	}
	room.botKeys[key] = true

	m.after(room, delay, func() {
		if !bot.IsConnected {
			return
		}
		action(room, bot)
	})
}

func (m *Manager) botDelay(room *Room, minSec, maxSec int) time.Duration {
	if maxSec <= minSec {
		return time.Duration(minSec) * time.Second
	}
	spread := (maxSec - minSec) * 1000
	return time.Duration(minSec)*time.Second + time.Duration(room.rng.Intn(spread))*time.Millisecond
}
