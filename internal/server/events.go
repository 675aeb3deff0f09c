package server

import (
	"encoding/json"
	"fmt"

	"github.com/neo/quizparty_backend/internal/game"
	"github.com/neo/quizparty_backend/internal/logging"
)

// inboundEvent is the union of all client → server message shapes. Unused
// fields stay at their zero value; the manager's handlers validate per type.
type inboundEvent struct {
	Type            string         `json:"type"`
	Code            string         `json:"code,omitempty"`
	Name            string         `json:"name,omitempty"`
	AvatarSeed      string         `json:"avatarSeed,omitempty"`
	PlayerID        string         `json:"playerId,omitempty"`
	Settings        *game.Settings `json:"settings,omitempty"`
	CategoryID      string         `json:"categoryId,omitempty"`
	Choice          string         `json:"choice,omitempty"`
	AnswerIndex     *int           `json:"answerIndex,omitempty"`
	EstimationValue *float64       `json:"estimationValue,omitempty"`
	Text            string         `json:"text,omitempty"`
	Vote            string         `json:"vote,omitempty"`
	Mode            string         `json:"mode,omitempty"`
}

// dispatch routes one inbound frame to the matching manager operation.
// Malformed frames and unknown types are dropped with a log line. The read
// pump runs outside gin's recovery, so a panicking handler is contained here
// per message instead of killing the process.
func (s *Server) dispatch(socketID string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("panic in event handler", map[string]interface{}{
				"socket_id": socketID,
				"panic":     fmt.Sprint(r),
			})
		}
	}()

	var ev inboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		logging.LogWebSocketEvent("invalid_input", "", socketID, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	switch ev.Type {
	case "create_room":
		settings := game.DefaultSettings()
		if ev.Settings != nil {
			settings = *ev.Settings
		}
		s.manager.CreateRoom(socketID, ev.Name, ev.AvatarSeed, settings)
	case "join_room":
		s.manager.JoinRoom(socketID, ev.Code, ev.Name, ev.AvatarSeed)
	case "reconnect":
		s.manager.Reconnect(socketID, ev.Code, ev.PlayerID)
	case "leave_room":
		s.manager.LeaveRoom(socketID)
	case "start_game":
		s.manager.StartGame(socketID)
	case "game_start_ready":
		s.manager.GameStartReady(socketID)
	case "intro_ready":
		s.manager.IntroReady(socketID)
	case "scoreboard_ready":
		s.manager.ScoreboardReady(socketID)
	case "submit_vote":
		s.manager.SubmitVote(socketID, ev.CategoryID)
	case "pick_category":
		s.manager.PickCategory(socketID, ev.CategoryID)
	case "dice_royale_roll":
		s.manager.DiceRoll(socketID)
	case "rps_choice":
		s.manager.RPSChoice(socketID, ev.Choice)
	case "submit_answer":
		s.manager.SubmitAnswer(socketID, ev.AnswerIndex, ev.EstimationValue)
	case "hot_button_buzz":
		s.manager.HotButtonBuzz(socketID)
	case "hot_button_answer":
		s.manager.HotButtonAnswer(socketID, ev.Text)
	case "submit_bonus_round_answer":
		s.manager.SubmitBonusAnswer(socketID, ev.Text)
	case "skip_bonus_round":
		s.manager.SkipBonusRound(socketID)
	case "rematch_vote":
		s.manager.RematchVote(socketID, ev.Vote == "yes")
	case "add_bot":
		s.manager.AddBot(socketID)
	case "force_category_mode":
		s.manager.ForceCategoryMode(socketID, ev.Mode)
	default:
		logging.LogWebSocketEvent("unknown_event", "", socketID, map[string]interface{}{
			"event_type": ev.Type,
		})
	}
}
