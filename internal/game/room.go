package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/scoring"
	"github.com/neo/quizparty_backend/internal/types"
)

// Player is one slot in a room. The slot outlives disconnects: only SocketID
// and IsConnected change when the transport identity comes and goes.
type Player struct {
	ID          string `json:"id"`
	SocketID    string `json:"-"`
	Name        string `json:"name"`
	AvatarSeed  string `json:"avatarSeed"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
	IsBot       bool   `json:"isBot"`
	Score       int    `json:"score"`
}

// CustomRound is one entry of a custom match schedule
type CustomRound struct {
	Kind               types.RoundKind    `json:"kind"`
	CategoryMode       types.CategoryMode `json:"categoryMode,omitempty"`
	SpecificQuestionID string             `json:"specificQuestionId,omitempty"`
}

// Settings is the immutable-per-match configuration
type Settings struct {
	MaxRounds                  int           `json:"maxRounds"`
	QuestionsPerRound          int           `json:"questionsPerRound"`
	TimePerQuestion            int           `json:"timePerQuestion"`
	BonusRoundChance           int           `json:"bonusRoundChance"`
	FinalRoundAlwaysBonus      bool          `json:"finalRoundAlwaysBonus"`
	HotButtonQuestionsPerRound int           `json:"hotButtonQuestionsPerRound"`
	CustomMode                 bool          `json:"customMode"`
	CustomRounds               []CustomRound `json:"customRounds,omitempty"`
}

// DefaultSettings returns the settings a room starts with
func DefaultSettings() Settings {
	return Settings{
		MaxRounds:                  5,
		QuestionsPerRound:          4,
		TimePerQuestion:            20,
		BonusRoundChance:           25,
		FinalRoundAlwaysBonus:      false,
		HotButtonQuestionsPerRound: 3,
	}
}

// Normalize clamps all options into their recognized ranges
func (s *Settings) Normalize() {
	s.MaxRounds = clamp(s.MaxRounds, 1, 20)
	s.QuestionsPerRound = clamp(s.QuestionsPerRound, 1, 20)
	s.TimePerQuestion = clamp(s.TimePerQuestion, 5, 60)
	s.BonusRoundChance = clamp(s.BonusRoundChance, 0, 100)
	s.HotButtonQuestionsPerRound = clamp(s.HotButtonQuestionsPerRound, 1, 10)
	if s.CustomMode && len(s.CustomRounds) > 0 {
		if len(s.CustomRounds) > 20 {
			s.CustomRounds = s.CustomRounds[:20]
		}
		s.MaxRounds = len(s.CustomRounds)
	} else {
		s.CustomMode = false
		s.CustomRounds = nil
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PlayerAnswer records one player's submission for the current question
type PlayerAnswer struct {
	AnswerIndex     *int
	EstimationValue *float64
	ReceivedAt      time.Time
}

// QuestionView is the runtime form of the current question: choice answers
// are shuffled once on the server and the shuffled correct index recorded.
type QuestionView struct {
	ID           string
	Type         types.QuestionType
	Text         string
	Answers      []string
	CorrectIndex int
	CorrectValue float64
	Unit         string
	Explanation  string
	TTSURL       string
	StartedAt    time.Time
	Window       time.Duration
	Revealed     bool
	Awards       map[string]int
}

// roundPlan is one scheduled round of the match
type roundPlan struct {
	Kind               types.RoundKind
	CategoryMode       types.CategoryMode
	SpecificQuestionID string
}

// MatchState is the mutable match state of a room
type MatchState struct {
	Phase      types.Phase
	PhaseToken int

	CurrentRound         int
	RoundQuestions       []*database.Question
	CurrentQuestionIndex int
	Current              *QuestionView
	Answers              map[string]*PlayerAnswer
	TimerEnd             *time.Time

	UsedQuestionIDs      map[string]bool
	UsedBonusQuestionIDs map[string]bool
	UsedBonusTypes       map[types.BonusType]bool

	CategoryMode       types.CategoryMode
	VotingCategories   []*database.Category
	CategoryVotes      map[string]string
	SelectedCategory   *database.Category
	WheelSelectedIndex int
	LoserPickPlayerID  string
	LastLoserPickRound int
	Dice               *DiceRoyaleState
	RPS                *RPSDuelState

	Bonus *BonusState

	RematchVotes map[string]bool
	Stats        *scoring.MatchStatistics
	SnippetIndex int
}

func newMatchState() *MatchState {
	return &MatchState{
		Phase:                types.PhaseLobby,
		Answers:              make(map[string]*PlayerAnswer),
		UsedQuestionIDs:      make(map[string]bool),
		UsedBonusQuestionIDs: make(map[string]bool),
		UsedBonusTypes:       make(map[types.BonusType]bool),
		CategoryVotes:        make(map[string]string),
		RematchVotes:         make(map[string]bool),
		WheelSelectedIndex:   -1,
		Stats:                scoring.NewMatchStatistics(),
	}
}

// Room is an isolated match with its own players, phase machine and timers.
// All mutations happen under mu; timer callbacks re-acquire it and validate
// PhaseToken before acting.
type Room struct {
	mu sync.Mutex

	Code               string
	HostID             string
	Players            []*Player
	Settings           Settings
	State              *MatchState
	ForcedCategoryMode types.CategoryMode
	CreatedAt          time.Time

	plan                 []roundPlan
	explainedBonusIntros map[types.BonusType]bool
	gates                map[string]*readyGate
	botKeys              map[string]bool
	rng                  *rand.Rand
	closed               bool
}

func newRoom(code string, settings Settings, seed int64) *Room {
	return &Room{
		Code:                 code,
		Settings:             settings,
		State:                newMatchState(),
		CreatedAt:            time.Now(),
		explainedBonusIntros: make(map[types.BonusType]bool),
		gates:                make(map[string]*readyGate),
		botKeys:              make(map[string]bool),
		rng:                  rand.New(rand.NewSource(seed)),
	}
}

// PublicInfo is the pre-join projection served over HTTP
func (r *Room) PublicInfo() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]interface{}{
		"code":       r.Code,
		"players":    len(r.Players),
		"maxPlayers": MaxPlayers,
		"phase":      r.State.Phase,
		"joinable":   r.State.Phase == types.PhaseLobby && len(r.Players) < MaxPlayers,
	}
}

func (r *Room) playerByID(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerBySocket(socketID string) *Player {
	for _, p := range r.Players {
		if p.SocketID == socketID {
			return p
		}
	}
	return nil
}

// connectedPlayers returns connected players in insertion order
func (r *Room) connectedPlayers() []*Player {
	var out []*Player
	for _, p := range r.Players {
		if p.IsConnected {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// connectedHumans returns connected non-bot players, used by ready gates
func (r *Room) connectedHumans() []*Player {
	var out []*Player
	for _, p := range r.Players {
		if p.IsConnected && !p.IsBot {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) removePlayer(id string) {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return
		}
	}
}

// reassignHost makes the first connected player in insertion order the host.
// Returns the new host, or nil when nobody is connected.
func (r *Room) reassignHost() *Player {
	for _, p := range r.Players {
		p.IsHost = false
	}
	for _, p := range r.Players {
		if p.IsConnected {
			p.IsHost = true
			r.HostID = p.ID
			return p
		}
	}
	r.HostID = ""
	return nil
}
