package game

import (
	"time"
)

// Room codes are drawn from an alphabet without I, O, 0 and 1 so codes stay
// unambiguous when read aloud or typed from another screen.
const (
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeLength   = 4
)

const (
	// MaxPlayers caps the number of player slots per room
	MaxPlayers = 8
	// VotingCategoryCount is how many categories a round is seeded with
	VotingCategoryCount = 8
)

// Client-ack fallbacks: the server waits for the client-side animation or
// narration to finish, but never longer than these.
const (
	GameStartMaxWait  = 10 * time.Second
	IntroMaxWait      = 30 * time.Second
	ScoreboardMaxWait = 30 * time.Second
)

// Phase timing
const (
	AnnouncementHold     = 4 * time.Second
	CategorySelectedHold = 2 * time.Second
	RevealHold           = 6 * time.Second
	FinalResultsHold     = 12 * time.Second
)

// Category selection
const (
	VotingDuration     = 15 * time.Second
	TiebreakerHold     = 3 * time.Second
	WheelSpinHold      = 5500 * time.Millisecond
	PickDuration       = 15 * time.Second
	LoserPickCooldown  = 2
	DiceRollDuration   = 15 * time.Second
	DiceRerollDuration = 10 * time.Second
	DiceTieHold        = 2500 * time.Millisecond
	RPSRoundDuration   = 10 * time.Second
	RPSResultHold      = 2500 * time.Millisecond
)

// Collective-list bonus
const (
	CorrectAnswerDelay = 2 * time.Second
	EliminationHold    = 2500 * time.Millisecond
	WinnerBonusSolo    = 200
	WinnerBonusMulti   = 100
)

// Hot-button bonus
const (
	HotButtonIntroHold       = 6 * time.Second
	DefaultRevealSpeed       = 50 * time.Millisecond
	DefaultBuzzerTimeout     = 25 * time.Second
	DefaultAnswerTimeout     = 15 * time.Second
	DefaultMaxRebuzzAttempts = 2
	RebuzzDelay              = 2 * time.Second
	ResultDisplay            = 5 * time.Second
)

// Rematch and cleanup
const (
	RematchVoteDuration   = 30 * time.Second
	RoomCloseDelay        = 5 * time.Second
	DisconnectGraceWindow = 5 * time.Minute
)

// DefaultFuzzyThreshold applies when a collective-list question carries none
const DefaultFuzzyThreshold = 0.8
