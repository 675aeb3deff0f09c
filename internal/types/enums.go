package types

import (
	"fmt"
)

// Phase represents a room's current lifecycle stage
type Phase string

const (
	PhaseLobby                  Phase = "lobby"
	PhaseRoundAnnouncement      Phase = "round_announcement"
	PhaseCategoryAnnouncement   Phase = "category_announcement"
	PhaseCategoryVoting         Phase = "category_voting"
	PhaseCategoryWheel          Phase = "category_wheel"
	PhaseCategoryLosersPick     Phase = "category_losers_pick"
	PhaseCategoryDiceRoyale     Phase = "category_dice_royale"
	PhaseCategoryRPSDuel        Phase = "category_rps_duel"
	PhaseQuestion               Phase = "question"
	PhaseRevealing              Phase = "revealing"
	PhaseEstimation             Phase = "estimation"
	PhaseEstimationReveal       Phase = "estimation_reveal"
	PhaseScoreboard             Phase = "scoreboard"
	PhaseBonusRoundAnnouncement Phase = "bonus_round_announcement"
	PhaseBonusRound             Phase = "bonus_round"
	PhaseBonusRoundResult       Phase = "bonus_round_result"
	PhaseFinal                  Phase = "final"
	PhaseRematchVoting          Phase = "rematch_voting"
)

// String converts the enum to string
func (p Phase) String() string {
	return string(p)
}

// QuestionType tags the content variant of a question
type QuestionType string

const (
	QuestionChoice         QuestionType = "choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionEstimation     QuestionType = "estimation"
	QuestionHotButton      QuestionType = "hot_button"
	QuestionCollectiveList QuestionType = "collective_list"
)

// String converts the enum to string
func (q QuestionType) String() string {
	return string(q)
}

// CategoryMode represents how the next round's category is chosen
type CategoryMode string

const (
	ModeVoting     CategoryMode = "voting"
	ModeWheel      CategoryMode = "wheel"
	ModeLosersPick CategoryMode = "losers_pick"
	ModeDiceRoyale CategoryMode = "dice_royale"
	ModeRPSDuel    CategoryMode = "rps_duel"
)

var (
	// AllCategoryModes contains all valid selection modes
	AllCategoryModes = []CategoryMode{
		ModeVoting,
		ModeWheel,
		ModeLosersPick,
		ModeDiceRoyale,
		ModeRPSDuel,
	}

	categoryModeMap = map[string]CategoryMode{
		string(ModeVoting):     ModeVoting,
		string(ModeWheel):      ModeWheel,
		string(ModeLosersPick): ModeLosersPick,
		string(ModeDiceRoyale): ModeDiceRoyale,
		string(ModeRPSDuel):    ModeRPSDuel,
	}
)

// ErrInvalidCategoryMode is returned for unknown mode strings
var ErrInvalidCategoryMode = fmt.Errorf("invalid category mode")

// IsValid checks if the CategoryMode is valid
func (m CategoryMode) IsValid() bool {
	_, ok := categoryModeMap[string(m)]
	return ok
}

// String converts the enum to string
func (m CategoryMode) String() string {
	return string(m)
}

// ParseCategoryMode parses a string into a CategoryMode
func ParseCategoryMode(s string) (CategoryMode, error) {
	if mode, ok := categoryModeMap[s]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidCategoryMode, s)
}

// RoundKind is the schedule entry type for one round of a match
type RoundKind string

const (
	RoundQuestion       RoundKind = "question_round"
	RoundHotButton      RoundKind = "hot_button"
	RoundCollectiveList RoundKind = "collective_list"
)

// String converts the enum to string
func (k RoundKind) String() string {
	return string(k)
}

// BonusType tags which bonus sub-game a bonus round runs
type BonusType string

const (
	BonusHotButton      BonusType = "hot_button"
	BonusCollectiveList BonusType = "collective_list"
)

// String converts the enum to string
func (b BonusType) String() string {
	return string(b)
}

// EliminationReason explains why a collective-list player was knocked out
type EliminationReason string

const (
	EliminatedWrong        EliminationReason = "wrong"
	EliminatedSkip         EliminationReason = "skip"
	EliminatedTimeout      EliminationReason = "timeout"
	EliminatedDisconnected EliminationReason = "disconnect"
)

// String converts the enum to string
func (r EliminationReason) String() string {
	return string(r)
}

// Voice represents available TTS voices
type Voice string

const (
	// VoiceAlloy - A versatile, neutral voice that maintains clarity and engagement
	VoiceAlloy Voice = "alloy"

	// VoiceEcho - A baritone voice with depth and warmth, good for narration
	VoiceEcho Voice = "echo"

	// VoiceFable - A youthful voice with a bright and optimistic tone
	VoiceFable Voice = "fable"

	// VoiceOnyx - A deep and authoritative male voice with gravitas
	VoiceOnyx Voice = "onyx"

	// VoiceNova - A feminine voice with a professional and welcoming tone
	VoiceNova Voice = "nova"

	// VoiceShimmer - A clear, energetic voice with a friendly character
	VoiceShimmer Voice = "shimmer"
)

var (
	// AllVoices contains all valid voices
	AllVoices = []Voice{
		VoiceAlloy,
		VoiceEcho,
		VoiceFable,
		VoiceOnyx,
		VoiceNova,
		VoiceShimmer,
	}

	voiceMap = map[string]Voice{
		string(VoiceAlloy):   VoiceAlloy,
		string(VoiceEcho):    VoiceEcho,
		string(VoiceFable):   VoiceFable,
		string(VoiceOnyx):    VoiceOnyx,
		string(VoiceNova):    VoiceNova,
		string(VoiceShimmer): VoiceShimmer,
	}
)

// ErrInvalidVoice is returned for unknown voice strings
var ErrInvalidVoice = fmt.Errorf("invalid voice")

// IsValid checks if the Voice is valid
func (v Voice) IsValid() bool {
	_, ok := voiceMap[string(v)]
	return ok
}

// String converts the enum to string
func (v Voice) String() string {
	return string(v)
}

// ParseVoice parses a string into a Voice
func ParseVoice(s string) (Voice, error) {
	if voice, ok := voiceMap[s]; ok {
		return voice, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidVoice, s)
}
