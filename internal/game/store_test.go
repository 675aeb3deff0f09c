package game

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCodeFormat(t *testing.T) {
	store := NewRoomStore()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := store.Create(DefaultSettings())
		assert.Len(t, room.Code, RoomCodeLength)
		for _, c := range room.Code {
			assert.Contains(t, RoomCodeAlphabet, string(c))
		}
		assert.False(t, seen[room.Code], "room code %s issued twice", room.Code)
		seen[room.Code] = true
	}
	assert.Equal(t, 50, store.Count())
}

func TestRoomCodeAlphabetAvoidsAmbiguousCharacters(t *testing.T) {
	for _, c := range "IO01" {
		assert.NotContains(t, RoomCodeAlphabet, string(c))
	}
}

func TestRoomStoreGetIsCaseInsensitive(t *testing.T) {
	store := NewRoomStore()
	room := store.Create(DefaultSettings())

	found, ok := store.Get(strings.ToLower(room.Code))
	require.True(t, ok)
	assert.Equal(t, room, found)

	_, ok = store.Get("ZZZZ")
	assert.False(t, ok)
}

func TestRoomStoreDelete(t *testing.T) {
	store := NewRoomStore()
	room := store.Create(DefaultSettings())

	store.Delete(room.Code)
	_, ok := store.Get(room.Code)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count())

	// deleting twice is harmless
	store.Delete(room.Code)
}

func TestNewPlayerIDFormat(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newPlayerID(rng)
		assert.True(t, strings.HasPrefix(id, "p_"))
		assert.Len(t, id, 11)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSettingsNormalizeClampsRanges(t *testing.T) {
	s := Settings{
		MaxRounds:                  99,
		QuestionsPerRound:          0,
		TimePerQuestion:            1,
		BonusRoundChance:           150,
		HotButtonQuestionsPerRound: 0,
	}
	s.Normalize()

	assert.Equal(t, 20, s.MaxRounds)
	assert.Equal(t, 1, s.QuestionsPerRound)
	assert.Equal(t, 5, s.TimePerQuestion)
	assert.Equal(t, 100, s.BonusRoundChance)
	assert.Equal(t, 1, s.HotButtonQuestionsPerRound)
}

func TestSettingsNormalizeCustomModeOverridesMaxRounds(t *testing.T) {
	s := DefaultSettings()
	s.CustomMode = true
	s.CustomRounds = []CustomRound{{Kind: "question_round"}, {Kind: "hot_button"}}
	s.Normalize()

	assert.Equal(t, 2, s.MaxRounds)
	assert.True(t, s.CustomMode)

	// custom mode without rounds falls back to a regular schedule
	s2 := DefaultSettings()
	s2.CustomMode = true
	s2.Normalize()
	assert.False(t, s2.CustomMode)
}
