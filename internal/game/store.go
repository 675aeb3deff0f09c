package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/neo/quizparty_backend/internal/logging"
)

// RoomStore is the process-wide mapping room-code → room. Only the store
// synchronises its internal map; per-room logic runs under each room's own
// lock.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *rand.Rand
}

// NewRoomStore creates an empty room store
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create allocates a room under a fresh unique code
func (s *RoomStore) Create(settings Settings) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.generateCode()
	for s.rooms[code] != nil {
		code = s.generateCode()
	}

	room := newRoom(code, settings, s.rng.Int63())
	s.rooms[code] = room

	logging.LogRoomEvent("room_created", code, map[string]interface{}{
		"rooms_total": len(s.rooms),
	})

	return room
}

// Get looks up a room by code (case-insensitive)
func (s *RoomStore) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[strings.ToUpper(code)]
	return room, ok
}

// Delete removes a room from the store
func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[code]; ok {
		delete(s.rooms, code)
		logging.LogRoomEvent("room_deleted", code, map[string]interface{}{
			"rooms_total": len(s.rooms),
		})
	}
}

// Count returns the number of live rooms
func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rooms)
}

// generateCode draws RoomCodeLength characters uniformly from the code
// alphabet. Caller holds the store lock.
func (s *RoomStore) generateCode() string {
	var b strings.Builder
	for i := 0; i < RoomCodeLength; i++ {
		b.WriteByte(RoomCodeAlphabet[s.rng.Intn(len(RoomCodeAlphabet))])
	}
	return b.String()
}

// newPlayerID allocates an opaque player id: "p_" + 9 random lowercase
// alphanumerics.
func newPlayerID(rng *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	b.WriteString("p_")
	for i := 0; i < 9; i++ {
		b.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return b.String()
}

// ErrRoomNotFound and friends are the join failure codes replied to senders
var (
	ErrRoomNotFound = fmt.Errorf("ROOM_NOT_FOUND")
	ErrRoomFull     = fmt.Errorf("ROOM_FULL")
	ErrGameRunning  = fmt.Errorf("ROOM_GAME_RUNNING")
	ErrInvalidName  = fmt.Errorf("INVALID_NAME")
)
