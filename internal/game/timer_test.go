package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/neo/quizparty_backend/internal/types"
)

func TestTimerCallbackPanicIsContained(t *testing.T) {
	m, _ := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice")

	room.mu.Lock()
	m.after(room, 5*time.Millisecond, func() {
		panic("boom")
	})
	room.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	// the room survives the contained panic and stays usable
	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, types.PhaseLobby, room.State.Phase)
	assert.False(t, room.closed)
	assert.Len(t, room.Players, 1)
}

func TestAfterStaleTokenSkipsCallback(t *testing.T) {
	m, _ := newTestManager(&stubStore{})
	room := makeRoom(m, "Alice")

	fired := false
	room.mu.Lock()
	m.after(room, 5*time.Millisecond, func() {
		fired = true
	})
	room.State.PhaseToken++
	room.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.False(t, fired)
}
