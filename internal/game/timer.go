package game

import (
	"fmt"
	"time"

	"github.com/neo/quizparty_backend/internal/logging"
)

// after schedules fn against the room's current phase token. The callback
// re-acquires the room lock and no-ops when the room closed or the phase
// moved on; a stale fire is expected and only logged. A panicking callback
// must not take the process down with it. Caller holds the room lock.
func (m *Manager) after(room *Room, d time.Duration, fn func()) *time.Timer {
	token := room.State.PhaseToken
	return time.AfterFunc(d, func() {
		room.mu.Lock()
		defer room.mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				logging.Error("panic in timer callback", map[string]interface{}{
					"room_code": room.Code,
					"phase":     string(room.State.Phase),
					"panic":     fmt.Sprint(r),
				})
			}
		}()

		if room.closed || room.State.PhaseToken != token {
			logging.LogTimerEvent("stale_timer", room.Code, map[string]interface{}{
				"armed_token":   token,
				"current_token": room.State.PhaseToken,
			})
			return
		}
		fn()
	})
}

// afterIf is after with an extra validity check for timers living inside a
// single phase (turn number, hot-button sub-phase). valid runs under the room
// lock.
func (m *Manager) afterIf(room *Room, d time.Duration, valid func() bool, fn func()) *time.Timer {
	return m.after(room, d, func() {
		if !valid() {
			logging.LogTimerEvent("stale_timer", room.Code, nil)
			return
		}
		fn()
	})
}

// setDeadline stamps the broadcastable deadline and returns it. Caller holds
// the room lock.
func (r *Room) setDeadline(d time.Duration) time.Time {
	end := time.Now().Add(d)
	r.State.TimerEnd = &end
	return end
}

// readyGate is a one-shot continuation waiting for every connected human to
// acknowledge a client-side animation or narration, with a fallback timeout.
// Either trigger fires the continuation exactly once.
type readyGate struct {
	acked map[string]bool
	fired bool
	timer *time.Timer
	fn    func()
}

// installGate arms a named gate. Caller holds the room lock.
func (m *Manager) installGate(room *Room, name string, maxWait time.Duration, fn func()) {
	if prev, ok := room.gates[name]; ok && prev.timer != nil {
		prev.timer.Stop()
	}

	gate := &readyGate{
		acked: make(map[string]bool),
		fn:    fn,
	}
	room.gates[name] = gate

	// Bot-only rooms have nobody to wait for.
	if len(room.connectedHumans()) == 0 {
		m.fireGate(room, name)
		return
	}

	gate.timer = m.after(room, maxWait, func() {
		logging.LogTimerEvent("gate_fallback", room.Code, map[string]interface{}{
			"gate": name,
		})
		m.fireGate(room, name)
	})
}

// ackGate records one player's acknowledgment and fires the gate once every
// connected human has acked. Caller holds the room lock.
func (m *Manager) ackGate(room *Room, name, playerID string) {
	gate, ok := room.gates[name]
	if !ok || gate.fired {
		return
	}
	gate.acked[playerID] = true

	for _, p := range room.connectedHumans() {
		if !gate.acked[p.ID] {
			return
		}
	}
	m.fireGate(room, name)
}

// fireGate runs the gate's continuation at most once. Caller holds the room
// lock.
func (m *Manager) fireGate(room *Room, name string) {
	gate, ok := room.gates[name]
	if !ok || gate.fired {
		return
	}
	gate.fired = true
	if gate.timer != nil {
		gate.timer.Stop()
	}
	delete(room.gates, name)
	gate.fn()
}

// clearGates drops all pending gates without firing them. Caller holds the
// room lock.
func (r *Room) clearGates() {
	for name, gate := range r.gates {
		gate.fired = true
		if gate.timer != nil {
			gate.timer.Stop()
		}
		delete(r.gates, name)
	}
}
