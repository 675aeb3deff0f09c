package game

import (
	"fmt"
	"sync"

	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/types"
)

// recordedEvent is one captured transport emission
type recordedEvent struct {
	target  string
	event   string
	payload map[string]interface{}
}

// fakeTransport records everything the manager emits. Timer callbacks emit
// from their own goroutines, so access is locked.
type fakeTransport struct {
	mu         sync.Mutex
	broadcasts []recordedEvent
	direct     []recordedEvent
}

func (f *fakeTransport) Subscribe(socketID, roomCode string)   {}
func (f *fakeTransport) Unsubscribe(socketID, roomCode string) {}

func (f *fakeTransport) BroadcastToRoom(roomCode, event string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, recordedEvent{target: roomCode, event: event, payload: payload})
}

func (f *fakeTransport) SendToSocket(socketID, event string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, recordedEvent{target: socketID, event: event, payload: payload})
}

// events returns all broadcasts with the given event name
func (f *fakeTransport) events(name string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.broadcasts {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

// lastEvent returns the most recent broadcast with the given name, or nil
func (f *fakeTransport) lastEvent(name string) *recordedEvent {
	evs := f.events(name)
	if len(evs) == 0 {
		return nil
	}
	return &evs[len(evs)-1]
}

// directTo returns all targeted sends to one socket
func (f *fakeTransport) directTo(socketID string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.direct {
		if e.target == socketID {
			out = append(out, e)
		}
	}
	return out
}

// stubStore is a deterministic in-memory QuestionStore: random selections
// return items in declaration order.
type stubStore struct {
	categories []*database.Category
	questions  []*database.Question
}

func (s *stubStore) Close() error { return nil }

func (s *stubStore) ListCategories() ([]*database.Category, error) {
	return s.categories, nil
}

func (s *stubStore) GetCategory(id string) (*database.Category, error) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category not found: %s", id)
}

func (s *stubStore) RandomCategories(count int) ([]*database.Category, error) {
	out := append([]*database.Category(nil), s.categories...)
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (s *stubStore) GetQuestion(id string) (*database.Question, error) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, fmt.Errorf("question not found: %s", id)
}

func (s *stubStore) RandomQuestions(categoryID string, qType types.QuestionType, count int, exclude map[string]bool) ([]*database.Question, error) {
	var out []*database.Question
	for _, q := range s.questions {
		if exclude[q.ID] {
			continue
		}
		if categoryID != "" && q.CategoryID != categoryID {
			continue
		}
		if qType == types.QuestionChoice {
			if q.Type != types.QuestionChoice && q.Type != types.QuestionTrueFalse {
				continue
			}
		} else if q.Type != qType {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

func testCategories(n int) []*database.Category {
	cats := make([]*database.Category, n)
	for i := range cats {
		cats[i] = &database.Category{
			ID:       fmt.Sprintf("cat-%d", i+1),
			Slug:     fmt.Sprintf("cat-%d", i+1),
			Name:     fmt.Sprintf("Category %d", i+1),
			IsActive: true,
		}
	}
	return cats
}

func choiceQuestion(id, catID string) *database.Question {
	return &database.Question{
		ID:         id,
		CategoryID: catID,
		Type:       types.QuestionChoice,
		Text:       "Which planet is known as the red planet?",
		Choice: &database.ChoiceContent{
			CorrectAnswer:    "Mars",
			IncorrectAnswers: []string{"Venus", "Jupiter", "Mercury"},
		},
	}
}

func estimationQuestion(id, catID string) *database.Question {
	return &database.Question{
		ID:         id,
		CategoryID: catID,
		Type:       types.QuestionEstimation,
		Text:       "How tall is the Eiffel Tower in meters?",
		Estimation: &database.EstimationContent{
			CorrectValue: 330,
			Unit:         "m",
		},
	}
}

func hotButtonQuestion(id, text, answer string) *database.Question {
	return &database.Question{
		ID:   id,
		Type: types.QuestionHotButton,
		Text: text,
		HotButton: &database.HotButtonContent{
			CorrectAnswer: answer,
			PointsCorrect: 200,
			PointsWrong:   -100,
			// effectively never ticks during a test
			RevealSpeedMS: 600000,
		},
	}
}

func collectiveQuestion(id string, displays ...string) *database.Question {
	items := make([]database.ListItem, len(displays))
	for i, d := range displays {
		items[i] = database.ListItem{ID: fmt.Sprintf("%s-item-%d", id, i+1), Display: d}
	}
	return &database.Question{
		ID:   id,
		Type: types.QuestionCollectiveList,
		Text: "Nennt deutsche Bundesländer",
		CollectiveList: &database.CollectiveListContent{
			Topic:            "Bundesländer",
			Items:            items,
			TimePerTurn:      15,
			PointsPerCorrect: 50,
			FuzzyThreshold:   0.8,
		},
	}
}

func newTestManager(store database.QuestionStore) (*Manager, *fakeTransport) {
	tr := &fakeTransport{}
	return NewManager(store, nil, tr, false), tr
}

// makeRoom creates a room with connected players on sockets "sock-1",
// "sock-2", ... The first player is the host.
func makeRoom(m *Manager, names ...string) *Room {
	room := m.rooms.Create(DefaultSettings())
	room.mu.Lock()
	for i, name := range names {
		p := m.addPlayer(room, fmt.Sprintf("sock-%d", i+1), name, "", false)
		if i == 0 {
			p.IsHost = true
			room.HostID = p.ID
		}
	}
	room.mu.Unlock()
	return room
}
