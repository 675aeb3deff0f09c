package database

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/neo/quizparty_backend/internal/types"
)

// FileStore is a read-only, JSON-file-backed question store used as a
// fallback when no sqlite database is available (e.g. development setups).
type FileStore struct {
	mu         sync.RWMutex
	categories []*Category
	questions  []*Question
	rng        *rand.Rand
}

type fileStorePayload struct {
	Categories []*Category `json:"categories"`
	Questions  []*Question `json:"questions"`
}

// NewFileStore loads categories and questions from a single JSON file
func NewFileStore(path string, seed int64) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %v", err)
	}

	var payload fileStorePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse questions file: %v", err)
	}

	for _, q := range payload.Questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
	}

	return &FileStore{
		categories: payload.Categories,
		questions:  payload.Questions,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

func validateQuestion(q *Question) error {
	switch q.Type {
	case types.QuestionChoice, types.QuestionTrueFalse:
		if q.Choice == nil {
			return fmt.Errorf("question %s: missing choice content", q.ID)
		}
	case types.QuestionEstimation:
		if q.Estimation == nil {
			return fmt.Errorf("question %s: missing estimation content", q.ID)
		}
	case types.QuestionHotButton:
		if q.HotButton == nil {
			return fmt.Errorf("question %s: missing hot-button content", q.ID)
		}
	case types.QuestionCollectiveList:
		if q.CollectiveList == nil {
			return fmt.Errorf("question %s: missing collective-list content", q.ID)
		}
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	return nil
}

// Close is a no-op for the file store
func (f *FileStore) Close() error {
	return nil
}

// ListCategories returns all active categories
func (f *FileStore) ListCategories() ([]*Category, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []*Category
	for _, c := range f.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetCategory retrieves a category by ID
func (f *FileStore) GetCategory(id string) (*Category, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category not found: %s", id)
}

// RandomCategories returns up to count random active categories
func (f *FileStore) RandomCategories(count int) ([]*Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var active []*Category
	for _, c := range f.categories {
		if c.IsActive {
			active = append(active, c)
		}
	}

	f.rng.Shuffle(len(active), func(i, j int) {
		active[i], active[j] = active[j], active[i]
	})

	if len(active) > count {
		active = active[:count]
	}
	return active, nil
}

// GetQuestion retrieves a question by ID
func (f *FileStore) GetQuestion(id string) (*Question, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, q := range f.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, fmt.Errorf("question not found: %s", id)
}

// RandomQuestions returns up to count random questions of the given type,
// restricted to categoryID when non-empty, excluding the given ids
func (f *FileStore) RandomQuestions(categoryID string, qType types.QuestionType, count int, exclude map[string]bool) ([]*Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pool []*Question
	for _, q := range f.questions {
		if exclude[q.ID] {
			continue
		}
		if categoryID != "" && q.CategoryID != categoryID {
			continue
		}
		// true/false rides the choice pipeline
		if qType == types.QuestionChoice {
			if q.Type != types.QuestionChoice && q.Type != types.QuestionTrueFalse {
				continue
			}
		} else if q.Type != qType {
			continue
		}
		pool = append(pool, q)
	}

	f.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(pool) > count {
		pool = pool[:count]
	}
	return pool, nil
}
