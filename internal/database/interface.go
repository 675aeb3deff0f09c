package database

import (
	"github.com/neo/quizparty_backend/internal/types"
)

// QuestionStore defines the interface the game core consumes for category
// listing and random-question retrieval. Random selections always take an
// exclusion id set so a question is never presented twice within a match.
type QuestionStore interface {
	Close() error

	// Categories
	ListCategories() ([]*Category, error)
	GetCategory(id string) (*Category, error)
	RandomCategories(count int) ([]*Category, error)

	// Questions
	GetQuestion(id string) (*Question, error)
	// RandomQuestions returns up to count random questions of the given type,
	// restricted to categoryID when non-empty, excluding the given ids.
	RandomQuestions(categoryID string, qType types.QuestionType, count int, exclude map[string]bool) ([]*Question, error)
}

// Ensure both stores implement QuestionStore
var (
	_ QuestionStore = (*Database)(nil)
	_ QuestionStore = (*FileStore)(nil)
)
