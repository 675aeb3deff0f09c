package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/quizparty_backend/internal/types"
)

const fixtureJSON = `{
  "categories": [
    {"id": "geo", "slug": "geographie", "name": "Geographie", "isActive": true},
    {"id": "old", "slug": "retired", "name": "Retired", "isActive": false},
    {"id": "film", "slug": "film", "name": "Film", "isActive": true}
  ],
  "questions": [
    {"id": "q1", "categoryId": "geo", "type": "choice", "text": "Hauptstadt von Frankreich?",
     "choice": {"correctAnswer": "Paris", "incorrectAnswers": ["Lyon", "Nizza", "Marseille"]}},
    {"id": "q2", "categoryId": "geo", "type": "true_false", "text": "Der Rhein fließt nach Norden.",
     "choice": {"correctAnswer": "Wahr", "incorrectAnswers": ["Falsch"]}},
    {"id": "q3", "categoryId": "film", "type": "estimation", "text": "Wie lang ist Titanic in Minuten?",
     "estimation": {"correctValue": 194, "unit": "min"}},
    {"id": "q4", "categoryId": "", "type": "hot_button", "text": "Wer schrieb Faust?",
     "hotButton": {"correctAnswer": "Goethe", "pointsCorrect": 200, "pointsWrong": -100}}
  ]
}`

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON), 0644))

	store, err := NewFileStore(path, 1)
	require.NoError(t, err)
	return store
}

func TestNewFileStoreRejectsMissingFile(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), 1)
	assert.Error(t, err)
}

func TestNewFileStoreRejectsMismatchedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{"questions": [{"id": "q1", "type": "choice", "text": "?"}]}`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0644))

	_, err := NewFileStore(path, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing choice content")
}

func TestNewFileStoreRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{"questions": [{"id": "q1", "type": "karaoke", "text": "?"}]}`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0644))

	_, err := NewFileStore(path, 1)
	assert.Error(t, err)
}

func TestListCategoriesFiltersInactive(t *testing.T) {
	store := newTestFileStore(t)

	cats, err := store.ListCategories()
	require.NoError(t, err)
	require.Len(t, cats, 2)
	for _, c := range cats {
		assert.True(t, c.IsActive)
	}
}

func TestGetCategory(t *testing.T) {
	store := newTestFileStore(t)

	cat, err := store.GetCategory("geo")
	require.NoError(t, err)
	assert.Equal(t, "Geographie", cat.Name)

	_, err = store.GetCategory("nope")
	assert.Error(t, err)
}

func TestRandomCategoriesCapsAtActiveCount(t *testing.T) {
	store := newTestFileStore(t)

	cats, err := store.RandomCategories(8)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	cats, err = store.RandomCategories(1)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestGetQuestionDecodesContent(t *testing.T) {
	store := newTestFileStore(t)

	q, err := store.GetQuestion("q1")
	require.NoError(t, err)
	require.NotNil(t, q.Choice)
	assert.Equal(t, "Paris", q.Choice.CorrectAnswer)

	_, err = store.GetQuestion("nope")
	assert.Error(t, err)
}

func TestRandomQuestionsChoiceIncludesTrueFalse(t *testing.T) {
	store := newTestFileStore(t)

	qs, err := store.RandomQuestions("geo", types.QuestionChoice, 10, nil)
	require.NoError(t, err)
	require.Len(t, qs, 2)

	ids := map[string]bool{}
	for _, q := range qs {
		ids[q.ID] = true
	}
	assert.True(t, ids["q1"])
	assert.True(t, ids["q2"])
}

func TestRandomQuestionsHonorsExclude(t *testing.T) {
	store := newTestFileStore(t)

	qs, err := store.RandomQuestions("geo", types.QuestionChoice, 10, map[string]bool{"q1": true})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q2", qs[0].ID)
}

func TestRandomQuestionsAnyCategory(t *testing.T) {
	store := newTestFileStore(t)

	qs, err := store.RandomQuestions("", types.QuestionHotButton, 10, nil)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q4", qs[0].ID)
}

func TestRandomQuestionsFiltersType(t *testing.T) {
	store := newTestFileStore(t)

	qs, err := store.RandomQuestions("film", types.QuestionEstimation, 10, nil)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q3", qs[0].ID)

	qs, err = store.RandomQuestions("film", types.QuestionChoice, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, qs)
}
