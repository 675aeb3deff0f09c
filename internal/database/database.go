package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/neo/quizparty_backend/internal/types"
)

// Database is the sqlite-backed question store
type Database struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
    id         TEXT PRIMARY KEY,
    slug       TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    icon       TEXT NOT NULL DEFAULT '',
    is_active  INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions (
    id          TEXT PRIMARY KEY,
    category_id TEXT NOT NULL DEFAULT '',
    type        TEXT NOT NULL,
    text        TEXT NOT NULL,
    difficulty  INTEGER NOT NULL DEFAULT 1,
    content     TEXT NOT NULL,
    explanation TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (category_id) REFERENCES categories(id)
);

CREATE INDEX IF NOT EXISTS idx_questions_category_type ON questions(category_id, type);
`

// New creates a new database connection and initializes the schema
func New(dataDir string) (*Database, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "questions.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// ListCategories returns all active categories ordered for display
func (d *Database) ListCategories() ([]*Category, error) {
	query := `SELECT id, slug, name, icon, is_active, sort_order
	          FROM categories WHERE is_active = 1 ORDER BY sort_order, name`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %v", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// GetCategory retrieves a category by ID
func (d *Database) GetCategory(id string) (*Category, error) {
	query := `SELECT id, slug, name, icon, is_active, sort_order FROM categories WHERE id = ?`

	var c Category
	err := d.db.QueryRow(query, id).Scan(&c.ID, &c.Slug, &c.Name, &c.Icon, &c.IsActive, &c.SortOrder)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category not found: %s", id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get category: %v", err)
	}

	return &c, nil
}

// RandomCategories returns up to count random active categories
func (d *Database) RandomCategories(count int) ([]*Category, error) {
	query := `SELECT id, slug, name, icon, is_active, sort_order
	          FROM categories WHERE is_active = 1 ORDER BY RANDOM() LIMIT ?`

	rows, err := d.db.Query(query, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query random categories: %v", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// GetQuestion retrieves a question by ID
func (d *Database) GetQuestion(id string) (*Question, error) {
	query := `SELECT id, category_id, type, text, difficulty, content, explanation
	          FROM questions WHERE id = ?`

	row := d.db.QueryRow(query, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("question not found: %s", id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get question: %v", err)
	}

	return q, nil
}

// RandomQuestions returns up to count random questions of the given type,
// restricted to categoryID when non-empty, excluding the given ids
func (d *Database) RandomQuestions(categoryID string, qType types.QuestionType, count int, exclude map[string]bool) ([]*Question, error) {
	var (
		conds []string
		args  []interface{}
	)

	// true/false rides the choice pipeline
	if qType == types.QuestionChoice {
		conds = append(conds, "type IN (?, ?)")
		args = append(args, string(types.QuestionChoice), string(types.QuestionTrueFalse))
	} else {
		conds = append(conds, "type = ?")
		args = append(args, string(qType))
	}

	if categoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, categoryID)
	}

	if len(exclude) > 0 {
		placeholders := make([]string, 0, len(exclude))
		for id := range exclude {
			placeholders = append(placeholders, "?")
			args = append(args, id)
		}
		conds = append(conds, fmt.Sprintf("id NOT IN (%s)", strings.Join(placeholders, ", ")))
	}

	query := fmt.Sprintf(`SELECT id, category_id, type, text, difficulty, content, explanation
	          FROM questions WHERE %s ORDER BY RANDOM() LIMIT ?`, strings.Join(conds, " AND "))
	args = append(args, count)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query random questions: %v", err)
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %v", err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

// InsertCategory stores a category, replacing any existing row with the same id
func (d *Database) InsertCategory(c *Category) error {
	query := `INSERT OR REPLACE INTO categories (id, slug, name, icon, is_active, sort_order)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := d.db.Exec(query, c.ID, c.Slug, c.Name, c.Icon, c.IsActive, c.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert category: %v", err)
	}

	return nil
}

// InsertQuestion stores a question, replacing any existing row with the same id
func (d *Database) InsertQuestion(q *Question) error {
	content, err := encodeContent(q)
	if err != nil {
		return fmt.Errorf("failed to encode question content: %v", err)
	}

	query := `INSERT OR REPLACE INTO questions (id, category_id, type, text, difficulty, content, explanation)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = d.db.Exec(query, q.ID, q.CategoryID, string(q.Type), q.Text, q.Difficulty, string(content), q.Explanation)
	if err != nil {
		return fmt.Errorf("failed to insert question: %v", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (*Question, error) {
	var (
		q       Question
		typeStr string
		content string
	)

	err := row.Scan(&q.ID, &q.CategoryID, &typeStr, &q.Text, &q.Difficulty, &content, &q.Explanation)
	if err != nil {
		return nil, err
	}

	q.Type = types.QuestionType(typeStr)
	if err := decodeContent(&q, []byte(content)); err != nil {
		return nil, err
	}

	return &q, nil
}

func scanCategories(rows *sql.Rows) ([]*Category, error) {
	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Icon, &c.IsActive, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan category: %v", err)
		}
		categories = append(categories, &c)
	}
	return categories, nil
}
