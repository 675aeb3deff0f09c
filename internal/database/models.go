package database

import (
	"encoding/json"
	"fmt"

	"github.com/neo/quizparty_backend/internal/types"
)

// Category is a question category shown in lobbies and category selection
type Category struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	IsActive  bool   `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// ChoiceContent is the payload of choice and true/false questions
type ChoiceContent struct {
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
}

// EstimationContent is the payload of estimation questions
type EstimationContent struct {
	CorrectValue float64 `json:"correctValue"`
	Unit         string  `json:"unit"`
}

// HotButtonContent is the payload of hot-button (buzzer) questions
type HotButtonContent struct {
	CorrectAnswer   string   `json:"correctAnswer"`
	AcceptedAnswers []string `json:"acceptedAnswers"`
	RevealSpeedMS   int      `json:"revealSpeed,omitempty"`
	PointsCorrect   int      `json:"pointsCorrect"`
	PointsWrong     int      `json:"pointsWrong"`
}

// ListItem is one entry of a collective-list answer set
type ListItem struct {
	ID      string   `json:"id"`
	Display string   `json:"display"`
	Aliases []string `json:"aliases,omitempty"`
	Group   string   `json:"group,omitempty"`
}

// CollectiveListContent is the payload of collective-list questions
type CollectiveListContent struct {
	Topic            string     `json:"topic"`
	Description      string     `json:"description,omitempty"`
	Items            []ListItem `json:"items"`
	TimePerTurn      int        `json:"timePerTurn"`
	PointsPerCorrect int        `json:"pointsPerCorrect"`
	FuzzyThreshold   float64    `json:"fuzzyThreshold"`
}

// Question is a generic question with type-tagged content. Exactly one of the
// content pointers is non-nil, matching Type.
type Question struct {
	ID          string             `json:"id"`
	CategoryID  string             `json:"categoryId"`
	Type        types.QuestionType `json:"type"`
	Text        string             `json:"text"`
	Difficulty  int                `json:"difficulty"`
	Explanation string             `json:"explanation,omitempty"`

	Choice         *ChoiceContent         `json:"choice,omitempty"`
	Estimation     *EstimationContent     `json:"estimation,omitempty"`
	HotButton      *HotButtonContent      `json:"hotButton,omitempty"`
	CollectiveList *CollectiveListContent `json:"collectiveList,omitempty"`
}

// decodeContent unpacks a raw content blob into the variant matching the type tag
func decodeContent(q *Question, raw []byte) error {
	switch q.Type {
	case types.QuestionChoice, types.QuestionTrueFalse:
		var c ChoiceContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("failed to decode choice content for question %s: %v", q.ID, err)
		}
		q.Choice = &c
	case types.QuestionEstimation:
		var c EstimationContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("failed to decode estimation content for question %s: %v", q.ID, err)
		}
		q.Estimation = &c
	case types.QuestionHotButton:
		var c HotButtonContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("failed to decode hot-button content for question %s: %v", q.ID, err)
		}
		q.HotButton = &c
	case types.QuestionCollectiveList:
		var c CollectiveListContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("failed to decode collective-list content for question %s: %v", q.ID, err)
		}
		q.CollectiveList = &c
	default:
		return fmt.Errorf("unknown question type %q for question %s", q.Type, q.ID)
	}
	return nil
}

// encodeContent packs the populated content variant back into a JSON blob
func encodeContent(q *Question) ([]byte, error) {
	switch q.Type {
	case types.QuestionChoice, types.QuestionTrueFalse:
		return json.Marshal(q.Choice)
	case types.QuestionEstimation:
		return json.Marshal(q.Estimation)
	case types.QuestionHotButton:
		return json.Marshal(q.HotButton)
	case types.QuestionCollectiveList:
		return json.Marshal(q.CollectiveList)
	}
	return nil, fmt.Errorf("unknown question type %q for question %s", q.Type, q.ID)
}
