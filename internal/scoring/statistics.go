package scoring

import (
	"time"
)

// PlayerStats accumulates one player's answer statistics over a match
type PlayerStats struct {
	CorrectAnswers      int   `json:"correctAnswers"`
	TotalAnswers        int   `json:"totalAnswers"`
	TotalResponseTimeMS int64 `json:"totalResponseTime"`
	FastestAnswerMS     int64 `json:"fastestAnswer"`
	CurrentStreak       int   `json:"currentStreak"`
	LongestStreak       int   `json:"longestStreak"`
	EstimationPoints    int   `json:"estimationPoints"`
	EstimationQuestions int   `json:"estimationQuestions"`
}

// CategoryStats accumulates answer accuracy per category over a match
type CategoryStats struct {
	Name    string `json:"name"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

// MatchStatistics holds all per-player and per-category statistics of a match
type MatchStatistics struct {
	Players    map[string]*PlayerStats   `json:"players"`
	Categories map[string]*CategoryStats `json:"categories"`
}

// NewMatchStatistics creates an empty statistics accumulator
func NewMatchStatistics() *MatchStatistics {
	return &MatchStatistics{
		Players:    make(map[string]*PlayerStats),
		Categories: make(map[string]*CategoryStats),
	}
}

func (s *MatchStatistics) player(playerID string) *PlayerStats {
	ps, ok := s.Players[playerID]
	if !ok {
		ps = &PlayerStats{}
		s.Players[playerID] = ps
	}
	return ps
}

// RecordAnswer updates player and category statistics for one choice answer
func (s *MatchStatistics) RecordAnswer(playerID, categoryID, categoryName string, correct bool, responseTime time.Duration) {
	ps := s.player(playerID)
	ps.TotalAnswers++

	ms := responseTime.Milliseconds()
	ps.TotalResponseTimeMS += ms
	if ps.FastestAnswerMS == 0 || ms < ps.FastestAnswerMS {
		ps.FastestAnswerMS = ms
	}

	if correct {
		ps.CorrectAnswers++
		ps.CurrentStreak++
		if ps.CurrentStreak > ps.LongestStreak {
			ps.LongestStreak = ps.CurrentStreak
		}
	} else {
		ps.CurrentStreak = 0
	}

	if categoryID != "" {
		cs, ok := s.Categories[categoryID]
		if !ok {
			cs = &CategoryStats{Name: categoryName}
			s.Categories[categoryID] = cs
		}
		cs.Total++
		if correct {
			cs.Correct++
		}
	}
}

// RecordEstimation credits estimation points to a player
func (s *MatchStatistics) RecordEstimation(playerID string, points int) {
	ps := s.player(playerID)
	ps.EstimationQuestions++
	ps.EstimationPoints += points
}

// Accuracy returns a player's answer accuracy in percent
func (s *MatchStatistics) Accuracy(playerID string) float64 {
	ps, ok := s.Players[playerID]
	if !ok || ps.TotalAnswers == 0 {
		return 0
	}
	return 100.0 * float64(ps.CorrectAnswers) / float64(ps.TotalAnswers)
}

// AverageResponseMS returns a player's mean response time in milliseconds
func (s *MatchStatistics) AverageResponseMS(playerID string) int64 {
	ps, ok := s.Players[playerID]
	if !ok || ps.TotalAnswers == 0 {
		return 0
	}
	return ps.TotalResponseTimeMS / int64(ps.TotalAnswers)
}
