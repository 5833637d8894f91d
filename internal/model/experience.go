// Package model defines the core experience data types.
package model

import "time"

// Experience is a scored description of a life experience.
type Experience struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	Embedding       []float32 `json:"embedding,omitempty"`
	DifficultyScore float64   `json:"difficulty_score"`
	RelativeRank    float64   `json:"relative_rank"`
	DetailedScores  []float64 `json:"detailed_scores,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary is the compact form returned to API clients.
type Summary struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	DifficultyScore float64 `json:"difficulty_score"`
	RelativeRank    float64 `json:"relative_rank"`
}

// Summary returns the compact form of e. A nil experience yields nil.
func (e *Experience) Summary() *Summary {
	if e == nil {
		return nil
	}
	return &Summary{
		ID:              e.ID,
		Text:            e.Text,
		DifficultyScore: e.DifficultyScore,
		RelativeRank:    e.RelativeRank,
	}
}

// Comparison is an append-only record of pairwise user feedback.
type Comparison struct {
	ID                        string    `json:"id"`
	ExperienceID              string    `json:"experience_id"`
	IsMoreDifficultThanLower  bool      `json:"is_more_difficult_than_lower"`
	IsLessDifficultThanHigher bool      `json:"is_less_difficult_than_higher"`
	CreatedAt                 time.Time `json:"created_at"`
}

// MinScore and MaxScore bound both difficulty scores and relative ranks.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// DetailedMetrics names the sub-metrics of DetailedScores, in order.
var DetailedMetrics = []string{
	"physical_difficulty",
	"mental_effort",
	"time_investment",
	"technical_complexity",
	"social_challenge",
	"financial_burden",
	"risk_level",
	"persistence_required",
	"creativity_needed",
	"rarity",
}

// ValidScore reports whether s lies in [MinScore, MaxScore].
func ValidScore(s float64) bool {
	return s >= MinScore && s <= MaxScore
}
