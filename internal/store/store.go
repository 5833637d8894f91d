// Package store provides the experience storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/experience-rank/internal/model"
)

// ErrNotFound is returned when a lookup matches no experience.
var ErrNotFound = errors.New("experience not found")

// InsertParams holds parameters for storing a new experience.
type InsertParams struct {
	Text            string
	Embedding       []float32
	DifficultyScore float64
	DetailedScores  []float64
}

// ComparisonParams holds parameters for recording user feedback.
type ComparisonParams struct {
	ExperienceID              string
	IsMoreDifficultThanLower  bool
	IsLessDifficultThanHigher bool
}

// ListParams holds parameters for listing experiences.
type ListParams struct {
	Limit int
}

// Store defines the experience storage interface.
type Store interface {
	// Insert stores a new experience with a zero rank.
	Insert(ctx context.Context, p InsertParams) (*model.Experience, error)

	// GetByID returns ErrNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (*model.Experience, error)

	// GetByText returns the earliest experience with exactly this text.
	GetByText(ctx context.Context, text string) (*model.Experience, error)

	// All returns every experience ordered by difficulty score, then id.
	All(ctx context.Context) ([]model.Experience, error)

	// Adjacent returns the nearest experiences scored strictly below and
	// strictly above score. Either may be nil.
	Adjacent(ctx context.Context, score float64) (lower, higher *model.Experience, err error)

	// Count returns the number of stored experiences.
	Count(ctx context.Context) (int, error)

	// UpdateScore sets the difficulty score and returns the updated experience.
	UpdateScore(ctx context.Context, id string, score float64) (*model.Experience, error)

	// UpdateRank sets the relative rank.
	UpdateRank(ctx context.Context, id string, rank float64) error

	// InsertComparison appends a feedback record.
	InsertComparison(ctx context.Context, p ComparisonParams) (*model.Comparison, error)

	// Comparisons returns feedback for an experience, oldest first.
	Comparisons(ctx context.Context, experienceID string) ([]model.Comparison, error)

	// WithTx runs fn against a transaction-bound store. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Close closes the store.
	Close() error
}
