package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/experience-rank/internal/embedding"
	"github.com/rcliao/experience-rank/internal/estimate"
	"github.com/rcliao/experience-rank/internal/model"
	"github.com/rcliao/experience-rank/internal/store"
)

// Source records how an experience got its score.
type Source string

const (
	SourceExact       Source = "exact"
	SourceDuplicate   Source = "duplicate"
	SourceComparative Source = "comparative"
	SourceIndependent Source = "independent"
)

// Options configures an Engine. A nil Thresholds takes DefaultThresholds.
type Options struct {
	Thresholds *Thresholds
	Logger     *slog.Logger
	Metrics    *Metrics
}

// Standing is an experience with its score neighbors and the collection size.
type Standing struct {
	Experience *model.Experience
	Lower      *model.Experience
	Higher     *model.Experience
	Total      int
}

// Estimation is the outcome of scoring a new text.
type Estimation struct {
	Standing
	Source     Source
	Similarity float64
	MatchID    string
}

// FeedbackParams holds one user judgement against an experience's neighbors.
type FeedbackParams struct {
	ExperienceID              string
	IsMoreDifficultThanLower  bool
	IsLessDifficultThanHigher bool
}

// Engine scores new experiences and keeps ranks consistent.
//
// Writes are serialized by mu so that an insert or score change and the
// rank recompute that follows it are one unit. Calls to the embedder and
// estimator happen before mu is taken.
type Engine struct {
	store      store.Store
	embedder   embedding.Embedder
	estimator  estimate.Estimator
	thresholds Thresholds
	logger     *slog.Logger
	metrics    *Metrics

	mu sync.Mutex
}

// New creates an Engine. The embedder and estimator may be nil when the
// caller never scores new text.
func New(s store.Store, e embedding.Embedder, est estimate.Estimator, opts Options) *Engine {
	t := DefaultThresholds()
	if opts.Thresholds != nil {
		t = *opts.Thresholds
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      s,
		embedder:   e,
		estimator:  est,
		thresholds: t,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Thresholds returns the similarity cutoffs in use.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Estimate scores text, stores it as a new experience and re-ranks the
// collection. Nothing is stored if scoring fails.
func (e *Engine) Estimate(ctx context.Context, text string) (*Estimation, error) {
	res, err := e.estimate(ctx, text)
	if err != nil {
		e.metrics.incError("estimate", err)
		e.logger.Error("estimate failed", "error", err)
		return nil, err
	}
	e.metrics.incEstimate(res.Source)
	e.logger.Info("experience scored",
		"id", res.Experience.ID,
		"source", res.Source,
		"similarity", res.Similarity,
		"score", res.Experience.DifficultyScore,
		"rank", res.Experience.RelativeRank)
	return res, nil
}

func (e *Engine) estimate(ctx context.Context, text string) (*Estimation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	a, err := e.assign(ctx, text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := &Estimation{}
	err = e.store.WithTx(ctx, func(tx store.Store) error {
		// Identical text may have been stored since assign looked.
		if a.source != SourceExact {
			exact, err := tx.GetByText(ctx, text)
			switch {
			case err == nil:
				a = &assignment{params: reuse(text, exact), source: SourceExact, match: exact, similarity: 1}
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
		}
		created, err := tx.Insert(ctx, a.params)
		if err != nil {
			return err
		}
		if err := e.recompute(ctx, tx); err != nil {
			return err
		}
		st, err := standing(ctx, tx, created.ID)
		if err != nil {
			return err
		}
		res.Standing = *st
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}
	res.Source = a.source
	res.Similarity = a.similarity
	if a.match != nil {
		res.MatchID = a.match.ID
	}
	return res, nil
}

type assignment struct {
	params     store.InsertParams
	source     Source
	match      *model.Experience
	similarity float64
}

// assign decides the score for text without touching the store's contents.
// The first matching rule wins: identical text, near duplicate, similar
// enough to compare against, otherwise an independent estimate.
func (e *Engine) assign(ctx context.Context, text string) (*assignment, error) {
	exact, err := e.store.GetByText(ctx, text)
	switch {
	case err == nil:
		return &assignment{
			params:     reuse(text, exact),
			source:     SourceExact,
			match:      exact,
			similarity: 1,
		}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, storageErr(err)
	}

	if e.embedder == nil || e.estimator == nil {
		return nil, fmt.Errorf("%w: no embedder or estimator configured", ErrEstimation)
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbedding)
	}

	all, err := e.store.All(ctx)
	if err != nil {
		return nil, storageErr(err)
	}

	match, sim := FindSimilar(vec, all, e.thresholds.Candidate)
	kind := MatchNone
	if match != nil {
		kind = e.thresholds.Classify(sim)
	}

	a := &assignment{match: match, similarity: sim}
	switch kind {
	case MatchDuplicate:
		a.source = SourceDuplicate
		a.params = reuse(text, match)
		a.params.Embedding = vec
		return a, nil
	case MatchCandidate:
		a.source = SourceComparative
	default:
		a.source = SourceIndependent
		a.match = nil
	}

	var score float64
	if a.source == SourceComparative {
		score, err = e.estimator.EstimateRelative(ctx, text, match.Text, match.DifficultyScore)
	} else {
		score, err = e.estimator.EstimateAbsolute(ctx, text)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEstimation, err)
	}
	if !model.ValidScore(score) {
		return nil, fmt.Errorf("%w: score %v outside [0,100]", ErrEstimation, score)
	}

	var detailed []float64
	if de, ok := e.estimator.(estimate.DetailedEstimator); ok {
		detailed, err = de.EstimateDetailed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: detailed scores: %w", ErrEstimation, err)
		}
	}

	a.params = store.InsertParams{
		Text:            text,
		Embedding:       vec,
		DifficultyScore: score,
		DetailedScores:  detailed,
	}
	return a, nil
}

func reuse(text string, from *model.Experience) store.InsertParams {
	return store.InsertParams{
		Text:            text,
		Embedding:       from.Embedding,
		DifficultyScore: from.DifficultyScore,
		DetailedScores:  from.DetailedScores,
	}
}

// Feedback records a comparison and nudges the experience's score by the
// Adjustment table, then re-ranks. The comparison is kept even if the
// score update later fails.
func (e *Engine) Feedback(ctx context.Context, p FeedbackParams) (*model.Experience, error) {
	updated, delta, err := e.feedback(ctx, p)
	if err != nil {
		e.metrics.incError("feedback", err)
		e.logger.Error("feedback failed", "id", p.ExperienceID, "error", err)
		return nil, err
	}
	e.metrics.incFeedback(delta)
	e.logger.Info("feedback applied",
		"id", updated.ID,
		"adjustment", delta,
		"score", updated.DifficultyScore,
		"rank", updated.RelativeRank)
	return updated, nil
}

func (e *Engine) feedback(ctx context.Context, p FeedbackParams) (*model.Experience, float64, error) {
	if strings.TrimSpace(p.ExperienceID) == "" {
		return nil, 0, fmt.Errorf("%w: experience id is required", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	exp, err := e.store.GetByID(ctx, p.ExperienceID)
	if err != nil {
		return nil, 0, storageErr(err)
	}

	_, err = e.store.InsertComparison(ctx, store.ComparisonParams{
		ExperienceID:              exp.ID,
		IsMoreDifficultThanLower:  p.IsMoreDifficultThanLower,
		IsLessDifficultThanHigher: p.IsLessDifficultThanHigher,
	})
	if err != nil {
		return nil, 0, storageErr(err)
	}

	delta := Adjustment(p.IsMoreDifficultThanLower, p.IsLessDifficultThanHigher, exp.DifficultyScore)
	score := Clamp(exp.DifficultyScore + delta)

	var updated *model.Experience
	err = e.store.WithTx(ctx, func(tx store.Store) error {
		if score != exp.DifficultyScore {
			if _, err := tx.UpdateScore(ctx, exp.ID, score); err != nil {
				return err
			}
		}
		if err := e.recompute(ctx, tx); err != nil {
			return err
		}
		var err error
		updated, err = tx.GetByID(ctx, exp.ID)
		return err
	})
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return updated, delta, nil
}

// Recompute re-ranks the whole collection.
func (e *Engine) Recompute(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.store.WithTx(ctx, func(tx store.Store) error {
		return e.recompute(ctx, tx)
	})
	if err != nil {
		err = storageErr(err)
		e.metrics.incError("recompute", err)
		return err
	}
	return nil
}

func (e *Engine) recompute(ctx context.Context, tx store.Store) error {
	start := time.Now()
	n, err := RecomputeAll(ctx, tx)
	if err != nil {
		return fmt.Errorf("recompute ranks: %w", err)
	}
	e.metrics.observeRecompute(start, n)
	return nil
}

// Import stores previously exported experiences as new ones, keeping their
// text, embedding and scores, and re-ranks once at the end.
func (e *Engine) Import(ctx context.Context, experiences []model.Experience) (int, error) {
	for i, x := range experiences {
		if strings.TrimSpace(x.Text) == "" {
			return 0, fmt.Errorf("%w: entry %d has no text", ErrValidation, i)
		}
		if !model.ValidScore(x.DifficultyScore) {
			return 0, fmt.Errorf("%w: entry %d score %v outside [0,100]", ErrValidation, i, x.DifficultyScore)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.store.WithTx(ctx, func(tx store.Store) error {
		for _, x := range experiences {
			_, err := tx.Insert(ctx, store.InsertParams{
				Text:            strings.TrimSpace(x.Text),
				Embedding:       x.Embedding,
				DifficultyScore: x.DifficultyScore,
				DetailedScores:  x.DetailedScores,
			})
			if err != nil {
				return err
			}
		}
		return e.recompute(ctx, tx)
	})
	if err != nil {
		return 0, storageErr(err)
	}
	return len(experiences), nil
}

// Get returns an experience with its score neighbors.
func (e *Engine) Get(ctx context.Context, id string) (*Standing, error) {
	var st *Standing
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		st, err = standing(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return st, nil
}

// Adjacent returns the nearest experiences scored strictly below and above score.
func (e *Engine) Adjacent(ctx context.Context, score float64) (lower, higher *model.Experience, err error) {
	err = e.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		lower, higher, err = tx.Adjacent(ctx, score)
		return err
	})
	if err != nil {
		return nil, nil, storageErr(err)
	}
	return lower, higher, nil
}

func standing(ctx context.Context, s store.Store, id string) (*Standing, error) {
	exp, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lower, higher, err := s.Adjacent(ctx, exp.DifficultyScore)
	if err != nil {
		return nil, err
	}
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Standing{Experience: exp, Lower: lower, Higher: higher, Total: total}, nil
}

// storageErr maps store errors onto the package's sentinels.
func storageErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrStorage),
		errors.Is(err, ErrEmbedding), errors.Is(err, ErrEstimation), errors.Is(err, ErrValidation):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrEmbedding):
		return "embedding"
	case errors.Is(err, ErrEstimation):
		return "estimation"
	default:
		return "storage"
	}
}
