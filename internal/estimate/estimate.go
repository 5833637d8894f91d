// Package estimate asks a language model for difficulty scores.
package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rcliao/experience-rank/internal/model"
)

// Estimator produces difficulty scores in [0,100].
type Estimator interface {
	// EstimateAbsolute scores text on its own.
	EstimateAbsolute(ctx context.Context, text string) (float64, error)

	// EstimateRelative scores text against an anchor with a known score.
	EstimateRelative(ctx context.Context, text, anchorText string, anchorScore float64) (float64, error)
}

// DetailedEstimator is implemented by estimators that can also produce
// per-metric scores, one per model.DetailedMetrics entry.
type DetailedEstimator interface {
	EstimateDetailed(ctx context.Context, text string) ([]float64, error)
}

var (
	ErrMalformed  = errors.New("malformed model output")
	ErrOutOfRange = errors.New("score out of range")
)

// ParseScore parses a bare numeric model reply.
func ParseScore(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	if !model.ValidScore(v) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	return v, nil
}

// ParseDetailed parses a JSON array with one score per detailed metric.
func ParseDetailed(raw string) ([]float64, error) {
	s := strings.TrimSpace(raw)
	// Models sometimes wrap the array in a markdown fence.
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	var scores []float64
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &scores); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	if len(scores) != len(model.DetailedMetrics) {
		return nil, fmt.Errorf("%w: want %d scores, got %d", ErrMalformed, len(model.DetailedMetrics), len(scores))
	}
	for _, v := range scores {
		if !model.ValidScore(v) {
			return nil, fmt.Errorf("%w: %v", ErrOutOfRange, v)
		}
	}
	return scores, nil
}
