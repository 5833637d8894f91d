package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/rcliao/experience-rank/internal/model"
	"github.com/rcliao/experience-rank/internal/store"
)

// Ranks returns the relative rank of every experience: the item at
// ascending-score position i (1-indexed, ties by id) of n gets i/n*100.
func Ranks(experiences []model.Experience) map[string]float64 {
	sorted := make([]model.Experience, len(experiences))
	copy(sorted, experiences)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DifficultyScore != sorted[j].DifficultyScore {
			return sorted[i].DifficultyScore < sorted[j].DifficultyScore
		}
		return sorted[i].ID < sorted[j].ID
	})

	total := float64(len(sorted))
	ranks := make(map[string]float64, len(sorted))
	for i, e := range sorted {
		ranks[e.ID] = float64(i+1) / total * 100
	}
	return ranks
}

// RecomputeAll rewrites every stored rank from the current scores. Callers
// run it inside the same transaction as the write that triggered it.
// Rows whose rank is already correct are left untouched. It returns the
// number of ranked experiences.
func RecomputeAll(ctx context.Context, s store.Store) (int, error) {
	all, err := s.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load experiences: %w", err)
	}
	ranks := Ranks(all)
	for _, e := range all {
		r := ranks[e.ID]
		if r == e.RelativeRank {
			continue
		}
		if err := s.UpdateRank(ctx, e.ID, r); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}
