package ranking

import "github.com/rcliao/experience-rank/internal/model"

// Feedback score deltas.
const (
	smallAdjustment = 2.0
	largeAdjustment = 5.0
	midpoint        = 50.0
)

// Adjustment returns the score delta for one pairwise judgement.
//
//	more  less  delta
//	true  true  0
//	true  false +2
//	false true  -2
//	false false +5 below 50, else -5
func Adjustment(moreThanLower, lessThanHigher bool, score float64) float64 {
	switch {
	case moreThanLower && lessThanHigher:
		return 0
	case moreThanLower:
		return smallAdjustment
	case lessThanHigher:
		return -smallAdjustment
	case score < midpoint:
		return largeAdjustment
	default:
		return -largeAdjustment
	}
}

// Clamp bounds v to [model.MinScore, model.MaxScore].
func Clamp(v float64) float64 {
	if v < model.MinScore {
		return model.MinScore
	}
	if v > model.MaxScore {
		return model.MaxScore
	}
	return v
}
