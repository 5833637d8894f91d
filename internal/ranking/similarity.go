package ranking

import (
	"github.com/rcliao/experience-rank/internal/embedding"
	"github.com/rcliao/experience-rank/internal/model"
)

// Default similarity thresholds.
const (
	DefaultDuplicateThreshold = 0.95
	DefaultCandidateThreshold = 0.90
)

// Match classifies how close a new text is to its nearest stored neighbor.
type Match int

const (
	MatchNone Match = iota
	MatchCandidate
	MatchDuplicate
)

func (m Match) String() string {
	switch m {
	case MatchDuplicate:
		return "duplicate"
	case MatchCandidate:
		return "candidate"
	default:
		return "none"
	}
}

// Thresholds holds the similarity cutoffs. Both comparisons are strict.
type Thresholds struct {
	Duplicate float64
	Candidate float64
}

// DefaultThresholds returns the 0.95 duplicate and 0.90 candidate cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Duplicate: DefaultDuplicateThreshold, Candidate: DefaultCandidateThreshold}
}

// Classify maps a cosine similarity to a Match.
func (t Thresholds) Classify(similarity float64) Match {
	switch {
	case similarity > t.Duplicate:
		return MatchDuplicate
	case similarity > t.Candidate:
		return MatchCandidate
	default:
		return MatchNone
	}
}

// FindSimilar returns the stored experience most similar to vec and its
// similarity, provided the similarity exceeds threshold. Otherwise it
// returns (nil, 0). Ties go to the smallest id.
func FindSimilar(vec embedding.Vector, stored []model.Experience, threshold float64) (*model.Experience, float64) {
	var best *model.Experience
	bestSim := 0.0
	for i := range stored {
		sim := embedding.CosineSimilarity(vec, stored[i].Embedding)
		if best == nil || sim > bestSim || (sim == bestSim && stored[i].ID < best.ID) {
			best = &stored[i]
			bestSim = sim
		}
	}
	if best == nil || bestSim <= threshold {
		return nil, 0
	}
	return best, bestSim
}
