package ranking

import "errors"

// Sentinel errors for the ranking package.
// Use errors.Is to check: errors.Is(err, ranking.ErrNotFound)
var (
	ErrValidation = errors.New("ranking: invalid input")
	ErrEmbedding  = errors.New("ranking: embedding failed")
	ErrEstimation = errors.New("ranking: estimation failed")
	ErrStorage    = errors.New("ranking: storage failed")
	ErrNotFound   = errors.New("ranking: experience not found")
)
