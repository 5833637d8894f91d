package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath           string         `json:"db_path"`
	DBSizeBytes      int64          `json:"db_size_bytes"`
	TotalExperiences int            `json:"total_experiences"`
	TotalComparisons int            `json:"total_comparisons"`
	MinScore         float64        `json:"min_score"`
	MaxScore         float64        `json:"max_score"`
	MeanScore        float64        `json:"mean_score"`
	Buckets          []BucketCounts `json:"buckets"`
}

// BucketCounts holds the number of experiences whose score falls in [From, From+10).
// The last bucket includes 100.
type BucketCounts struct {
	From  int `json:"from"`
	Count int `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM comparisons`).Scan(&st.TotalComparisons)
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MIN(difficulty_score), 0), COALESCE(MAX(difficulty_score), 0), COALESCE(AVG(difficulty_score), 0)
		 FROM experiences`).Scan(&st.TotalExperiences, &st.MinScore, &st.MaxScore, &st.MeanScore)
	if err != nil {
		return st, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT MIN(CAST(difficulty_score / 10 AS INTEGER), 9) * 10 AS bucket, COUNT(*)
		FROM experiences GROUP BY bucket ORDER BY bucket`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var b BucketCounts
		if err := rows.Scan(&b.From, &b.Count); err != nil {
			return st, err
		}
		st.Buckets = append(st.Buckets, b)
	}

	return st, rows.Err()
}
