package store

import (
	"context"

	"github.com/rcliao/experience-rank/internal/model"
)

// ExportAll returns all experiences in creation order.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Experience, error) {
	return s.query(ctx, `SELECT `+experienceColumns+` FROM experiences ORDER BY id`)
}
