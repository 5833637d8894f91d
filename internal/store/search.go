package store

import (
	"context"
	"strings"

	"github.com/rcliao/experience-rank/internal/model"
)

// SearchParams holds parameters for searching experiences.
type SearchParams struct {
	Query string
	Limit int
}

// Search finds experiences whose text contains the query substring,
// hardest first.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Experience, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx,
		`SELECT `+experienceColumns+` FROM experiences
		 WHERE text LIKE ? ESCAPE '\'
		 ORDER BY relative_rank DESC, id
		 LIMIT ?`, "%"+escapeLike(p.Query)+"%", limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in q match literally.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

// List returns experiences hardest first.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Experience, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx,
		`SELECT `+experienceColumns+` FROM experiences
		 ORDER BY relative_rank DESC, id
		 LIMIT ?`, limit)
}
