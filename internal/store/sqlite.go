package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/experience-rank/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	q       querier
	inTx    bool
	entropy *ulid.LockedMonotonicReader
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db: db,
		q:  db,
		entropy: &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		},
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newID returns a ULID. Monotonic entropy keeps ids in creation order
// even within the same millisecond.
func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS experiences (
		id               TEXT PRIMARY KEY,
		text             TEXT NOT NULL,
		embedding        TEXT NOT NULL,
		difficulty_score REAL NOT NULL,
		relative_rank    REAL NOT NULL DEFAULT 0,
		detailed_scores  TEXT,
		created_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_experiences_text ON experiences(text);
	CREATE INDEX IF NOT EXISTS idx_experiences_score ON experiences(difficulty_score, id);
	CREATE INDEX IF NOT EXISTS idx_experiences_rank ON experiences(relative_rank DESC);

	CREATE TABLE IF NOT EXISTS comparisons (
		id                            TEXT PRIMARY KEY,
		experience_id                 TEXT NOT NULL REFERENCES experiences(id),
		is_more_difficult_than_lower  INTEGER NOT NULL,
		is_less_difficult_than_higher INTEGER NOT NULL,
		created_at                    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comparisons_experience ON comparisons(experience_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

const experienceColumns = `id, text, embedding, difficulty_score, relative_rank, detailed_scores, created_at`

func (s *SQLiteStore) Insert(ctx context.Context, p InsertParams) (*model.Experience, error) {
	now := time.Now().UTC()
	id := s.newID()

	embJSON, err := json.Marshal(p.Embedding)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}

	var detailedJSON *string
	if len(p.DetailedScores) > 0 {
		b, _ := json.Marshal(p.DetailedScores)
		s := string(b)
		detailedJSON = &s
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO experiences (`+experienceColumns+`)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		id, p.Text, string(embJSON), p.DifficultyScore, detailedJSON, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert experience: %w", err)
	}

	return &model.Experience{
		ID:              id,
		Text:            p.Text,
		Embedding:       p.Embedding,
		DifficultyScore: p.DifficultyScore,
		DetailedScores:  p.DetailedScores,
		CreatedAt:       now,
	}, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+experienceColumns+` FROM experiences WHERE id = ?`, id)
	e, err := scanExperience(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) GetByText(ctx context.Context, text string) (*model.Experience, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+experienceColumns+` FROM experiences WHERE text = ? ORDER BY id LIMIT 1`, text)
	e, err := scanExperience(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]model.Experience, error) {
	return s.query(ctx, `SELECT `+experienceColumns+` FROM experiences ORDER BY difficulty_score, id`)
}

func (s *SQLiteStore) Adjacent(ctx context.Context, score float64) (*model.Experience, *model.Experience, error) {
	lower, err := s.first(ctx,
		`SELECT `+experienceColumns+` FROM experiences
		 WHERE difficulty_score < ? ORDER BY difficulty_score DESC, id LIMIT 1`, score)
	if err != nil {
		return nil, nil, err
	}
	higher, err := s.first(ctx,
		`SELECT `+experienceColumns+` FROM experiences
		 WHERE difficulty_score > ? ORDER BY difficulty_score, id LIMIT 1`, score)
	if err != nil {
		return nil, nil, err
	}
	return lower, higher, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiences`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) UpdateScore(ctx context.Context, id string, score float64) (*model.Experience, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE experiences SET difficulty_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return nil, fmt.Errorf("update score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.GetByID(ctx, id)
}

func (s *SQLiteStore) UpdateRank(ctx context.Context, id string, rank float64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE experiences SET relative_rank = ? WHERE id = ?`, rank, id)
	if err != nil {
		return fmt.Errorf("update rank: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) InsertComparison(ctx context.Context, p ComparisonParams) (*model.Comparison, error) {
	now := time.Now().UTC()
	id := s.newID()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO comparisons (id, experience_id, is_more_difficult_than_lower, is_less_difficult_than_higher, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, p.ExperienceID, p.IsMoreDifficultThanLower, p.IsLessDifficultThanHigher, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert comparison: %w", err)
	}

	return &model.Comparison{
		ID:                        id,
		ExperienceID:              p.ExperienceID,
		IsMoreDifficultThanLower:  p.IsMoreDifficultThanLower,
		IsLessDifficultThanHigher: p.IsLessDifficultThanHigher,
		CreatedAt:                 now,
	}, nil
}

func (s *SQLiteStore) Comparisons(ctx context.Context, experienceID string) ([]model.Comparison, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, experience_id, is_more_difficult_than_lower, is_less_difficult_than_higher, created_at
		 FROM comparisons WHERE experience_id = ? ORDER BY id`, experienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Comparison
	for rows.Next() {
		var c model.Comparison
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ExperienceID, &c.IsMoreDifficultThanLower, &c.IsLessDifficultThanHigher, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	txStore := &SQLiteStore{db: s.db, q: tx, inTx: true, entropy: s.entropy}
	if err := fn(txStore); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]model.Experience, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Experience
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) first(ctx context.Context, query string, args ...any) (*model.Experience, error) {
	e, err := scanExperience(s.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExperience(row scanner) (model.Experience, error) {
	var e model.Experience
	var embJSON, createdAt string
	var detailed sql.NullString

	err := row.Scan(&e.ID, &e.Text, &embJSON, &e.DifficultyScore, &e.RelativeRank, &detailed, &createdAt)
	if err != nil {
		return e, err
	}

	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if err := json.Unmarshal([]byte(embJSON), &e.Embedding); err != nil {
		return e, fmt.Errorf("decode embedding for %s: %w", e.ID, err)
	}
	if detailed.Valid {
		json.Unmarshal([]byte(detailed.String), &e.DetailedScores)
	}
	return e, nil
}
