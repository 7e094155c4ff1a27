package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"numerox/internal/prediction"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ PredictionStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	splitter   TEXT NOT NULL,
	data_hash  TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS predictions (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	row_id TEXT NOT NULL,
	name   TEXT NOT NULL,
	score  REAL,
	PRIMARY KEY (run_id, name, row_id)
);
CREATE INDEX IF NOT EXISTS predictions_run_seq ON predictions (run_id, seq);
`

// SQLiteStore implements PredictionStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// tables if needed and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run and all of its scores in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, p *prediction.Prediction) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.Rows = p.Len()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, model, splitter, data_hash, row_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Model, run.Splitter, run.DataHash, run.Rows, run.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO predictions (run_id, seq, row_id, name, score) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for _, name := range p.Names() {
		ids, scores := p.Column(name)
		for i, id := range ids {
			score := sql.NullFloat64{Float64: scores[i], Valid: !math.IsNaN(scores[i])}
			if _, err := stmt.ExecContext(ctx, run.ID, seq, id, name, score); err != nil {
				return fmt.Errorf("inserting score %s/%s: %w", name, id, err)
			}
			seq++
		}
	}
	return tx.Commit()
}

// LoadRun reads a run and rebuilds its Prediction.
func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*Run, *prediction.Prediction, error) {
	var (
		run     Run
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, model, splitter, data_hash, row_count, created_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Model, &run.Splitter, &run.DataHash, &run.Rows, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading run %s: %w", id, err)
	}
	run.CreatedAt = time.UnixMilli(created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, name, score FROM predictions WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scores of %s: %w", id, err)
	}
	defer rows.Close()

	type column struct {
		ids    []string
		scores []float64
	}
	var names []string
	cols := make(map[string]*column)
	for rows.Next() {
		var (
			rowID, name string
			score       sql.NullFloat64
		)
		if err := rows.Scan(&rowID, &name, &score); err != nil {
			return nil, nil, fmt.Errorf("scanning score: %w", err)
		}
		c, ok := cols[name]
		if !ok {
			c = &column{}
			cols[name] = c
			names = append(names, name)
		}
		c.ids = append(c.ids, rowID)
		if score.Valid {
			c.scores = append(c.scores, score.Float64)
		} else {
			c.scores = append(c.scores, math.NaN())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading scores of %s: %w", id, err)
	}

	p := prediction.New()
	for _, name := range names {
		if err := p.Add(name, cols[name].ids, cols[name].scores); err != nil {
			return nil, nil, err
		}
	}
	return &run, p, nil
}

// ListRuns returns every stored run, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model, splitter, data_hash, row_count, created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Model, &r.Splitter, &r.DataHash, &r.Rows, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
