// Package store keeps a SQLite history of completed analyses and text
// classifications.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"review-sentiment/internal/models"
	"review-sentiment/internal/rating"
)

var ErrNotFound = errors.New("analysis not found")

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id              TEXT PRIMARY KEY,
	url             TEXT NOT NULL,
	positive        INTEGER NOT NULL,
	negative        INTEGER NOT NULL,
	neutral         INTEGER NOT NULL,
	total_reviews   INTEGER NOT NULL,
	processing_time REAL NOT NULL,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);

CREATE TABLE IF NOT EXISTS reviews (
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	text        TEXT NOT NULL,
	score       REAL,
	sentiment   TEXT NOT NULL,
	PRIMARY KEY (analysis_id, position)
);

CREATE TABLE IF NOT EXISTS classifications (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	sentiment  TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_classifications_created_at ON classifications(created_at);
`

type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer; avoids SQLITE_BUSY between pooled connections
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{db: sqlDB, now: time.Now}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// SaveAnalysis stores a successful run and returns its generated ID.
func (d *DB) SaveAnalysis(ctx context.Context, url string, res models.PredictResult) (string, error) {
	id := uuid.NewString()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, url, positive, negative, neutral, total_reviews, processing_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, url,
		res.SentimentCounts.Positive, res.SentimentCounts.Negative, res.SentimentCounts.Neutral,
		res.TotalReviews, res.ProcessingTime, d.now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert analysis: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reviews (analysis_id, position, text, score, sentiment) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare review insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range res.Reviews {
		if _, err := stmt.ExecContext(ctx, id, i, r.Text, r.Score.Ptr(), string(r.Sentiment)); err != nil {
			return "", fmt.Errorf("insert review %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

const summaryColumns = `id, url, positive, negative, neutral, total_reviews, processing_time, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (models.AnalysisSummary, error) {
	var s models.AnalysisSummary
	var created int64
	err := row.Scan(&s.ID, &s.URL,
		&s.SentimentCounts.Positive, &s.SentimentCounts.Negative, &s.SentimentCounts.Neutral,
		&s.TotalReviews, &s.ProcessingTime, &created)
	if err != nil {
		return s, err
	}
	s.CreatedAt = time.Unix(0, created).UTC()
	return s, nil
}

func (d *DB) GetAnalysis(ctx context.Context, id string) (models.Analysis, error) {
	summary, err := scanSummary(d.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM analyses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Analysis{}, ErrNotFound
	}
	if err != nil {
		return models.Analysis{}, fmt.Errorf("get analysis: %w", err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT text, score, sentiment FROM reviews WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("get reviews: %w", err)
	}
	defer rows.Close()

	a := models.Analysis{AnalysisSummary: summary, Reviews: []models.ReviewRecord{}}
	for rows.Next() {
		var r models.ReviewRecord
		var score sql.NullFloat64
		var sentiment string
		if err := rows.Scan(&r.Text, &score, &sentiment); err != nil {
			return models.Analysis{}, fmt.Errorf("scan review: %w", err)
		}
		if score.Valid {
			r.Score = rating.Value(score.Float64)
		}
		r.Sentiment = models.Sentiment(sentiment)
		a.Reviews = append(a.Reviews, r)
	}
	return a, rows.Err()
}

// ListAnalyses returns the most recent analyses, newest first.
func (d *DB) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisSummary, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []models.AnalysisSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveClassification stores a single-text result and returns its generated ID.
func (d *DB) SaveClassification(ctx context.Context, c models.TextClassification) (string, error) {
	id := uuid.NewString()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO classifications (id, text, sentiment, created_at) VALUES (?, ?, ?, ?)`,
		id, c.Text, string(c.Sentiment), d.now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert classification: %w", err)
	}
	return id, nil
}

// ListClassifications returns the most recent classifications, newest first.
func (d *DB) ListClassifications(ctx context.Context, limit int) ([]models.Classification, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, text, sentiment, created_at FROM classifications ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer rows.Close()

	out := []models.Classification{}
	for rows.Next() {
		var c models.Classification
		var sentiment string
		var created int64
		if err := rows.Scan(&c.ID, &c.Text, &sentiment, &created); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		c.Sentiment = models.Sentiment(sentiment)
		c.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
