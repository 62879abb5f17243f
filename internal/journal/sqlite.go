package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Alias1177/StockSignal/models"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLite persists predictions to a local database file. Times are stored
// as unix milliseconds.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the database at path and runs migrations
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// ":memory:" databases live per connection
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", path).Msg("SQLite journal opened")
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT NOT NULL,
			bar_time   INTEGER NOT NULL,
			signal     TEXT NOT NULL,
			features   TEXT NOT NULL,
			source     TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_symbol ON predictions(symbol, id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record appends a prediction
func (s *SQLite) Record(ctx context.Context, rec models.PredictionRecord) error {
	features, err := encodeFeatures(rec.Features)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO predictions (symbol, bar_time, signal, features, source, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.BarTime.UnixMilli(), string(rec.Signal), features, rec.Source, rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Recent returns up to limit predictions for symbol, newest first
func (s *SQLite) Recent(ctx context.Context, symbol string, limit int) ([]models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, bar_time, signal, features, source, created_at FROM predictions WHERE symbol = ? ORDER BY id DESC LIMIT ?`,
		symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRecord
	for rows.Next() {
		var rec models.PredictionRecord
		var signal, features string
		var barMs, createdMs int64
		if err := rows.Scan(&rec.Symbol, &barMs, &signal, &features, &rec.Source, &createdMs); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		rec.BarTime = time.UnixMilli(barMs).UTC()
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		rec.Signal = models.Signal(signal)
		if rec.Features, err = decodeFeatures(features); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLite) Close() error {
	log.Info().Msg("Closing SQLite journal")
	return s.db.Close()
}
