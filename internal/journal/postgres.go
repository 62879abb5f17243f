package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alias1177/StockSignal/models"
	_ "github.com/lib/pq"
)

// Postgres represents a database connection
type Postgres struct {
	*sql.DB
}

// NewPostgres opens dsn, checks the connection and creates the table
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Postgres{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS predictions (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			bar_time TIMESTAMPTZ NOT NULL,
			signal TEXT NOT NULL,
			features JSONB NOT NULL,
			source TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create predictions table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_predictions_symbol ON predictions (symbol, id DESC)
	`)
	if err != nil {
		return fmt.Errorf("create predictions index: %w", err)
	}
	return nil
}

// Record appends a prediction
func (db *Postgres) Record(ctx context.Context, rec models.PredictionRecord) error {
	features, err := encodeFeatures(rec.Features)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO predictions (
			symbol, bar_time, signal, features, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		rec.Symbol, rec.BarTime.UTC(), string(rec.Signal), features, rec.Source, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Recent returns up to limit predictions for symbol, newest first
func (db *Postgres) Recent(ctx context.Context, symbol string, limit int) ([]models.PredictionRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT symbol, bar_time, signal, features::text, source, created_at
		FROM predictions
		WHERE symbol = $1
		ORDER BY id DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRecord
	for rows.Next() {
		var rec models.PredictionRecord
		var signal, features string
		if err := rows.Scan(&rec.Symbol, &rec.BarTime, &signal, &features, &rec.Source, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		rec.Signal = models.Signal(signal)
		if rec.Features, err = decodeFeatures(features); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
