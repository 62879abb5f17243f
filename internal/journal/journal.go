// Package journal keeps an append-only log of issued predictions
package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alias1177/StockSignal/models"
)

// Recorder stores successful predictions and serves recent ones back
type Recorder interface {
	Record(ctx context.Context, rec models.PredictionRecord) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.PredictionRecord, error)
	Close() error
}

// Noop discards everything
type Noop struct{}

func (Noop) Record(context.Context, models.PredictionRecord) error { return nil }

func (Noop) Recent(context.Context, string, int) ([]models.PredictionRecord, error) {
	return nil, nil
}

func (Noop) Close() error { return nil }

// Open returns the recorder for driver. An empty driver yields Noop.
func Open(ctx context.Context, driver, dsn string) (Recorder, error) {
	switch driver {
	case "":
		return Noop{}, nil
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "sqlite":
		return NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
}

func encodeFeatures(features map[string]float64) (string, error) {
	if len(features) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encode features: %w", err)
	}
	return string(data), nil
}

func decodeFeatures(raw string) (map[string]float64, error) {
	features := map[string]float64{}
	if raw == "" {
		return features, nil
	}
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return features, nil
}
