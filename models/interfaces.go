package models

import "context"

// SeriesFetcher retrieves OHLCV history from a market-data provider
type SeriesFetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (Series, error)
	Name() string
}
