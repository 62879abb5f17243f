package testutil

import (
	"context"
	"sync"

	"github.com/Alias1177/StockSignal/models"
)

// StaticFetcher serves canned series by symbol. Unknown symbols are reported
// as having no data, like a provider answering for a delisted ticker.
type StaticFetcher struct {
	mu     sync.Mutex
	Series map[string]models.Series
	Errors map[string]error
	Calls  []models.FetchRequest
}

// NewStaticFetcher creates an empty fetcher
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{Series: map[string]models.Series{}, Errors: map[string]error{}}
}

// With registers series under its symbol
func (f *StaticFetcher) With(series models.Series) *StaticFetcher {
	f.Series[series.Symbol] = series
	return f
}

// Failing makes symbol fail with err
func (f *StaticFetcher) Failing(symbol string, err error) *StaticFetcher {
	f.Errors[symbol] = err
	return f
}

func (f *StaticFetcher) Name() string { return "static" }

func (f *StaticFetcher) Fetch(ctx context.Context, req models.FetchRequest) (models.Series, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return models.Series{}, err
	}
	if err, ok := f.Errors[req.Symbol]; ok {
		return models.Series{}, err
	}
	s, ok := f.Series[req.Symbol]
	if !ok {
		return models.Series{}, models.NoDataError(req.Symbol, "unknown symbol")
	}
	return s, nil
}
