package market

import (
	"context"
	"testing"
	"time"

	"github.com/Alias1177/StockSignal/internal/config"
	"github.com/Alias1177/StockSignal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls  int
	series models.Series
	err    error
}

func (f *countingFetcher) Name() string { return "fake" }

func (f *countingFetcher) Fetch(_ context.Context, req models.FetchRequest) (models.Series, error) {
	f.calls++
	if f.err != nil {
		return models.Series{}, f.err
	}
	s := f.series
	s.Symbol = req.Symbol
	return s, nil
}

func TestNormalizeSymbol(t *testing.T) {
	tests := map[string]string{
		"aapl":      "AAPL",
		" infy ":    "INFY.NS",
		"tcs":       "TCS.NS",
		"INFY.NS":   "INFY.NS",
		"brk-b":     "BRK-B",
		"":          "",
		"RELIANCE":  "RELIANCE.NS",
		"icicibank": "ICICIBANK.NS",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeSymbol(in), in)
	}
}

func TestFetch_RejectsEmptySymbolAndSeries(t *testing.T) {
	f := &countingFetcher{}

	_, err := Fetch(context.Background(), f, Request("  ", "1y", "1d"))
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	assert.Equal(t, 0, f.calls, "provider must not be called for an empty symbol")

	_, err = Fetch(context.Background(), f, Request("ZZZZ", "1y", "1d"))
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	assert.Equal(t, 1, f.calls)
}

func TestCachingFetcher_ServesRepeatedRequests(t *testing.T) {
	f := &countingFetcher{series: models.Series{Candles: []models.Candle{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10, Volume: 5},
	}}}
	cached := NewCachingFetcher(f, NewMemoryStore(), time.Minute)
	req := Request("aapl", "1y", "1d")

	first, err := cached.Fetch(context.Background(), req)
	require.NoError(t, err)
	second, err := cached.Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, first.Symbol, second.Symbol)
	assert.True(t, first.Candles[0].Time.Equal(second.Candles[0].Time))
	assert.Equal(t, "fake", cached.Name())

	_, err = cached.Fetch(context.Background(), Request("msft", "1y", "1d"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls, "different key goes to the provider")
}

func TestCachingFetcher_DoesNotCacheErrors(t *testing.T) {
	f := &countingFetcher{err: models.NoDataError("BAD", "")}
	cached := NewCachingFetcher(f, NewMemoryStore(), time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cached.Fetch(context.Background(), Request("bad", "1y", "1d"))
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
	}
	assert.Equal(t, 2, f.calls)
}

func TestCachingFetcher_ZeroTTLDisables(t *testing.T) {
	f := &countingFetcher{}
	assert.Same(t, models.SeriesFetcher(f), NewCachingFetcher(f, NewMemoryStore(), 0))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), time.Minute))
	got, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStore_ExpiredGetKeepsConcurrentRefresh(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	require.NoError(t, store.Set(ctx, "k", []byte("old"), time.Minute))

	// refresh the key between Get's read and its eviction
	now = now.Add(2 * time.Minute)
	refreshed := false
	store.now = func() time.Time {
		if !refreshed {
			refreshed = true
			require.NoError(t, store.Set(ctx, "k", []byte("new"), time.Minute))
		}
		return now
	}

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.Provider = "yahoo"
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", p.Name())

	cfg.Data.Provider = "twelvedata"
	p, err = NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "twelvedata", p.Name())

	cfg.Data.Provider = "nope"
	_, err = NewProvider(cfg)
	assert.Error(t, err)
}

func TestNewFetcher_CacheSelection(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.Data.Provider = "yahoo"

	f, closeFn, err := NewFetcher(ctx, cfg)
	require.NoError(t, err)
	assert.NoError(t, closeFn())
	_, cached := f.(*CachingFetcher)
	assert.False(t, cached, "zero TTL disables caching")

	cfg.Cache.TTL = time.Minute
	f, closeFn, err = NewFetcher(ctx, cfg)
	require.NoError(t, err)
	assert.NoError(t, closeFn())
	assert.IsType(t, &CachingFetcher{}, f)
	assert.Equal(t, "yahoo", f.Name())
}
