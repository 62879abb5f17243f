package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alias1177/StockSignal/internal/api/twelvedata"
	"github.com/Alias1177/StockSignal/internal/api/yahoo"
	"github.com/Alias1177/StockSignal/internal/config"
	"github.com/Alias1177/StockSignal/models"
)

// indianStocks are listed on NSE and need the .NS suffix on Yahoo
var indianStocks = map[string]bool{
	"INFY":      true,
	"RELIANCE":  true,
	"TCS":       true,
	"HDFCBANK":  true,
	"ICICIBANK": true,
	"WIPRO":     true,
	"SBIN":      true,
}

// NormalizeSymbol upper-cases a ticker and appends .NS for known Indian stocks
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if indianStocks[s] {
		return s + ".NS"
	}
	return s
}

// Request builds a normalized fetch request
func Request(symbol, period, interval string) models.FetchRequest {
	return models.FetchRequest{
		Symbol:   NormalizeSymbol(symbol),
		Period:   period,
		Interval: interval,
	}
}

// Fetch calls f after rejecting empty symbols, so providers never see them
func Fetch(ctx context.Context, f models.SeriesFetcher, req models.FetchRequest) (models.Series, error) {
	if req.Symbol == "" {
		return models.Series{}, models.NoDataError("<empty>", "ticker symbol is required")
	}
	series, err := f.Fetch(ctx, req)
	if err != nil {
		return models.Series{}, err
	}
	if series.Empty() {
		return models.Series{}, models.NoDataError(req.Symbol, "check if the ticker symbol is correct")
	}
	return series, nil
}

// NewProvider builds the configured market-data provider
func NewProvider(cfg *config.Config) (models.SeriesFetcher, error) {
	switch cfg.Data.Provider {
	case "", "yahoo":
		return yahoo.NewClient(yahoo.ClientOptions{
			BaseURL:         cfg.Data.YahooBaseURL,
			RequestTimeout:  cfg.Data.RequestTimeout,
			RequestsPerSec:  cfg.Data.RequestsPerSec,
			MaxRetryTimeout: cfg.Data.MaxRetryTime,
		}), nil
	case "twelvedata":
		return twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:          cfg.Data.TwelveAPIKey,
			BaseURL:         cfg.Data.TwelveBaseURL,
			RequestTimeout:  cfg.Data.RequestTimeout,
			RequestsPerSec:  cfg.Data.RequestsPerSec,
			MaxRetryTimeout: cfg.Data.MaxRetryTime,
		}), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.Data.Provider)
	}
}

// NewFetcher wraps the configured provider in a cache: Redis when an address
// is configured, in-process memory otherwise. The returned close func
// releases the cache connection.
func NewFetcher(ctx context.Context, cfg *config.Config) (models.SeriesFetcher, func() error, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }
	if cfg.Cache.TTL <= 0 {
		return provider, noop, nil
	}

	if cfg.Cache.RedisAddr == "" {
		return NewCachingFetcher(provider, NewMemoryStore(), cfg.Cache.TTL), noop, nil
	}
	store, err := NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPass, cfg.Cache.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis cache: %w", err)
	}
	return NewCachingFetcher(provider, store, cfg.Cache.TTL), store.Close, nil
}
