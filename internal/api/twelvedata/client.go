package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	httpClient "github.com/Alias1177/StockSignal/internal/platform/http"
	"github.com/Alias1177/StockSignal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxOutputSize is the largest page Twelve Data serves in one call
const maxOutputSize = 5000

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// timeSeriesResponse represents the API response from Twelve Data
type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   float64 `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: options.BaseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// Name identifies the provider
func (c *Client) Name() string { return "twelvedata" }

// Fetch fetches candle data from Twelve Data API
func (c *Client) Fetch(ctx context.Context, req models.FetchRequest) (models.Series, error) {
	outputSize := models.BarsForPeriod(req.Period, req.Interval)
	if outputSize == 0 || outputSize > maxOutputSize {
		outputSize = maxOutputSize
	}

	u := fmt.Sprintf(
		"%s/time_series?symbol=%s&interval=%s&outputsize=%d&apikey=%s",
		c.baseURL,
		url.QueryEscape(req.Symbol),
		mapInterval(req.Interval),
		outputSize,
		url.QueryEscape(c.apiKey),
	)

	c.logger.Debug().Str("symbol", req.Symbol).Int("outputSize", outputSize).Msg("Fetching candles")

	body, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return models.Series{}, fmt.Errorf("HTTP request failed: %w", err)
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return models.Series{}, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Warn().Str("symbol", req.Symbol).Str("message", data.Message).Msg("Twelve Data API error")
		return models.Series{}, models.NoDataError(req.Symbol, data.Message)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", req.Symbol).Msg("No candles in response")
		return models.Series{}, models.NoDataError(req.Symbol, "empty data returned")
	}

	var candles []models.Candle
	seen := make(map[time.Time]bool, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			return models.Series{}, fmt.Errorf("parsing datetime %q: %w", v.Datetime, err)
		}
		if seen[ts] {
			continue
		}
		seen[ts] = true
		candles = append(candles, models.Candle{
			Time:   ts,
			Open:   v.Open,
			High:   v.High,
			Low:    v.Low,
			Close:  v.Close,
			Volume: v.Volume,
		})
	}

	// Sort candles by datetime (oldest first for proper calculations)
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return models.Series{Symbol: req.Symbol, Interval: req.Interval, Candles: candles}, nil
}

// mapInterval translates Yahoo-style intervals into Twelve Data names
func mapInterval(interval string) string {
	switch interval {
	case "", "1d":
		return "1day"
	case "1wk":
		return "1week"
	case "1mo":
		return "1month"
	case "1m", "5m", "15m", "30m", "45m":
		return strings.TrimSuffix(interval, "m") + "min"
	default:
		return interval
	}
}

func parseDatetime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
