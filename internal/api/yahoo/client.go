package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	httpClient "github.com/Alias1177/StockSignal/internal/platform/http"
	"github.com/Alias1177/StockSignal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client fetches daily bars from the Yahoo Finance chart API
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Yahoo client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new Yahoo Finance client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://query1.finance.yahoo.com"
	}
	return &Client{
		baseURL: options.BaseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "yahoo_client").Logger(),
	}
}

// Name identifies the provider
func (c *Client) Name() string { return "yahoo" }

// chartResponse is the response structure from Yahoo Finance chart API
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch downloads the chart for req and returns it oldest first
func (c *Client) Fetch(ctx context.Context, req models.FetchRequest) (models.Series, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&events=history",
		c.baseURL, url.PathEscape(req.Symbol), url.QueryEscape(req.Period), url.QueryEscape(req.Interval))

	c.logger.Debug().Str("symbol", req.Symbol).Str("period", req.Period).Str("interval", req.Interval).Msg("Fetching chart")

	body, err := c.httpClient.Get(ctx, u)
	if err != nil {
		// Yahoo answers unknown tickers with 404 and a chart error body
		if code := httpClient.StatusCode(err); code == http.StatusNotFound || code == http.StatusBadRequest {
			return models.Series{}, models.NoDataError(req.Symbol, "unknown or delisted symbol")
		}
		return models.Series{}, fmt.Errorf("yahoo fetch %s: %w", req.Symbol, err)
	}

	bars, err := parseChart(body)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("No bars in chart response")
		return models.Series{}, models.NoDataError(req.Symbol, err.Error())
	}

	c.logger.Debug().Str("symbol", req.Symbol).Int("count", len(bars)).Msg("Fetched bars")
	return models.Series{Symbol: req.Symbol, Interval: req.Interval, Candles: bars}, nil
}

func parseChart(body []byte) ([]models.Candle, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]models.Candle, 0, len(result.Timestamp))
	seen := make(map[int64]bool, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bars (holidays, halted sessions)
		}
		if seen[ts] {
			continue
		}
		seen[ts] = true

		vol := at(quote.Volume, i)
		if vol < 0 {
			vol = 0
		}
		bars = append(bars, models.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: vol,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no data returned")
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}
