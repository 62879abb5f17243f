package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Alias1177/StockSignal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		BaseURL:         url,
		RequestTimeout:  5 * time.Second,
		RequestsPerSec:  50,
		MaxRetryTimeout: 2 * time.Second,
	})
}

func TestFetch_ParsesChart(t *testing.T) {
	fixture, err := os.ReadFile("testdata/aapl_chart.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "3mo", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	series, err := newTestClient(srv.URL).Fetch(context.Background(), models.FetchRequest{
		Symbol: "AAPL", Period: "3mo", Interval: "1d",
	})
	require.NoError(t, err)

	// null bar skipped, duplicate timestamp dropped
	require.Equal(t, 3, series.Len())
	assert.Equal(t, "AAPL", series.Symbol)
	assert.InDelta(t, 185.64, series.Candles[0].Close, 1e-9)
	assert.InDelta(t, 181.18, series.Last().Close, 1e-9)
	assert.InDelta(t, 82488700, series.Candles[0].Volume, 1e-9)
	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Candles[i-1].Time.Before(series.Candles[i].Time))
	}
}

func TestFetch_UnknownSymbol(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "404 with chart error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			},
		},
		{
			name: "200 with chart error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
			},
		},
		{
			name: "empty result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv.URL).Fetch(context.Background(), models.FetchRequest{
				Symbol: "BADSYMBOL", Period: "1y", Interval: "1d",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrDataUnavailable)
		})
	}
}
