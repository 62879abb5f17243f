package metrics

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/StockSignal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ObservePrediction(t *testing.T) {
	r := New()
	r.ObservePrediction("cli", models.SymbolResult{Symbol: "AAPL", Signal: models.SignalBuy}, 10*time.Millisecond)
	r.ObservePrediction("cli", models.SymbolResult{Symbol: "AAPL", Signal: models.SignalBuy}, 10*time.Millisecond)
	r.ObservePrediction("bot", models.SymbolResult{
		Symbol: "BAD",
		Signal: models.SignalError,
		Err:    fmt.Errorf("wrap: %w", models.ErrDataUnavailable),
	}, time.Millisecond)
	r.RecordCommand("predict")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues("cli", "Buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("bot", "data_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("predict")))
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObservePrediction("cli", models.SymbolResult{}, time.Second)
		r.RecordCommand("predict")
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RecordCommand("start")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `stocksignal_bot_commands_total{command="start"} 1`))
}
