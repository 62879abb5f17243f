package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodDays(t *testing.T) {
	tests := map[string]int{
		"60d":  60,
		"2wk":  14,
		"3mo":  90,
		"1y":   365,
		"2Y":   730,
		"ytd":  365,
		"max":  365 * 30,
		"":     0,
		"abc":  0,
		"0d":   0,
		"5xyz": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, PeriodDays(in), in)
	}
}

func TestBarsForPeriod(t *testing.T) {
	assert.Equal(t, 42, BarsForPeriod("60d", "1d"))
	assert.Equal(t, 260, BarsForPeriod("1y", "1d"))
	assert.Equal(t, 52, BarsForPeriod("1y", "1wk"))
	assert.Equal(t, 1, BarsForPeriod("1d", "1mo"))
	assert.Equal(t, 0, BarsForPeriod("bogus", "1d"))
}

func TestErrorKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{NoDataError("AAPL", "delisted"), KindDataUnavailable},
		{fmt.Errorf("X: %w", ErrInsufficientHistory), KindInsufficientHistory},
		{fmt.Errorf("load: %w", ErrModelUnavailable), KindModelUnavailable},
		{ErrFeatureMismatch, KindFeatureMismatch},
		{errors.New("socket closed"), KindUnexpected},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, ErrorKindOf(tt.err), tt.err.Error())
	}

	assert.False(t, Recoverable(ErrModelUnavailable))
	assert.True(t, Recoverable(NoDataError("AAPL", "")))
}

func TestNoDataError(t *testing.T) {
	assert.Equal(t, "AAPL: no data found", NoDataError("AAPL", "").Error())
	assert.Equal(t, "AAPL: no data found: delisted", NoDataError("AAPL", "delisted").Error())
}

func TestSymbolResult(t *testing.T) {
	ok := SymbolResult{Symbol: "AAPL", Signal: SignalBuy}
	assert.True(t, ok.OK())
	assert.Empty(t, ok.Kind())

	failed := SymbolResult{Symbol: "BAD", Signal: SignalError, Err: NoDataError("BAD", "")}
	assert.False(t, failed.OK())
	assert.Equal(t, KindDataUnavailable, failed.Kind())

	assert.Equal(t, SignalBuy, SignalFromClass(1))
	assert.Equal(t, SignalSell, SignalFromClass(0))
}

func TestFeatureRowValue(t *testing.T) {
	row := FeatureRow{Names: []string{"RSI", "MACD"}, Values: []float64{55, -0.3}}
	v, ok := row.Value("MACD")
	assert.True(t, ok)
	assert.Equal(t, -0.3, v)

	_, ok = row.Value("ADX")
	assert.False(t, ok)
}
