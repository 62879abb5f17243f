package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/Alias1177/StockSignal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Feature computes one named column over a whole series
type Feature struct {
	Name string
	// Lookback is the index of the first bar that can carry a value
	Lookback int
	Compute  func(s models.Series) []float64
}

// Named feature sets. Order is part of the model contract.
var (
	TechnicalSet = []string{"RSI", "MACD", "EMA20", "SMA50", "ADX", "ATR", "WILLR", "ROC"}
	RollingSet   = []string{"Return", "Volatility", "MA5", "MA10", "MA20", "Volume_Change"}
)

var registry = map[string]Feature{
	"RSI":           {Name: "RSI", Lookback: 14, Compute: func(s models.Series) []float64 { return RSI(s.Closes(), 14) }},
	"MACD":          {Name: "MACD", Lookback: 25, Compute: func(s models.Series) []float64 { return MACD(s.Closes(), 12, 26) }},
	"EMA20":         {Name: "EMA20", Lookback: 19, Compute: func(s models.Series) []float64 { return EMA(s.Closes(), 20) }},
	"SMA50":         {Name: "SMA50", Lookback: 49, Compute: func(s models.Series) []float64 { return SMA(s.Closes(), 50) }},
	"ADX":           {Name: "ADX", Lookback: 27, Compute: func(s models.Series) []float64 { h, l, c := hlc(s); return ADX(h, l, c, 14) }},
	"ATR":           {Name: "ATR", Lookback: 14, Compute: func(s models.Series) []float64 { h, l, c := hlc(s); return ATR(h, l, c, 14) }},
	"WILLR":         {Name: "WILLR", Lookback: 13, Compute: func(s models.Series) []float64 { h, l, c := hlc(s); return WilliamsR(h, l, c, 14) }},
	"ROC":           {Name: "ROC", Lookback: 12, Compute: func(s models.Series) []float64 { return ROC(s.Closes(), 12) }},
	"Return":        {Name: "Return", Lookback: 1, Compute: func(s models.Series) []float64 { return PctChange(s.Closes()) }},
	"Volatility":    {Name: "Volatility", Lookback: 4, Compute: func(s models.Series) []float64 { return RollingStd(s.Closes(), 5) }},
	"MA5":           {Name: "MA5", Lookback: 4, Compute: func(s models.Series) []float64 { return SMA(s.Closes(), 5) }},
	"MA10":          {Name: "MA10", Lookback: 9, Compute: func(s models.Series) []float64 { return SMA(s.Closes(), 10) }},
	"MA20":          {Name: "MA20", Lookback: 19, Compute: func(s models.Series) []float64 { return SMA(s.Closes(), 20) }},
	"Volume_Change": {Name: "Volume_Change", Lookback: 1, Compute: func(s models.Series) []float64 { return PctChange(volumes(s)) }},
}

func hlc(s models.Series) (high, low, closes []float64) {
	high = make([]float64, s.Len())
	low = make([]float64, s.Len())
	closes = make([]float64, s.Len())
	for i, c := range s.Candles {
		high[i], low[i], closes[i] = c.High, c.Low, c.Close
	}
	return high, low, closes
}

func volumes(s models.Series) []float64 {
	out := make([]float64, s.Len())
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// FeatureSet resolves a configured set name
func FeatureSet(name string) ([]string, error) {
	switch name {
	case "", "technical":
		return append([]string(nil), TechnicalSet...), nil
	case "rolling":
		return append([]string(nil), RollingSet...), nil
	default:
		return nil, fmt.Errorf("unknown feature set %q", name)
	}
}

// Known lists every feature the engineer can compute
func Known() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table is the output of Build. Positions[i] is the series index Rows[i] was computed at.
type Table struct {
	Names     []string
	Rows      []models.FeatureRow
	Positions []int
}

// Len returns the number of complete rows
func (t Table) Len() int { return len(t.Rows) }

// Matrix returns the row values in table order
func (t Table) Matrix() [][]float64 {
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values
	}
	return out
}

// Engineer turns a price series into fixed-width feature rows
type Engineer struct {
	features []Feature
	names    []string
	logger   zerolog.Logger
}

// NewEngineer builds an engineer for the given ordered feature names
func NewEngineer(names []string) (*Engineer, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no features requested")
	}
	e := &Engineer{
		names:  append([]string(nil), names...),
		logger: log.With().Str("component", "feature_engineer").Logger(),
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		f, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown feature %q", models.ErrFeatureMismatch, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		seen[name] = true
		e.features = append(e.features, f)
	}
	return e, nil
}

// NewEngineerForSet is NewEngineer over a named set
func NewEngineerForSet(set string) (*Engineer, error) {
	names, err := FeatureSet(set)
	if err != nil {
		return nil, err
	}
	return NewEngineer(names)
}

// Names returns the ordered feature names
func (e *Engineer) Names() []string {
	return append([]string(nil), e.names...)
}

// MinHistory is the number of bars needed before the first row can exist
func (e *Engineer) MinHistory() int {
	longest := 0
	for _, f := range e.features {
		if f.Lookback > longest {
			longest = f.Lookback
		}
	}
	return longest + 1
}

// Build computes every feature over series and keeps only the rows where
// all of them are finite. Each row depends only on bars at or before it.
func (e *Engineer) Build(series models.Series) (Table, error) {
	if series.Empty() {
		return Table{}, models.NoDataError(series.Symbol, "empty series")
	}

	columns := make([][]float64, len(e.features))
	for j, f := range e.features {
		columns[j] = f.Compute(series)
	}

	names := e.Names()
	table := Table{Names: names}
	for i, candle := range series.Candles {
		values := make([]float64, len(columns))
		complete := true
		for j, col := range columns {
			v := col[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				complete = false
				break
			}
			values[j] = v
		}
		if !complete {
			continue
		}
		table.Rows = append(table.Rows, models.FeatureRow{Time: candle.Time, Names: names, Values: values})
		table.Positions = append(table.Positions, i)
	}

	e.logger.Debug().
		Str("symbol", series.Symbol).
		Int("bars", series.Len()).
		Int("rows", table.Len()).
		Int("dropped", series.Len()-table.Len()).
		Msg("Built feature table")
	return table, nil
}

// Latest returns the most recent complete row
func (e *Engineer) Latest(series models.Series) (models.FeatureRow, error) {
	table, err := e.Build(series)
	if err != nil {
		return models.FeatureRow{}, err
	}
	if table.Len() == 0 {
		return models.FeatureRow{}, fmt.Errorf("%s: %w (have %d bars, need at least %d)",
			series.Symbol, models.ErrInsufficientHistory, series.Len(), e.MinHistory())
	}
	return table.Rows[table.Len()-1], nil
}
