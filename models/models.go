package models

import (
	"time"
)

// Candle is a single OHLCV bar
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ascending, duplicate-free sequence of candles for one symbol
type Series struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Candles  []Candle `json:"candles"`
}

// Len returns the number of bars in the series
func (s Series) Len() int { return len(s.Candles) }

// Empty reports whether the provider returned no bars
func (s Series) Empty() bool { return len(s.Candles) == 0 }

// Last returns the most recent bar. The series must not be empty.
func (s Series) Last() Candle { return s.Candles[len(s.Candles)-1] }

// Closes extracts close prices in series order
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// FetchRequest describes a provider call
type FetchRequest struct {
	Symbol   string `json:"symbol"`
	Period   string `json:"period"`   // 60d, 3mo, 1y, 2y ...
	Interval string `json:"interval"` // 1d, 1wk, 1h ...
}

// FeatureRow is a fixed-width vector of named features computed at Time
type FeatureRow struct {
	Time   time.Time `json:"time"`
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// Value returns the named feature and whether the row carries it
func (r FeatureRow) Value(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Signal is the discrete classifier output
type Signal string

const (
	SignalBuy  Signal = "Buy"
	SignalSell Signal = "Sell"
	// SignalError marks a symbol whose pipeline failed
	SignalError Signal = "Error"
)

// SignalFromClass maps a binary classifier output to a Signal
func SignalFromClass(class int) Signal {
	if class == 1 {
		return SignalBuy
	}
	return SignalSell
}

// SymbolResult is the outcome of one fetch → features → predict run.
// Exactly one of Row/Signal or Err is meaningful.
type SymbolResult struct {
	Symbol string      `json:"symbol"`
	Date   time.Time   `json:"date"`
	Row    *FeatureRow `json:"row,omitempty"`
	Signal Signal      `json:"signal"`
	Stage  string      `json:"stage,omitempty"`
	Err    error       `json:"-"`
}

// OK reports whether the run produced a signal
func (r SymbolResult) OK() bool { return r.Err == nil }

// Kind classifies the failure, or returns an empty kind on success
func (r SymbolResult) Kind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return ErrorKindOf(r.Err)
}

// PredictionRecord is a journal entry for a successful prediction
type PredictionRecord struct {
	Symbol    string             `json:"symbol"`
	BarTime   time.Time          `json:"bar_time"`
	Signal    Signal             `json:"signal"`
	Features  map[string]float64 `json:"features"`
	Source    string             `json:"source"` // cli, bot, watchlist
	CreatedAt time.Time          `json:"created_at"`
}
