// Package testutil builds deterministic market data for tests
package testutil

import (
	"math/rand"
	"time"

	"github.com/Alias1177/StockSignal/models"
)

// Start is the timestamp of the first generated bar
var Start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// GenerateCandles builds n daily candles using gen for each index
func GenerateCandles(n int, gen func(i int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		c := gen(i)
		if c.Time.IsZero() {
			c.Time = Start.AddDate(0, 0, i)
		}
		candles[i] = c
	}
	return candles
}

// RandomWalk is a seeded daily series with non-flat highs and lows
func RandomWalk(symbol string, n int, seed int64) models.Series {
	rng := rand.New(rand.NewSource(seed))
	price := 100.0
	candles := GenerateCandles(n, func(i int) models.Candle {
		open := price
		price *= 1 + rng.NormFloat64()*0.015
		if price < 1 {
			price = 1
		}
		hi := max(open, price) * (1 + rng.Float64()*0.01 + 0.001)
		lo := min(open, price) * (1 - rng.Float64()*0.01 - 0.001)
		return models.Candle{
			Open:   open,
			High:   hi,
			Low:    lo,
			Close:  price,
			Volume: 1e6 + rng.Float64()*5e5,
		}
	})
	return models.Series{Symbol: symbol, Interval: "1d", Candles: candles}
}

// Closes builds a series from close prices only, with a 1% band around each close
func Closes(symbol string, closes ...float64) models.Series {
	candles := GenerateCandles(len(closes), func(i int) models.Candle {
		c := closes[i]
		return models.Candle{Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000}
	})
	return models.Series{Symbol: symbol, Interval: "1d", Candles: candles}
}
