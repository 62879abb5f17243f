package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Every function here returns a slice aligned with its input. Positions
// without enough history, or whose value is not finite, hold NaN.

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func finiteOrNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// SMA is the trailing simple mean over window values
func SMA(x []float64, window int) []float64 {
	out := undefinedSeries(len(x))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		out[i] = finiteOrNaN(stat.Mean(x[i-window+1:i+1], nil))
	}
	return out
}

// RollingStd is the trailing sample standard deviation (n-1) over window values
func RollingStd(x []float64, window int) []float64 {
	out := undefinedSeries(len(x))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		out[i] = finiteOrNaN(stat.StdDev(x[i-window+1:i+1], nil))
	}
	return out
}

// PctChange is x[i]/x[i-1] - 1. A zero predecessor leaves the value undefined.
func PctChange(x []float64) []float64 {
	out := undefinedSeries(len(x))
	for i := 1; i < len(x); i++ {
		if x[i-1] == 0 {
			continue
		}
		out[i] = finiteOrNaN(x[i]/x[i-1] - 1)
	}
	return out
}

// ewm is an exponentially weighted mean without bias adjustment, seeded with
// the first defined input and reported once minPeriods inputs were seen.
// Undefined inputs yield undefined outputs and leave the running mean intact.
func ewm(x []float64, alpha float64, minPeriods int) []float64 {
	out := undefinedSeries(len(x))
	start := -1
	for i, v := range x {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}

	avg := x[start]
	seen := 0
	for i := start; i < len(x); i++ {
		v := x[i]
		if math.IsNaN(v) {
			continue
		}
		if i > start {
			avg = alpha*v + (1-alpha)*avg
		}
		seen++
		if seen >= minPeriods {
			out[i] = finiteOrNaN(avg)
		}
	}
	return out
}

// EMA uses span semantics: alpha = 2/(span+1), defined after span values
func EMA(x []float64, span int) []float64 {
	if span <= 0 {
		return undefinedSeries(len(x))
	}
	return ewm(x, 2.0/float64(span+1), span)
}

// RSI is Wilder's relative strength index over period
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := undefinedSeries(n)
	if period <= 0 || n < 2 {
		return out
	}

	gains := undefinedSeries(n)
	losses := undefinedSeries(n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	alpha := 1.0 / float64(period)
	avgGain := ewm(gains, alpha, period)
	avgLoss := ewm(losses, alpha, period)

	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			out[i] = 100
			continue
		}
		out[i] = finiteOrNaN(100 - 100/(1+g/l))
	}
	return out
}

// MACD is EMA(fast) - EMA(slow) of closes
func MACD(closes []float64, fast, slow int) []float64 {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = finiteOrNaN(fastEMA[i] - slowEMA[i])
	}
	return out
}

// trueRange is defined from index 1
func trueRange(high, low, closes []float64) []float64 {
	out := undefinedSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		highLow := high[i] - low[i]
		highPrevClose := math.Abs(high[i] - closes[i-1])
		lowPrevClose := math.Abs(low[i] - closes[i-1])
		out[i] = math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
	}
	return out
}

// ATR is Wilder's average true range: the first value is the mean of the
// first period true ranges, later values are smoothed by (prev*(p-1)+tr)/p.
func ATR(high, low, closes []float64, period int) []float64 {
	n := len(closes)
	out := undefinedSeries(n)
	if period <= 0 || n <= period {
		return out
	}

	tr := trueRange(high, low, closes)
	atr := stat.Mean(tr[1:period+1], nil)
	out[period] = finiteOrNaN(atr)
	for i := period + 1; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = finiteOrNaN(atr)
	}
	return out
}

// ADX is Wilder's average directional index. DX is defined from index
// period, ADX from 2*period-1 on data with a non-zero true range.
func ADX(high, low, closes []float64, period int) []float64 {
	n := len(closes)
	out := undefinedSeries(n)
	if period <= 0 || n < 2*period {
		return out
	}

	tr := trueRange(high, low, closes)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	p := float64(period)
	smoothTR := floats.Sum(tr[1 : period+1])
	smoothPlus := floats.Sum(plusDM[1 : period+1])
	smoothMinus := floats.Sum(minusDM[1 : period+1])

	dx := undefinedSeries(n)
	for i := period; i < n; i++ {
		if i > period {
			smoothTR = smoothTR - smoothTR/p + tr[i]
			smoothPlus = smoothPlus - smoothPlus/p + plusDM[i]
			smoothMinus = smoothMinus - smoothMinus/p + minusDM[i]
		}
		if smoothTR == 0 {
			continue
		}
		plusDI := 100 * smoothPlus / smoothTR
		minusDI := 100 * smoothMinus / smoothTR
		if sum := plusDI + minusDI; sum == 0 {
			dx[i] = 0
		} else {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	// seed is the mean of the first period defined DX values; DX is
	// undefined while the smoothed true range is zero
	seed := make([]float64, 0, period)
	var adx float64
	for i := period; i < n; i++ {
		if math.IsNaN(dx[i]) {
			continue
		}
		if len(seed) < period {
			seed = append(seed, dx[i])
			if len(seed) == period {
				adx = stat.Mean(seed, nil)
				out[i] = finiteOrNaN(adx)
			}
			continue
		}
		adx = (adx*(p-1) + dx[i]) / p
		out[i] = finiteOrNaN(adx)
	}
	return out
}

// WilliamsR is -100 * (highest high - close) / (highest high - lowest low)
// over the trailing period. A flat window is undefined.
func WilliamsR(high, low, closes []float64, period int) []float64 {
	n := len(closes)
	out := undefinedSeries(n)
	if period <= 0 {
		return out
	}
	for i := period - 1; i < n; i++ {
		hh := floats.Max(high[i-period+1 : i+1])
		ll := floats.Min(low[i-period+1 : i+1])
		if hh == ll {
			continue
		}
		out[i] = finiteOrNaN(-100 * (hh - closes[i]) / (hh - ll))
	}
	return out
}

// ROC is the percent change of close over period bars
func ROC(closes []float64, period int) []float64 {
	n := len(closes)
	out := undefinedSeries(n)
	if period <= 0 {
		return out
	}
	for i := period; i < n; i++ {
		prev := closes[i-period]
		if prev == 0 {
			continue
		}
		out[i] = finiteOrNaN(100 * (closes[i] - prev) / prev)
	}
	return out
}
