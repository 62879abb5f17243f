package models

import (
	"strconv"
	"strings"
)

// PeriodDays converts a provider period ("60d", "3mo", "1y", "ytd", "max")
// into an approximate number of calendar days. Unknown input returns 0.
func PeriodDays(period string) int {
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case "ytd":
		return 365
	case "max":
		return 365 * 30
	}

	unitStart := strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' })
	if unitStart <= 0 {
		return 0
	}
	n, err := strconv.Atoi(p[:unitStart])
	if err != nil || n <= 0 {
		return 0
	}

	switch p[unitStart:] {
	case "d":
		return n
	case "wk":
		return n * 7
	case "mo":
		return n * 30
	case "y":
		return n * 365
	default:
		return 0
	}
}

// BarsForPeriod estimates how many bars of interval fit in period.
// Daily bars only count trading days (5 of 7).
func BarsForPeriod(period, interval string) int {
	days := PeriodDays(period)
	if days == 0 {
		return 0
	}

	var bars int
	switch interval {
	case "1m":
		bars = days * 5 / 7 * 390
	case "5m":
		bars = days * 5 / 7 * 78
	case "15m":
		bars = days * 5 / 7 * 26
	case "30m":
		bars = days * 5 / 7 * 13
	case "1h":
		bars = days * 5 / 7 * 7
	case "1wk":
		bars = days / 7
	case "1mo":
		bars = days / 30
	default:
		bars = days * 5 / 7
	}
	if bars < 1 {
		bars = 1
	}
	return bars
}
