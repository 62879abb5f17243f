package bot

import (
	"fmt"
	"strings"

	"github.com/Alias1177/StockSignal/models"
)

const usageText = "👋 Send `/predict TICKER` to get a next-day signal, e.g. `/predict AAPL`.\n" +
	"`/history TICKER` shows the last signals issued for a ticker."

const unexpectedText = "❌ Unexpected error during prediction."

func ackText(ticker string) string {
	return fmt.Sprintf("📊 Fetching data for `%s`...", sanitize(ticker))
}

func signalText(signal models.Signal) string {
	if signal == models.SignalBuy {
		return "📈 *Buy Signal*"
	}
	return "📉 *Sell Signal*"
}

// resultText renders the reply for a finished /predict command
func resultText(ticker string, res models.SymbolResult) string {
	if res.OK() {
		return fmt.Sprintf("✅ Prediction for `%s`: %s", sanitize(ticker), signalText(res.Signal))
	}
	switch res.Kind() {
	case models.KindDataUnavailable, models.KindInsufficientHistory:
		return fmt.Sprintf("⚠️ Error: `%s`", sanitize(res.Err.Error()))
	default:
		return unexpectedText
	}
}

func historyText(ticker string, records []models.PredictionRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("No signals recorded for `%s` yet.", sanitize(ticker))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🕘 Recent signals for `%s`:\n", sanitize(ticker))
	for _, r := range records {
		fmt.Fprintf(&b, "%s %s (%s)\n", r.BarTime.Format("2006-01-02"), signalText(r.Signal), r.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}

func watchlistText(results []models.SymbolResult) string {
	var b strings.Builder
	b.WriteString("📋 *Watchlist signals*\n")
	for _, res := range results {
		if res.OK() {
			fmt.Fprintf(&b, "`%s`: %s\n", sanitize(res.Symbol), signalText(res.Signal))
			continue
		}
		fmt.Fprintf(&b, "`%s`: ⚠️ %s\n", sanitize(res.Symbol), strings.ReplaceAll(string(res.Kind()), "_", " "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// sanitize keeps error text from breaking Markdown code spans
func sanitize(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}
