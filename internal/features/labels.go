package features

import "github.com/Alias1177/StockSignal/models"

// Sample is a feature row paired with its next-bar direction
type Sample struct {
	Row   models.FeatureRow
	Label int
}

// NextBarLabel is 1 when close[i+1] > close[i], else 0. The last bar has no label.
func NextBarLabel(series models.Series, i int) (int, bool) {
	if i < 0 || i+1 >= series.Len() {
		return 0, false
	}
	if series.Candles[i+1].Close > series.Candles[i].Close {
		return 1, true
	}
	return 0, true
}

// Label pairs every row of table with its label, skipping rows that have none
func Label(series models.Series, table Table) []Sample {
	samples := make([]Sample, 0, table.Len())
	for k, pos := range table.Positions {
		label, ok := NextBarLabel(series, pos)
		if !ok {
			continue
		}
		samples = append(samples, Sample{Row: table.Rows[k], Label: label})
	}
	return samples
}
