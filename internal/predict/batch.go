package predict

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Alias1177/StockSignal/models"
	"github.com/shopspring/decimal"
)

// RunBatch predicts each symbol in order. Failures are carried in the results.
func RunBatch(ctx context.Context, p SymbolPredictor, symbols []string) []models.SymbolResult {
	results := make([]models.SymbolResult, 0, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			results = append(results, models.SymbolResult{
				Symbol: symbol,
				Signal: models.SignalError,
				Err:    fmt.Errorf("%w: %v", models.ErrUnexpected, err),
			})
			continue
		}
		results = append(results, p.PredictSymbol(ctx, symbol))
	}
	return results
}

// FormatNumber renders v with at most six decimals and no trailing zeros
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).Round(6).String()
}

// CSVFileName is the timestamped output name for a batch run at now
func CSVFileName(now time.Time) string {
	return "predictions_" + now.Format("20060102_150405") + ".csv"
}

// WriteCSV writes one row per result: Symbol, Date, the feature columns, Prediction.
// Failed symbols get Date N/A, empty feature cells and Prediction Error.
func WriteCSV(w io.Writer, featureNames []string, results []models.SymbolResult) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(featureNames)+3)
	header = append(header, "Symbol", "Date")
	header = append(header, featureNames...)
	header = append(header, "Prediction")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		record := make([]string, 0, len(header))
		record = append(record, res.Symbol)
		if !res.OK() || res.Row == nil {
			record = append(record, "N/A")
			for range featureNames {
				record = append(record, "")
			}
			record = append(record, string(models.SignalError))
		} else {
			record = append(record, res.Date.Format("2006-01-02"))
			for _, name := range featureNames {
				v, ok := res.Row.Value(name)
				if !ok {
					record = append(record, "")
					continue
				}
				record = append(record, FormatNumber(v))
			}
			record = append(record, string(res.Signal))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the batch results to a timestamped file in dir and returns its path
func SaveCSV(dir string, now time.Time, featureNames []string, results []models.SymbolResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, CSVFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, featureNames, results); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Summary is the one-line console rendering of a result
func Summary(res models.SymbolResult) string {
	return fmt.Sprintf("%s | Prediction: %s", res.Symbol, res.Signal)
}
