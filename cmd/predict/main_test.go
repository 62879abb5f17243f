package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Alias1177/StockSignal/internal/features"
	"github.com/Alias1177/StockSignal/internal/ml"
	"github.com/Alias1177/StockSignal/internal/testutil"
	"github.com/Alias1177/StockSignal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_NoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: predict SYMBOL")
	assert.Empty(t, stdout.String())
}

func TestRun_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "absent.yaml"))
	t.Setenv("ARTIFACT_DIR", filepath.Join(dir, "artifacts"))
	t.Setenv("OUTPUT_DIR", dir)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"AAPL"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Run the trainer first")
}

// chartJSON renders series in the Yahoo chart payload shape
func chartJSON(t *testing.T, series models.Series) []byte {
	t.Helper()
	n := series.Len()
	ts := make([]int64, n)
	open, high, low, closes, volume := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, c := range series.Candles {
		ts[i] = c.Time.Unix()
		open[i], high[i], low[i], closes[i], volume[i] = c.Open, c.High, c.Low, c.Close, c.Volume
	}
	body, err := json.Marshal(map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"timestamp": ts,
				"indicators": map[string]any{
					"quote": []any{map[string]any{
						"open": open, "high": high, "low": low, "close": closes, "volume": volume,
					}},
				},
			}},
			"error": nil,
		},
	})
	require.NoError(t, err)
	return body
}

func saveTestArtifact(t *testing.T, dir string) []string {
	t.Helper()
	engineer, err := features.NewEngineerForSet("technical")
	require.NoError(t, err)

	series := testutil.RandomWalk("TRAIN", 400, 3)
	table, err := engineer.Build(series)
	require.NoError(t, err)

	artifact, _, _, err := ml.Fit(engineer.Names(), features.Label(series, table), ml.TrainerOptions{TestSize: 0.2, Seed: 42})
	require.NoError(t, err)
	require.NoError(t, ml.SaveArtifact(dir, artifact))
	return engineer.Names()
}

func TestRun_BatchWithUnknownSymbolExitsZero(t *testing.T) {
	dir := t.TempDir()
	artifactDir := filepath.Join(dir, "artifacts")
	outDir := filepath.Join(dir, "out")
	names := saveTestArtifact(t, artifactDir)

	aapl := testutil.RandomWalk("AAPL", 120, 7)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v8/finance/chart/AAPL" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(chartJSON(t, aapl))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	t.Setenv("CONFIG_PATH", filepath.Join(dir, "absent.yaml"))
	t.Setenv("DATA_PROVIDER", "yahoo")
	t.Setenv("YAHOO_BASE_URL", srv.URL)
	t.Setenv("ARTIFACT_DIR", artifactDir)
	t.Setenv("OUTPUT_DIR", outDir)
	t.Setenv("CACHE_TTL", "0")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"aapl", "BADSYMBOL"}, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), "BADSYMBOL | Prediction: Error")
	assert.Contains(t, stdout.String(), "Predictions saved to")

	files, err := filepath.Glob(filepath.Join(outDir, "predictions_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	wantHeader := append(append([]string{"Symbol", "Date"}, names...), "Prediction")
	assert.Equal(t, wantHeader, records[0])

	ok := records[1]
	assert.Equal(t, "AAPL", ok[0])
	assert.Equal(t, aapl.Last().Time.Format("2006-01-02"), ok[1])
	for i := range names {
		assert.NotEmpty(t, ok[2+i], "feature %s", names[i])
	}
	assert.Contains(t, []string{"Buy", "Sell"}, ok[len(ok)-1])

	bad := records[2]
	assert.Equal(t, "BADSYMBOL", bad[0])
	assert.Equal(t, "N/A", bad[1])
	for i := range names {
		assert.Empty(t, bad[2+i])
	}
	assert.Equal(t, "Error", bad[len(bad)-1])
}
