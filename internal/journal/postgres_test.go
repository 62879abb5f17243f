package journal

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Alias1177/StockSignal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_CreateTables(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS predictions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_predictions_symbol").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, createTables(context.Background(), sqlDB))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecordAndRecent(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &Postgres{sqlDB}
	ctx := context.Background()
	bar := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 3, 14, 21, 5, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO predictions .*"+regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6)")).
		WithArgs("AAPL", bar, "Buy", `{"RSI":41.5}`, "cli", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.Record(ctx, models.PredictionRecord{
		Symbol:    "AAPL",
		BarTime:   bar,
		Signal:    models.SignalBuy,
		Features:  map[string]float64{"RSI": 41.5},
		Source:    "cli",
		CreatedAt: created,
	}))

	mock.ExpectQuery(regexp.QuoteMeta("features::text")+".*"+regexp.QuoteMeta("WHERE symbol = $1 ORDER BY id DESC LIMIT $2")).
		WithArgs("AAPL", 5).
		WillReturnRows(sqlmock.NewRows([]string{"symbol", "bar_time", "signal", "features", "source", "created_at"}).
			AddRow("AAPL", bar.AddDate(0, 0, 1), "Sell", `{"RSI": 38.25, "MACD": -0.4}`, "bot", created.Add(time.Hour)).
			AddRow("AAPL", bar, "Buy", `{"RSI": 41.5}`, "cli", created))

	recent, err := db.Recent(ctx, "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.SignalSell, recent[0].Signal)
	assert.Equal(t, bar.AddDate(0, 0, 1), recent[0].BarTime)
	assert.Equal(t, map[string]float64{"RSI": 38.25, "MACD": -0.4}, recent[0].Features)
	assert.Equal(t, "bot", recent[0].Source)
	assert.Equal(t, models.SignalBuy, recent[1].Signal)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Errors(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &Postgres{sqlDB}
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO predictions").WillReturnError(errors.New("connection reset"))
	err = db.Record(ctx, models.PredictionRecord{Symbol: "AAPL", Signal: models.SignalBuy})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert prediction")

	mock.ExpectQuery("FROM predictions").
		WithArgs("AAPL", 5).
		WillReturnRows(sqlmock.NewRows([]string{"symbol", "bar_time", "signal", "features", "source", "created_at"}).
			AddRow("AAPL", time.Now(), "Buy", `not json`, "cli", time.Now()))
	_, err = db.Recent(ctx, "AAPL", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode features")

	require.NoError(t, mock.ExpectationsWereMet())
}
