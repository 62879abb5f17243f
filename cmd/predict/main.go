package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Alias1177/StockSignal/internal/config"
	"github.com/Alias1177/StockSignal/internal/journal"
	"github.com/Alias1177/StockSignal/internal/market"
	"github.com/Alias1177/StockSignal/internal/ml"
	"github.com/Alias1177/StockSignal/internal/predict"
	"github.com/rs/zerolog/log"
)

const usage = `Usage: predict SYMBOL [SYMBOL...]

Predicts the next-bar direction (Buy/Sell) for each symbol and writes
predictions_<YYYYMMDD_HHMMSS>.csv to the output directory.

Example: predict AAPL MSFT INFY`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "❌ Invalid configuration: %v\n", err)
		return 1
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	artifact, err := ml.LoadArtifact(cfg.Model.ArtifactDir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Model.ArtifactDir).Msg("Failed to load model")
		fmt.Fprintf(stderr, "❌ Model or scaler not found in %s. Run the trainer first.\n", cfg.Model.ArtifactDir)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, closeCache, err := market.NewFetcher(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create market data fetcher")
		return 1
	}
	defer closeCache()

	rec, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open prediction journal")
		return 1
	}
	defer rec.Close()

	svc, err := predict.NewFromArtifact(fetcher, artifact, predict.Options{
		Period:   cfg.Data.PredictPeriod,
		Interval: cfg.Data.Interval,
		Source:   "cli",
		Journal:  rec,
	})
	if err != nil {
		log.Error().Err(err).Msg("Model artifact is not usable")
		return 1
	}

	symbols := make([]string, 0, len(args))
	for _, a := range args {
		if s := strings.ToUpper(strings.TrimSpace(a)); s != "" {
			symbols = append(symbols, s)
		}
	}

	results := predict.RunBatch(ctx, svc, symbols)
	for _, res := range results {
		fmt.Fprintln(stdout, predict.Summary(res))
	}

	path, err := predict.SaveCSV(cfg.Output.Dir, time.Now(), svc.Features(), results)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save predictions")
		return 1
	}
	fmt.Fprintf(stdout, "\n✅ Predictions saved to %s\n", path)
	return 0
}
