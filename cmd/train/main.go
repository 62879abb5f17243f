package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alias1177/StockSignal/internal/config"
	"github.com/Alias1177/StockSignal/internal/features"
	"github.com/Alias1177/StockSignal/internal/market"
	"github.com/Alias1177/StockSignal/internal/ml"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "❌ Invalid configuration: %v\n", err)
		return 1
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	symbols := args
	if len(symbols) == 0 {
		symbols = cfg.Model.TrainSymbols
	}

	engineer, err := features.NewEngineerForSet(cfg.Model.FeatureSet)
	if err != nil {
		log.Error().Err(err).Msg("Invalid feature set")
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

	trainer := ml.NewTrainer(fetcher, engineer, ml.TrainerOptions{
		Period:   cfg.Data.TrainPeriod,
		Interval: cfg.Data.Interval,
		TestSize: cfg.Model.TestSize,
		Seed:     cfg.Model.Seed,
		Fit: ml.FitOptions{
			L2:            cfg.Model.Regularize,
			MaxIterations: cfg.Model.MaxIterations,
			Tolerance:     1e-8,
		},
		ArtifactDir: cfg.Model.ArtifactDir,
	})

	log.Info().Strs("symbols", symbols).Str("feature_set", cfg.Model.FeatureSet).Msg("Training model")
	result, err := trainer.Run(ctx, symbols)
	if err != nil {
		log.Error().Err(err).Msg("Training failed")
		return 1
	}

	fmt.Fprintf(stdout, "Trained on %v: %d samples (%d train / %d test)\n\n",
		result.Symbols, result.Samples, result.TrainSize, result.TestSize)
	fmt.Fprint(stdout, result.Report.String())
	fmt.Fprintf(stdout, "\n✅ Model and scaler saved to %s\n", cfg.Model.ArtifactDir)
	return 0
}
