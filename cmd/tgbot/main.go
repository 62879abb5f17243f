package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alias1177/StockSignal/internal/bot"
	"github.com/Alias1177/StockSignal/internal/config"
	"github.com/Alias1177/StockSignal/internal/journal"
	"github.com/Alias1177/StockSignal/internal/market"
	"github.com/Alias1177/StockSignal/internal/metrics"
	"github.com/Alias1177/StockSignal/internal/ml"
	"github.com/Alias1177/StockSignal/internal/predict"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	artifact, err := ml.LoadArtifact(cfg.Model.ArtifactDir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Model.ArtifactDir).Msg("Model or scaler not found, run the trainer first")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open prediction journal")
		return 1
	}
	defer rec.Close()

	var recorder *metrics.Recorder
	if cfg.MetricsAddr != "" {
		recorder = metrics.New()
		go func() {
			if err := recorder.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	fetcher, closeCache, err := market.NewFetcher(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create market data fetcher")
		return 1
	}
	defer closeCache()

	svc, err := predict.NewFromArtifact(fetcher, artifact, predict.Options{
		Period:   cfg.Data.PredictPeriod,
		Interval: cfg.Data.Interval,
		Source:   "bot",
		Journal:  rec,
		Metrics:  recorder,
	})
	if err != nil {
		log.Error().Err(err).Msg("Model artifact is not usable")
		return 1
	}

	// Get bot token from environment
	if err := cfg.RequireBotToken(); err != nil {
		log.Error().Err(err).Msg("Cannot start the bot")
		return 1
	}

	// Initialize Telegram bot
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Telegram bot")
		return 1
	}
	log.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	if cfg.Watchlist.Cron != "" {
		watchlist := bot.NewWatchlist(api, svc.WithSource("watchlist"), cfg.Watchlist.ChatID, cfg.Watchlist.Symbols, 0)
		if err := watchlist.Start(cfg.Watchlist.Cron); err != nil {
			log.Error().Err(err).Msg("Watchlist disabled")
		} else {
			defer watchlist.Stop()
		}
	}

	// Setup update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = cfg.Bot.UpdateTimeout
	updates := api.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b := bot.New(api, svc, bot.Options{
		MaxConcurrent:  cfg.Bot.MaxConcurrent,
		CommandTimeout: cfg.Bot.CommandTimeout,
		History:        svc,
		Metrics:        recorder,
	})
	log.Info().Int("max_concurrent", cfg.Bot.MaxConcurrent).Msg("Bot is running")
	b.Run(ctx, updates)

	log.Info().Msg("Bot stopped")
	return 0
}
