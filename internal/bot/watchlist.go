package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/StockSignal/internal/predict"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Watchlist posts signals for a fixed set of symbols to one chat on a schedule
type Watchlist struct {
	sender    Sender
	predictor predict.SymbolPredictor
	chatID    int64
	symbols   []string
	timeout   time.Duration
	cron      *cron.Cron
	logger    zerolog.Logger
}

// NewWatchlist creates a watchlist broadcaster
func NewWatchlist(sender Sender, predictor predict.SymbolPredictor, chatID int64, symbols []string, timeout time.Duration) *Watchlist {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Watchlist{
		sender:    sender,
		predictor: predictor,
		chatID:    chatID,
		symbols:   append([]string(nil), symbols...),
		timeout:   timeout,
		logger:    log.With().Str("component", "watchlist").Logger(),
	}
}

// Start schedules RunOnce with a standard five-field cron spec
func (w *Watchlist) Start(spec string) error {
	if len(w.symbols) == 0 || w.chatID == 0 {
		return fmt.Errorf("watchlist needs symbols and a chat id")
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := w.RunOnce(context.Background()); err != nil {
			w.logger.Error().Err(err).Msg("Watchlist broadcast failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule watchlist %q: %w", spec, err)
	}
	w.cron = c
	c.Start()
	w.logger.Info().Str("spec", spec).Strs("symbols", w.symbols).Int64("chat_id", w.chatID).Msg("Watchlist scheduled")
	return nil
}

// Stop halts the schedule and waits for a running broadcast
func (w *Watchlist) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}

// RunOnce predicts every symbol and posts one summary message
func (w *Watchlist) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	results := predict.RunBatch(ctx, w.predictor, w.symbols)
	ok := 0
	for _, res := range results {
		if res.OK() {
			ok++
		}
	}

	msg := tgbotapi.NewMessage(w.chatID, watchlistText(results))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := w.sender.Send(msg); err != nil {
		return fmt.Errorf("send watchlist: %w", err)
	}

	w.logger.Info().Int("symbols", len(results)).Int("ok", ok).Msg("Watchlist broadcast sent")
	return nil
}
