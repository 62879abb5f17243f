// Package bot serves predictions over Telegram commands
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Alias1177/StockSignal/internal/metrics"
	"github.com/Alias1177/StockSignal/internal/predict"
	"github.com/Alias1177/StockSignal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender is the part of *tgbotapi.BotAPI the bot needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// HistoryReader serves journalled signals for /history
type HistoryReader interface {
	History(ctx context.Context, symbol string, limit int) ([]models.PredictionRecord, error)
}

// Options configures a Bot
type Options struct {
	MaxConcurrent  int
	CommandTimeout time.Duration
	HistoryLimit   int
	History        HistoryReader
	Metrics        *metrics.Recorder
}

// Bot dispatches each command to its own goroutine, bounded by a semaphore
type Bot struct {
	sender    Sender
	predictor predict.SymbolPredictor
	opts      Options
	sem       chan struct{}
	wg        sync.WaitGroup
	logger    zerolog.Logger
}

// New creates a bot
func New(sender Sender, predictor predict.SymbolPredictor, opts Options) *Bot {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 16
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 60 * time.Second
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	return &Bot{
		sender:    sender,
		predictor: predictor,
		opts:      opts,
		sem:       make(chan struct{}, opts.MaxConcurrent),
		logger:    log.With().Str("component", "bot").Logger(),
	}
}

// Run handles updates until ctx is cancelled or the channel closes, then
// waits for in-flight commands.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.Dispatch(ctx, update)
		}
	}
}

// Dispatch starts handling update in the background
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-b.sem }()

		// in-flight commands finish after shutdown starts
		cmdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.opts.CommandTimeout)
		defer cancel()
		b.Handle(cmdCtx, msg)
	}()
}

// Wait blocks until every dispatched command has finished
func (b *Bot) Wait() {
	b.wg.Wait()
}

// Handle processes one command synchronously. Panics become the unexpected-error reply.
func (b *Bot) Handle(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	logger := b.logger.With().
		Str("request_id", uuid.NewString()).
		Int64("chat_id", msg.Chat.ID).
		Str("command", command).
		Logger()
	b.opts.Metrics.RecordCommand(command)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Command handler panicked")
			b.reply(msg.Chat.ID, unexpectedText, logger)
		}
	}()

	switch command {
	case "start", "help":
		b.reply(msg.Chat.ID, usageText, logger)
	case "predict":
		b.handlePredict(ctx, msg, logger)
	case "history":
		b.handleHistory(ctx, msg, logger)
	default:
		b.reply(msg.Chat.ID, usageText, logger)
	}
}

func (b *Bot) handlePredict(ctx context.Context, msg *tgbotapi.Message, logger zerolog.Logger) {
	ticker := tickerArg(msg)
	if ticker == "" {
		b.reply(msg.Chat.ID, usageText, logger)
		return
	}

	b.reply(msg.Chat.ID, ackText(ticker), logger)
	res := b.predictor.PredictSymbol(ctx, ticker)
	logger.Info().
		Str("symbol", res.Symbol).
		Str("signal", string(res.Signal)).
		Str("kind", string(res.Kind())).
		Msg("Prediction command finished")
	b.reply(msg.Chat.ID, resultText(ticker, res), logger)
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message, logger zerolog.Logger) {
	ticker := tickerArg(msg)
	if ticker == "" || b.opts.History == nil {
		b.reply(msg.Chat.ID, usageText, logger)
		return
	}

	records, err := b.opts.History.History(ctx, ticker, b.opts.HistoryLimit)
	if err != nil {
		logger.Error().Err(err).Str("symbol", ticker).Msg("Failed to read history")
		b.reply(msg.Chat.ID, unexpectedText, logger)
		return
	}
	b.reply(msg.Chat.ID, historyText(ticker, records), logger)
}

func (b *Bot) reply(chatID int64, text string, logger zerolog.Logger) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(out); err != nil {
		logger.Error().Err(err).Msg("Failed to send reply")
	}
}

func tickerArg(msg *tgbotapi.Message) string {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
