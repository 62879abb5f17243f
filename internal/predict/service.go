package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/StockSignal/internal/features"
	"github.com/Alias1177/StockSignal/internal/journal"
	"github.com/Alias1177/StockSignal/internal/market"
	"github.com/Alias1177/StockSignal/internal/metrics"
	"github.com/Alias1177/StockSignal/internal/ml"
	"github.com/Alias1177/StockSignal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Pipeline stages reported in SymbolResult.Stage
const (
	StageFetch    = "fetch"
	StageFeatures = "features"
	StagePredict  = "predict"
)

// SymbolPredictor runs the whole pipeline for one symbol
type SymbolPredictor interface {
	PredictSymbol(ctx context.Context, symbol string) models.SymbolResult
}

// Options configures a Service
type Options struct {
	Period   string
	Interval string
	// Source tags journal entries and metrics (cli, bot, watchlist)
	Source   string
	Journal  journal.Recorder
	Metrics  *metrics.Recorder
}

// Service chains fetcher, feature engineer and predictor
type Service struct {
	fetcher   models.SeriesFetcher
	engineer  *features.Engineer
	predictor *Predictor
	opts      Options
	logger    zerolog.Logger
}

// NewService creates a prediction service
func NewService(fetcher models.SeriesFetcher, engineer *features.Engineer, predictor *Predictor, opts Options) *Service {
	if opts.Journal == nil {
		opts.Journal = journal.Noop{}
	}
	if opts.Period == "" {
		opts.Period = "1y"
	}
	if opts.Interval == "" {
		opts.Interval = "1d"
	}
	return &Service{
		fetcher:   fetcher,
		engineer:  engineer,
		predictor: predictor,
		opts:      opts,
		logger:    log.With().Str("component", "predict_service").Str("source", opts.Source).Logger(),
	}
}

// NewFromArtifact builds a service whose feature engineer follows the
// artifact's feature order
func NewFromArtifact(fetcher models.SeriesFetcher, artifact *ml.Artifact, opts Options) (*Service, error) {
	if artifact == nil {
		return nil, fmt.Errorf("%w: no artifact loaded", models.ErrModelUnavailable)
	}
	predictor, err := NewPredictor(artifact)
	if err != nil {
		return nil, err
	}
	engineer, err := features.NewEngineer(artifact.Features())
	if err != nil {
		return nil, fmt.Errorf("artifact features: %w", err)
	}
	return NewService(fetcher, engineer, predictor, opts), nil
}

// WithSource returns a copy of the service that tags results with source
func (s *Service) WithSource(source string) *Service {
	cp := *s
	cp.opts.Source = source
	cp.logger = log.With().Str("component", "predict_service").Str("source", source).Logger()
	return &cp
}

// Features returns the feature names the predictor expects
func (s *Service) Features() []string { return s.predictor.Features() }

// PredictSymbol never panics and never returns a Go error: every failure
// is captured in the result so one symbol cannot take down a batch or a bot.
func (s *Service) PredictSymbol(ctx context.Context, symbol string) (res models.SymbolResult) {
	start := time.Now()
	req := market.Request(symbol, s.opts.Period, s.opts.Interval)
	res = models.SymbolResult{Symbol: req.Symbol, Signal: models.SignalError, Stage: StageFetch}

	defer func() {
		if r := recover(); r != nil {
			res.Signal = models.SignalError
			res.Row = nil
			res.Err = fmt.Errorf("%w: panic in %s stage: %v", models.ErrUnexpected, res.Stage, r)
		}
		s.finish(ctx, res, time.Since(start))
	}()

	series, err := market.Fetch(ctx, s.fetcher, req)
	if err != nil {
		res.Err = err
		return res
	}
	res.Date = series.Last().Time

	res.Stage = StageFeatures
	row, err := s.engineer.Latest(series)
	if err != nil {
		res.Err = err
		return res
	}

	res.Stage = StagePredict
	signal, err := s.predictor.Predict(row)
	if err != nil {
		res.Err = err
		return res
	}

	res.Row = &row
	res.Signal = signal
	res.Stage = ""
	return res
}

func (s *Service) finish(ctx context.Context, res models.SymbolResult, elapsed time.Duration) {
	s.opts.Metrics.ObservePrediction(s.opts.Source, res, elapsed)

	if !res.OK() {
		s.logger.Warn().
			Err(res.Err).
			Str("symbol", res.Symbol).
			Str("stage", res.Stage).
			Str("kind", string(res.Kind())).
			Msg("Prediction failed")
		return
	}

	s.logger.Info().
		Str("symbol", res.Symbol).
		Str("signal", string(res.Signal)).
		Dur("elapsed", elapsed).
		Msg("Prediction issued")

	rec := models.PredictionRecord{
		Symbol:    res.Symbol,
		BarTime:   res.Date,
		Signal:    res.Signal,
		Features:  make(map[string]float64, len(res.Row.Names)),
		Source:    s.opts.Source,
		CreatedAt: time.Now().UTC(),
	}
	for i, name := range res.Row.Names {
		rec.Features[name] = res.Row.Values[i]
	}
	if err := s.opts.Journal.Record(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("symbol", res.Symbol).Msg("Failed to journal prediction")
	}
}

// History returns the journalled predictions for symbol, newest first
func (s *Service) History(ctx context.Context, symbol string, limit int) ([]models.PredictionRecord, error) {
	return s.opts.Journal.Recent(ctx, market.NormalizeSymbol(symbol), limit)
}
