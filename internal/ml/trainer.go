package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/StockSignal/internal/features"
	"github.com/Alias1177/StockSignal/internal/market"
	"github.com/Alias1177/StockSignal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MinSamples is the smallest labelled dataset training accepts
const MinSamples = 10

// ErrNotEnoughSamples is returned when the labelled dataset is too small or single-class
var ErrNotEnoughSamples = errors.New("not enough labelled samples to train")

// TrainerOptions configures a training run
type TrainerOptions struct {
	Period      string
	Interval    string
	TestSize    float64
	Seed        int64
	Fit         FitOptions
	ArtifactDir string
}

// TrainResult summarises a completed run
type TrainResult struct {
	Artifact  *Artifact
	Report    Report
	Symbols   []string
	Samples   int
	TrainSize int
	TestSize  int
}

// Trainer fetches history, builds labelled features, fits and persists the artifact
type Trainer struct {
	fetcher  models.SeriesFetcher
	engineer *features.Engineer
	opts     TrainerOptions
	logger   zerolog.Logger
	now      func() time.Time
}

// NewTrainer creates a trainer
func NewTrainer(fetcher models.SeriesFetcher, engineer *features.Engineer, opts TrainerOptions) *Trainer {
	return &Trainer{
		fetcher:  fetcher,
		engineer: engineer,
		opts:     opts,
		logger:   log.With().Str("component", "trainer").Logger(),
		now:      time.Now,
	}
}

// Run trains on every symbol's history. Symbols whose data cannot be
// fetched are skipped; the run fails only if nothing usable remains.
func (t *Trainer) Run(ctx context.Context, symbols []string) (*TrainResult, error) {
	var samples []features.Sample
	var used []string

	for _, raw := range symbols {
		req := market.Request(raw, t.opts.Period, t.opts.Interval)
		series, err := market.Fetch(ctx, t.fetcher, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Skipping symbol")
			continue
		}

		table, err := t.engineer.Build(series)
		if err != nil {
			t.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Skipping symbol")
			continue
		}
		labelled := features.Label(series, table)
		t.logger.Info().
			Str("symbol", req.Symbol).
			Int("bars", series.Len()).
			Int("samples", len(labelled)).
			Msg("Prepared training data")

		samples = append(samples, labelled...)
		used = append(used, req.Symbol)
	}

	artifact, report, sizes, err := Fit(t.engineer.Names(), samples, t.opts)
	if err != nil {
		return nil, err
	}
	artifact.TrainedAt = t.now().UTC()

	if err := SaveArtifact(t.opts.ArtifactDir, artifact); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	t.logger.Info().
		Str("dir", t.opts.ArtifactDir).
		Float64("accuracy", report.Accuracy).
		Int("train", sizes[0]).
		Int("test", sizes[1]).
		Msg("Model saved")

	return &TrainResult{
		Artifact:  artifact,
		Report:    report,
		Symbols:   used,
		Samples:   len(samples),
		TrainSize: sizes[0],
		TestSize:  sizes[1],
	}, nil
}

// Fit scales the samples, splits them, trains the classifier and
// evaluates it on the held-out part. The scaler sees every sample.
func Fit(names []string, samples []features.Sample, opts TrainerOptions) (*Artifact, Report, [2]int, error) {
	var sizes [2]int
	if len(samples) < MinSamples {
		return nil, Report{}, sizes, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSamples, len(samples), MinSamples)
	}

	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	positives := 0
	for i, s := range samples {
		X[i], y[i] = s.Row.Values, s.Label
		positives += s.Label
	}
	if positives == 0 || positives == len(samples) {
		return nil, Report{}, sizes, fmt.Errorf("%w: only one class present", ErrNotEnoughSamples)
	}

	scaler, err := FitScaler(names, X)
	if err != nil {
		return nil, Report{}, sizes, err
	}
	scaled, err := scaler.TransformAll(X)
	if err != nil {
		return nil, Report{}, sizes, err
	}

	testSize := opts.TestSize
	if testSize == 0 {
		testSize = 0.2
	}
	trainIdx, testIdx, err := TrainTestSplit(len(samples), testSize, opts.Seed)
	if err != nil {
		return nil, Report{}, sizes, err
	}
	xTrain, yTrain := pick(scaled, y, trainIdx)
	xTest, yTest := pick(scaled, y, testIdx)
	sizes = [2]int{len(trainIdx), len(testIdx)}
	trainPositives := 0
	for _, label := range yTrain {
		trainPositives += label
	}
	if trainPositives == 0 || trainPositives == len(yTrain) {
		return nil, Report{}, sizes, fmt.Errorf("%w: training split has one class", ErrNotEnoughSamples)
	}

	fitOpts := opts.Fit
	if fitOpts == (FitOptions{}) {
		fitOpts = DefaultFitOptions()
	}
	model, err := FitLogistic(names, xTrain, yTrain, fitOpts)
	if err != nil {
		return nil, Report{}, sizes, err
	}

	predicted := make([]int, len(xTest))
	for i, row := range xTest {
		if predicted[i], err = model.Predict(row); err != nil {
			return nil, Report{}, sizes, err
		}
	}
	report, err := Evaluate(yTest, predicted)
	if err != nil {
		return nil, Report{}, sizes, err
	}

	return &Artifact{Scaler: scaler, Model: model}, report, sizes, nil
}
