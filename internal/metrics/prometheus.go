package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Alias1177/StockSignal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Recorder exposes prediction counters and latencies. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	commands    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder with its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_predictions_total",
				Help: "Total number of signals issued",
			},
			[]string{"source", "signal"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_prediction_errors_total",
				Help: "Total number of failed predictions by error kind",
			},
			[]string{"source", "kind"},
		),
		commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_bot_commands_total",
				Help: "Total number of chat commands received",
			},
			[]string{"command"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocksignal_prediction_duration_seconds",
				Help:    "Duration of a fetch, feature and predict run in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
}

// ObservePrediction records the outcome of one symbol run
func (r *Recorder) ObservePrediction(source string, res models.SymbolResult, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(source).Observe(elapsed.Seconds())
	if res.OK() {
		r.predictions.WithLabelValues(source, string(res.Signal)).Inc()
		return
	}
	r.failures.WithLabelValues(source, string(res.Kind())).Inc()
}

// RecordCommand counts a received chat command
func (r *Recorder) RecordCommand(command string) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(command).Inc()
}

// Registry exposes the underlying registry for tests and custom exporters
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
