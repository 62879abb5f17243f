package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by fetchers, the feature engineer and the predictor
var (
	ErrDataUnavailable     = errors.New("no data found")
	ErrInsufficientHistory = errors.New("not enough data for indicators")
	ErrModelUnavailable    = errors.New("model artifact unavailable")
	ErrFeatureMismatch     = errors.New("feature set does not match model")
	ErrUnexpected          = errors.New("unexpected failure")
)

// ErrorKind names a taxonomy bucket for logs, metrics and replies
type ErrorKind string

const (
	KindDataUnavailable     ErrorKind = "data_unavailable"
	KindInsufficientHistory ErrorKind = "insufficient_history"
	KindModelUnavailable    ErrorKind = "model_unavailable"
	KindFeatureMismatch     ErrorKind = "feature_mismatch"
	KindUnexpected          ErrorKind = "unexpected"
)

// ErrorKindOf classifies err. Anything not matching a sentinel is unexpected.
func ErrorKindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, ErrInsufficientHistory):
		return KindInsufficientHistory
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ErrFeatureMismatch):
		return KindFeatureMismatch
	default:
		return KindUnexpected
	}
}

// Recoverable reports whether a per-symbol boundary may swallow err
func Recoverable(err error) bool {
	return ErrorKindOf(err) != KindModelUnavailable
}

// NoDataError wraps ErrDataUnavailable with the symbol that produced it
func NoDataError(symbol, reason string) error {
	if reason == "" {
		return fmt.Errorf("%s: %w", symbol, ErrDataUnavailable)
	}
	return fmt.Errorf("%s: %w: %s", symbol, ErrDataUnavailable, reason)
}
