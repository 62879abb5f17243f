package predict

import (
	"fmt"
	"slices"

	"github.com/Alias1177/StockSignal/models"
)

// Classifier is a fitted model over an ordered feature vector
type Classifier interface {
	Features() []string
	Predict(x []float64) (int, error)
}

// Predictor maps a feature row to a Buy/Sell signal
type Predictor struct {
	classifier Classifier
	features   []string
}

// NewPredictor wraps a loaded classifier
func NewPredictor(c Classifier) (*Predictor, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: no classifier loaded", models.ErrModelUnavailable)
	}
	return &Predictor{classifier: c, features: c.Features()}, nil
}

// Features returns the names the classifier was trained on, in order
func (p *Predictor) Features() []string {
	return append([]string(nil), p.features...)
}

// Predict checks the row against the trained feature order and classifies it
func (p *Predictor) Predict(row models.FeatureRow) (models.Signal, error) {
	if !slices.Equal(row.Names, p.features) {
		return "", fmt.Errorf("%w: row has %v, model expects %v", models.ErrFeatureMismatch, row.Names, p.features)
	}
	if len(row.Values) != len(p.features) {
		return "", fmt.Errorf("%w: row has %d values, model expects %d", models.ErrFeatureMismatch, len(row.Values), len(p.features))
	}

	class, err := p.classifier.Predict(row.Values)
	if err != nil {
		return "", err
	}
	return models.SignalFromClass(class), nil
}
