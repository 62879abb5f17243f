package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each column on its mean and divides by its
// population standard deviation. Constant columns keep a scale of 1.
type StandardScaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// FitScaler learns per-column statistics from X
func FitScaler(names []string, X [][]float64) (*StandardScaler, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("fit scaler: no rows")
	}
	width := len(names)
	s := &StandardScaler{
		Features: append([]string(nil), names...),
		Mean:     make([]float64, width),
		Scale:    make([]float64, width),
	}

	column := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			if len(row) != width {
				return nil, fmt.Errorf("fit scaler: row %d has %d values, want %d", i, len(row), width)
			}
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Scale[j] = mean, std
	}
	return s, nil
}

// Width is the number of columns the scaler was fitted on
func (s *StandardScaler) Width() int { return len(s.Mean) }

// Transform scales one row
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != s.Width() {
		return nil, fmt.Errorf("scaler expects %d values, got %d", s.Width(), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll scales every row of X
func (s *StandardScaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) != len(s.Features) || len(s.Scale) != len(s.Features) {
		return fmt.Errorf("scaler has %d features, %d means, %d scales", len(s.Features), len(s.Mean), len(s.Scale))
	}
	for j, sc := range s.Scale {
		if sc == 0 {
			return fmt.Errorf("scaler column %d has zero scale", j)
		}
	}
	return nil
}
