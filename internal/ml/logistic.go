package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a binary L2-regularised linear classifier
type LogisticRegression struct {
	Features   []string  `json:"features"`
	Weights    []float64 `json:"weights"`
	Bias       float64   `json:"bias"`
	L2         float64   `json:"l2"`
	Iterations int       `json:"iterations"`
}

// FitOptions controls the Newton solver
type FitOptions struct {
	// L2 is the penalty L2/2*|w|^2 added to the summed log-loss. The bias is not penalised.
	L2            float64
	MaxIterations int
	Tolerance     float64
}

// DefaultFitOptions mirror a C=1 logistic regression
func DefaultFitOptions() FitOptions {
	return FitOptions{L2: 1.0, MaxIterations: 100, Tolerance: 1e-8}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// FitLogistic solves for the weights with Newton's method (IRLS)
func FitLogistic(names []string, X [][]float64, y []int, opts FitOptions) (*LogisticRegression, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("fit logistic: %d rows, %d labels", len(X), len(y))
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-8
	}

	d := len(names)
	p := d + 1 // bias is the last parameter
	for i, row := range X {
		if len(row) != d {
			return nil, fmt.Errorf("fit logistic: row %d has %d values, want %d", i, len(row), d)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, fmt.Errorf("fit logistic: label %d at row %d is not binary", y[i], i)
		}
	}

	m := &LogisticRegression{
		Features: append([]string(nil), names...),
		Weights:  make([]float64, d),
		L2:       opts.L2,
	}

	grad := make([]float64, p)
	xt := make([]float64, p)
	step := mat.NewVecDense(p, nil)
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		hess := mat.NewSymDense(p, nil)
		for j := range grad {
			grad[j] = 0
		}

		for i, row := range X {
			copy(xt, row)
			xt[d] = 1
			prob := sigmoid(floats.Dot(m.Weights, row) + m.Bias)
			residual := prob - float64(y[i])
			weight := prob * (1 - prob)
			for a := 0; a < p; a++ {
				grad[a] += residual * xt[a]
				for b := a; b < p; b++ {
					hess.SetSym(a, b, hess.At(a, b)+weight*xt[a]*xt[b])
				}
			}
		}
		for j := 0; j < d; j++ {
			grad[j] += opts.L2 * m.Weights[j]
			hess.SetSym(j, j, hess.At(j, j)+opts.L2)
		}
		// keeps the system positive definite when probabilities saturate
		hess.SetSym(d, d, hess.At(d, d)+1e-10)

		var chol mat.Cholesky
		if ok := chol.Factorize(hess); !ok {
			return nil, fmt.Errorf("fit logistic: hessian not positive definite at iteration %d", iter)
		}
		if err := chol.SolveVecTo(step, mat.NewVecDense(p, grad)); err != nil {
			return nil, fmt.Errorf("fit logistic: solve newton step: %w", err)
		}

		maxStep := 0.0
		for j := 0; j < d; j++ {
			m.Weights[j] -= step.AtVec(j)
			maxStep = math.Max(maxStep, math.Abs(step.AtVec(j)))
		}
		m.Bias -= step.AtVec(d)
		maxStep = math.Max(maxStep, math.Abs(step.AtVec(d)))
		m.Iterations = iter

		if maxStep < opts.Tolerance {
			break
		}
	}

	if floats.HasNaN(m.Weights) || math.IsNaN(m.Bias) || math.IsInf(m.Bias, 0) {
		return nil, fmt.Errorf("fit logistic: solver diverged")
	}
	return m, nil
}

// Probability returns P(class = 1 | x) for an already scaled row
func (m *LogisticRegression) Probability(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("model expects %d values, got %d", len(m.Weights), len(x))
	}
	return sigmoid(floats.Dot(m.Weights, x) + m.Bias), nil
}

// Predict returns 1 when the probability exceeds one half
func (m *LogisticRegression) Predict(x []float64) (int, error) {
	prob, err := m.Probability(x)
	if err != nil {
		return 0, err
	}
	if prob > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *LogisticRegression) validate() error {
	if len(m.Weights) != len(m.Features) {
		return fmt.Errorf("model has %d features, %d weights", len(m.Features), len(m.Weights))
	}
	return nil
}
