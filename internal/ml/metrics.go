package ml

import (
	"fmt"
	"strings"
)

// ClassReport holds per-class scores
type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the held-out evaluation of a binary classifier
type Report struct {
	Accuracy float64 `json:"accuracy"`
	// Confusion[actual][predicted]
	Confusion   [2][2]int      `json:"confusion"`
	Classes     [2]ClassReport `json:"classes"`
	MacroAvg    ClassReport    `json:"macro_avg"`
	WeightedAvg ClassReport    `json:"weighted_avg"`
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Evaluate scores predictions against truth
func Evaluate(truth, predicted []int) (Report, error) {
	if len(truth) != len(predicted) {
		return Report{}, fmt.Errorf("evaluate: %d labels, %d predictions", len(truth), len(predicted))
	}
	var r Report
	if len(truth) == 0 {
		return r, nil
	}

	correct := 0
	for i := range truth {
		if truth[i] < 0 || truth[i] > 1 || predicted[i] < 0 || predicted[i] > 1 {
			return Report{}, fmt.Errorf("evaluate: non-binary label at %d", i)
		}
		r.Confusion[truth[i]][predicted[i]]++
		if truth[i] == predicted[i] {
			correct++
		}
	}
	r.Accuracy = ratio(correct, len(truth))

	for c := 0; c < 2; c++ {
		tp := r.Confusion[c][c]
		predictedC := r.Confusion[0][c] + r.Confusion[1][c]
		actualC := r.Confusion[c][0] + r.Confusion[c][1]
		cr := ClassReport{
			Precision: ratio(tp, predictedC),
			Recall:    ratio(tp, actualC),
			Support:   actualC,
		}
		if cr.Precision+cr.Recall > 0 {
			cr.F1 = 2 * cr.Precision * cr.Recall / (cr.Precision + cr.Recall)
		}
		r.Classes[c] = cr
	}

	total := len(truth)
	for _, cr := range r.Classes {
		r.MacroAvg.Precision += cr.Precision / 2
		r.MacroAvg.Recall += cr.Recall / 2
		r.MacroAvg.F1 += cr.F1 / 2
		w := ratio(cr.Support, total)
		r.WeightedAvg.Precision += cr.Precision * w
		r.WeightedAvg.Recall += cr.Recall * w
		r.WeightedAvg.F1 += cr.F1 * w
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total
	return r, nil
}

// String renders the report as a classification table
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.4f\n\n", r.Accuracy)
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for c, cr := range r.Classes {
		fmt.Fprintf(&b, "%14d %10.2f %10.2f %10.2f %10d\n", c, cr.Precision, cr.Recall, cr.F1, cr.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	fmt.Fprintf(&b, "\nConfusion matrix (rows actual, cols predicted):\n[[%d %d]\n [%d %d]]\n",
		r.Confusion[0][0], r.Confusion[0][1], r.Confusion[1][0], r.Confusion[1][1])
	return b.String()
}
