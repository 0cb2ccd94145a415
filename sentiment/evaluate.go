package sentiment

import (
	"fmt"
	"strings"

	"reviewsentiment/features"
)

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Label     Label   `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Average holds class-averaged metrics.
type Average struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ConfusionMatrix counts actual (row) against predicted (column) labels in
// Classes order.
type ConfusionMatrix [2][2]int

// Report captures evaluation of a model on a held-out partition.
type Report struct {
	Total       int             `json:"total"`
	Correct     int             `json:"correct"`
	Accuracy    float64         `json:"accuracy"`
	Classes     [2]Label        `json:"classes"`
	PerClass    [2]ClassMetrics `json:"per_class"`
	MacroAvg    Average         `json:"macro_avg"`
	WeightedAvg Average         `json:"weighted_avg"`
	Confusion   ConfusionMatrix `json:"confusion"`
	Warnings    []string        `json:"warnings,omitempty"`
}

func classIndex(l Label) int {
	if l == Positive {
		return 1
	}
	return 0
}

// Evaluate predicts every row of x and compares against labels. It does not
// modify the model.
func Evaluate(m *Model, x *features.Matrix, labels []Label) (Report, error) {
	rows, _ := x.Dims()
	if rows != len(labels) {
		return Report{}, fmt.Errorf("sentiment: evaluate %d rows against %d labels", rows, len(labels))
	}
	predicted := m.Predict(x)
	report := Score(labels, predicted)
	if w := m.Warning(); w != nil {
		report.Warnings = append(report.Warnings, w.Error())
	}
	return report, nil
}

// Score computes accuracy, per-class metrics and the confusion matrix.
// actual and predicted must be the same length and hold canonical labels.
func Score(actual, predicted []Label) Report {
	r := Report{Total: len(actual), Classes: Classes}
	for i, a := range actual {
		p := predicted[i]
		r.Confusion[classIndex(a)][classIndex(p)]++
		if a == p {
			r.Correct++
		}
	}
	if r.Total > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Total)
	}

	for k, class := range Classes {
		tp := r.Confusion[k][k]
		predictedK := r.Confusion[0][k] + r.Confusion[1][k]
		support := r.Confusion[k][0] + r.Confusion[k][1]
		cm := ClassMetrics{
			Label:     class,
			Precision: ratio(tp, predictedK),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		r.PerClass[k] = cm

		r.MacroAvg.Precision += cm.Precision / 2
		r.MacroAvg.Recall += cm.Recall / 2
		r.MacroAvg.F1 += cm.F1 / 2
		if r.Total > 0 {
			w := float64(support) / float64(r.Total)
			r.WeightedAvg.Precision += cm.Precision * w
			r.WeightedAvg.Recall += cm.Recall * w
			r.WeightedAvg.F1 += cm.F1 * w
		}
	}
	r.MacroAvg.Support = r.Total
	r.WeightedAvg.Support = r.Total
	return r
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the report as a classification table followed by the
// confusion matrix.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.4f (%d/%d)\n\n", r.Accuracy, r.Correct, r.Total)
	fmt.Fprintf(&b, "%14s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, cm := range r.PerClass {
		writeMetricsLine(&b, cm.Label.String(), cm.Precision, cm.Recall, cm.F1, cm.Support)
	}
	b.WriteString("\n")
	writeMetricsLine(&b, "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	writeMetricsLine(&b, "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	b.WriteString("\nConfusion matrix (rows actual, columns predicted):\n")
	fmt.Fprintf(&b, "%14s %9s %9s\n", "", r.Classes[0], r.Classes[1])
	for k, class := range r.Classes {
		fmt.Fprintf(&b, "%14s %9d %9d\n", class, r.Confusion[k][0], r.Confusion[k][1])
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\nwarning: %s\n", w)
	}
	return b.String()
}

func writeMetricsLine(b *strings.Builder, name string, precision, recall, f1 float64, support int) {
	fmt.Fprintf(b, "%14s %9.2f %9.2f %9.2f %9d\n", name, precision, recall, f1, support)
}
