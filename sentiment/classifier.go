// Package sentiment maps raw review labels and text onto canonical form and
// trains a linear maximum-margin classifier over TF-IDF features.
package sentiment

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"reviewsentiment/features"
)

// Document represents a cleaned, labeled review.
type Document struct {
	Text  string
	Label Label
}

// ErrTraining is returned when the training inputs cannot produce a model.
var ErrTraining = errors.New("sentiment: cannot train")

// ConvergenceWarning reports that training stopped at the iteration budget
// before the optimality gap fell under the tolerance. The model is still
// usable.
type ConvergenceWarning struct {
	Iterations int
	Gap        float64
	Tolerance  float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("sentiment: training did not converge after %d iterations (gap %.3g > tolerance %.3g)",
		w.Iterations, w.Gap, w.Tolerance)
}

// TrainOptions configures the linear SVM.
type TrainOptions struct {
	// C is the inverse regularization strength.
	C             float64
	Tolerance     float64
	MaxIterations int
	// Seed drives the per-epoch visiting order of training rows.
	Seed   int64
	Logger *slog.Logger
}

// DefaultTrainOptions returns C=1, tolerance 1e-4 and a 2000 iteration budget.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{C: 1, Tolerance: 1e-4, MaxIterations: 2000, Seed: 42}
}

// Model is a trained linear classifier. Positive scores predict Positive.
type Model struct {
	Weights      []float64
	Bias         float64
	ClassWeights [2]float64 // indexed like Classes
	Iterations   int
	Converged    bool
	warning      *ConvergenceWarning
}

// Warning returns the convergence warning raised during training, or nil.
func (m *Model) Warning() *ConvergenceWarning { return m.warning }

// Decision returns the signed distance-like score of a feature row.
func (m *Model) Decision(row features.Row) float64 {
	return row.Dot(m.Weights) + m.Bias
}

// PredictRow returns the label of a feature row.
func (m *Model) PredictRow(row features.Row) Label {
	if m.Decision(row) > 0 {
		return Positive
	}
	return Negative
}

// Predict labels every row of x.
func (m *Model) Predict(x *features.Matrix) []Label {
	n, _ := x.Dims()
	out := make([]Label, n)
	for i := 0; i < n; i++ {
		out[i] = m.PredictRow(x.Row(i))
	}
	return out
}

// BalancedClassWeights returns n/(2*n_c) for each class in Classes order.
func BalancedClassWeights(labels []Label) ([2]float64, error) {
	var counts [2]int
	for _, l := range labels {
		switch l {
		case Negative:
			counts[0]++
		case Positive:
			counts[1]++
		default:
			return [2]float64{}, fmt.Errorf("%w: non-canonical label %v", ErrTraining, l)
		}
	}
	if counts[0] == 0 || counts[1] == 0 {
		return [2]float64{}, fmt.Errorf("%w: need both classes, got %d %v and %d %v",
			ErrTraining, counts[0], Negative, counts[1], Positive)
	}
	n := float64(len(labels))
	return [2]float64{n / (2 * float64(counts[0])), n / (2 * float64(counts[1]))}, nil
}

// Train fits an L2-regularized squared-hinge linear SVM with an intercept,
// weighting each class inversely to its frequency. It uses dual coordinate
// descent; a non-converged run returns a model carrying a ConvergenceWarning.
func Train(x *features.Matrix, labels []Label, opts TrainOptions) (*Model, error) {
	rows, cols := x.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", ErrTraining, rows, len(labels))
	}
	if opts.C <= 0 || opts.Tolerance <= 0 || opts.MaxIterations <= 0 {
		return nil, fmt.Errorf("%w: invalid options %+v", ErrTraining, opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	classWeights, err := BalancedClassWeights(labels)
	if err != nil {
		return nil, err
	}

	y := make([]float64, rows)
	diag := make([]float64, rows)
	qii := make([]float64, rows)
	for i, l := range labels {
		c := opts.C * classWeights[0]
		y[i] = -1
		if l == Positive {
			c = opts.C * classWeights[1]
			y[i] = 1
		}
		diag[i] = 0.5 / c
		// The intercept is an extra constant feature of value 1.
		qii[i] = x.Row(i).SquaredNorm() + 1 + diag[i]
	}

	m := &Model{Weights: make([]float64, cols), ClassWeights: classWeights}
	alpha := make([]float64, rows)
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	gap := math.Inf(1)
	for m.Iterations < opts.MaxIterations {
		m.Iterations++
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		pgMax, pgMin := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			row := x.Row(i)
			g := y[i]*m.Decision(row) - 1 + diag[i]*alpha[i]
			pg := g
			if alpha[i] == 0 && g > 0 {
				pg = 0
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)
			if math.Abs(pg) < 1e-12 {
				continue
			}
			old := alpha[i]
			alpha[i] = math.Max(old-g/qii[i], 0)
			d := (alpha[i] - old) * y[i]
			row.AddTo(m.Weights, d)
			m.Bias += d
		}
		gap = pgMax - pgMin
		if gap <= opts.Tolerance {
			m.Converged = true
			break
		}
	}

	if !m.Converged {
		m.warning = &ConvergenceWarning{Iterations: m.Iterations, Gap: gap, Tolerance: opts.Tolerance}
		logger.Warn("training did not converge", "iterations", m.Iterations, "gap", gap)
	}
	logger.Info("model trained",
		"rows", rows, "features", cols, "iterations", m.Iterations, "converged", m.Converged,
		"weight_norm", floats.Norm(m.Weights, 2), "bias", m.Bias)
	return m, nil
}
