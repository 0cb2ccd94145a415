package sentiment

import (
	"errors"
	"math"
	"testing"

	"reviewsentiment/features"
)

func fitMatrices(t *testing.T, train, test []string) (*features.Matrix, *features.Matrix) {
	t.Helper()
	opts := features.DefaultOptions()
	opts.MinDF = 1
	vocab, err := features.Fit(train, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return vocab.Transform(train), vocab.Transform(test)
}

var (
	separableTrain = []string{
		"great phone", "great camera", "great screen",
		"awful phone", "awful camera", "awful screen",
	}
	separableLabels = []Label{Positive, Positive, Positive, Negative, Negative, Negative}
)

func TestTrainSeparable(t *testing.T) {
	test := []string{"great battery great", "really great", "awful battery", "awful really"}
	testLabels := []Label{Positive, Positive, Negative, Negative}
	xTrain, xTest := fitMatrices(t, separableTrain, test)

	model, err := Train(xTrain, separableLabels, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !model.Converged || model.Warning() != nil {
		t.Fatalf("expected convergence, got iterations=%d warning=%v", model.Iterations, model.Warning())
	}

	report, err := Evaluate(model, xTest, testLabels)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Accuracy != 1.0 {
		t.Fatalf("Accuracy = %v, want 1.0\n%s", report.Accuracy, report)
	}
	want := ConfusionMatrix{{2, 0}, {0, 2}}
	if report.Confusion != want {
		t.Fatalf("Confusion = %v, want %v", report.Confusion, want)
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", report.Warnings)
	}
}

func TestTrainDeterministic(t *testing.T) {
	xTrain, _ := fitMatrices(t, separableTrain, nil)
	a, err := Train(xTrain, separableLabels, DefaultTrainOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Train(xTrain, separableLabels, DefaultTrainOptions())
	if err != nil {
		t.Fatal(err)
	}
	if a.Bias != b.Bias || a.Iterations != b.Iterations {
		t.Fatalf("runs differ: bias %v vs %v, iterations %d vs %d", a.Bias, b.Bias, a.Iterations, b.Iterations)
	}
	for j := range a.Weights {
		if a.Weights[j] != b.Weights[j] {
			t.Fatalf("weight %d differs: %v vs %v", j, a.Weights[j], b.Weights[j])
		}
	}
}

func TestTrainReportsNonConvergence(t *testing.T) {
	xTrain, _ := fitMatrices(t, separableTrain, nil)
	opts := DefaultTrainOptions()
	opts.MaxIterations = 1
	opts.Tolerance = 1e-12

	model, err := Train(xTrain, separableLabels, opts)
	if err != nil {
		t.Fatalf("Train returned error for non-convergence: %v", err)
	}
	if model.Converged {
		t.Fatal("expected Converged = false")
	}
	w := model.Warning()
	if w == nil || w.Iterations != 1 {
		t.Fatalf("Warning = %v, want iterations 1", w)
	}

	report, err := Evaluate(model, xTrain, separableLabels)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("report warnings = %v, want the convergence warning", report.Warnings)
	}
}

func TestBalancedClassWeights(t *testing.T) {
	labels := []Label{Positive, Positive, Positive, Negative}
	w, err := BalancedClassWeights(labels)
	if err != nil {
		t.Fatal(err)
	}
	// n/(2*n_c): Negative 4/2, Positive 4/6.
	if math.Abs(w[0]-2) > 1e-12 || math.Abs(w[1]-4.0/6) > 1e-12 {
		t.Fatalf("weights = %v", w)
	}

	if _, err := BalancedClassWeights([]Label{Positive, Positive}); !errors.Is(err, ErrTraining) {
		t.Fatalf("single class: err = %v, want ErrTraining", err)
	}
	if _, err := BalancedClassWeights([]Label{Positive, Unmapped}); !errors.Is(err, ErrTraining) {
		t.Fatalf("unmapped label: err = %v, want ErrTraining", err)
	}
}

func TestTrainImbalancedStillFindsMinority(t *testing.T) {
	var train []string
	var labels []Label
	for i := 0; i < 18; i++ {
		train = append(train, "fine product works")
		labels = append(labels, Positive)
	}
	train = append(train, "broken product", "broken again")
	labels = append(labels, Negative, Negative)

	xTrain, xTest := fitMatrices(t, train, []string{"broken", "works fine"})
	model, err := Train(xTrain, labels, DefaultTrainOptions())
	if err != nil {
		t.Fatal(err)
	}
	got := model.Predict(xTest)
	if got[0] != Negative || got[1] != Positive {
		t.Fatalf("Predict = %v, want [Negative Positive]", got)
	}
}

func TestTrainRejectsMismatchedInput(t *testing.T) {
	xTrain, _ := fitMatrices(t, separableTrain, nil)
	if _, err := Train(xTrain, separableLabels[:2], DefaultTrainOptions()); !errors.Is(err, ErrTraining) {
		t.Fatalf("err = %v, want ErrTraining", err)
	}
	opts := DefaultTrainOptions()
	opts.C = 0
	if _, err := Train(xTrain, separableLabels, opts); !errors.Is(err, ErrTraining) {
		t.Fatalf("err = %v, want ErrTraining", err)
	}
}
