// Package pipeline wires dataset preparation, TF-IDF fitting, training and
// evaluation into a single run.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"reviewsentiment/config"
	"reviewsentiment/dataset"
	"reviewsentiment/features"
	"reviewsentiment/sentiment"
)

// Stages named by StageError.
const (
	StageConfig    = "config"
	StageLoad      = "load"
	StageSchema    = "schema"
	StageFilter    = "filter"
	StageSplit     = "split"
	StageVectorize = "vectorize"
	StageTrain     = "train"
	StageEvaluate  = "evaluate"
)

// StageError reports the stage at which a run aborted.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Result holds everything a successful run produced.
type Result struct {
	RunID       string
	Diagnostics dataset.Diagnostics
	Vocabulary  *features.Vocabulary
	Model       *sentiment.Model
	Report      sentiment.Report
	TrainShape  [2]int
	TestShape   [2]int
}

// Classify cleans and vectorizes a raw review and returns its predicted
// label and decision score.
func (r *Result) Classify(text string) (sentiment.Label, float64) {
	row := r.Vocabulary.TransformOne(sentiment.Clean(text))
	score := r.Model.Decision(row)
	return r.Model.PredictRow(row), score
}

// Run executes the full pipeline described by cfg. Any abort is a
// *StageError; no partial result is returned.
func Run(cfg config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, &StageError{Stage: StageConfig, Err: err}
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	opts := dataset.Options{
		TextColumn:   cfg.TextColumn,
		LabelColumn:  cfg.LabelColumn,
		TestFraction: cfg.TestFraction,
		Seed:         cfg.Seed,
		Load: dataset.LoadOptions{
			Format:   cfg.Format,
			Table:    cfg.Table,
			Encoding: cfg.Encoding,
		},
		Logger: logger.With("stage", "prepare"),
	}
	if cfg.SampleSize != nil {
		opts.SampleSize = *cfg.SampleSize
	}
	logger.Info("loading dataset", "source", cfg.Source)
	split, err := dataset.Prepare(cfg.Source, opts)
	if err != nil {
		return nil, &StageError{Stage: prepareStage(err), Err: err}
	}

	vocab, err := features.Fit(split.TrainText, features.Options{
		MaxFeatures: cfg.MaxFeatures,
		MinDF:       cfg.MinDF,
		NgramMin:    cfg.NgramMin,
		NgramMax:    cfg.NgramMax,
		Norm:        features.Norm(cfg.Norm),
		SublinearTF: cfg.SublinearTF,
		Logger:      logger.With("stage", StageVectorize),
	})
	if err != nil {
		return nil, &StageError{Stage: StageVectorize, Err: err}
	}
	xTrain := vocab.Transform(split.TrainText)
	xTest := vocab.Transform(split.TestText)

	res := &Result{RunID: runID, Diagnostics: split.Diagnostics, Vocabulary: vocab}
	res.TrainShape[0], res.TrainShape[1] = xTrain.Dims()
	res.TestShape[0], res.TestShape[1] = xTest.Dims()
	logger.Info("vectorized", "train_shape", res.TrainShape, "test_shape", res.TestShape)

	model, err := sentiment.Train(xTrain, split.TrainLabels, sentiment.TrainOptions{
		C:             cfg.C,
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
		Seed:          cfg.Seed,
		Logger:        logger.With("stage", StageTrain),
	})
	if err != nil {
		return nil, &StageError{Stage: StageTrain, Err: err}
	}
	res.Model = model

	report, err := sentiment.Evaluate(model, xTest, split.TestLabels)
	if err != nil {
		return nil, &StageError{Stage: StageEvaluate, Err: err}
	}
	res.Report = report
	logger.Info("evaluated", "accuracy", report.Accuracy, "test_rows", report.Total)
	return res, nil
}

func prepareStage(err error) string {
	switch {
	case errors.Is(err, dataset.ErrNotFound), errors.Is(err, dataset.ErrLoad):
		return StageLoad
	case errors.Is(err, dataset.ErrSchema):
		return StageSchema
	case errors.Is(err, dataset.ErrEmptyDataset):
		return StageFilter
	case errors.Is(err, config.ErrConfiguration):
		return StageConfig
	default:
		return StageSplit
	}
}
