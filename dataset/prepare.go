// Package dataset loads labeled reviews, filters and normalizes them, and
// splits them into stratified train and test partitions.
package dataset

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"reviewsentiment/sentiment"
)

// Options configures Prepare.
type Options struct {
	TextColumn  string
	LabelColumn string
	// SampleSize caps the rows kept after missing-value filtering. Zero keeps
	// every row.
	SampleSize   int
	TestFraction float64
	Seed         int64
	Load         LoadOptions
	Logger       *slog.Logger
}

// DefaultOptions returns options for the reviewText/Sentiment layout with a
// 20% test partition and seed 42.
func DefaultOptions() Options {
	return Options{
		TextColumn:   "reviewText",
		LabelColumn:  "Sentiment",
		TestFraction: 0.2,
		Seed:         42,
	}
}

// Diagnostics records what each filtering step did.
type Diagnostics struct {
	Rows            int            `json:"rows"`
	MissingDropped  int            `json:"missing_dropped"`
	Sampled         bool           `json:"sampled"`
	AfterSampling   int            `json:"after_sampling"`
	UnmappedDropped int            `json:"unmapped_dropped"`
	UnmappedLabels  map[string]int `json:"unmapped_labels,omitempty"`
	ClassCounts     [2]int         `json:"class_counts"` // indexed like sentiment.Classes
	TrainCounts     [2]int         `json:"train_counts"`
	TestCounts      [2]int         `json:"test_counts"`
}

// Split is the output of Prepare. Train and test are disjoint and together
// hold every cleaned document.
type Split struct {
	TrainText   []string
	TestText    []string
	TrainLabels []sentiment.Label
	TestLabels  []sentiment.Label
	Diagnostics Diagnostics
}

// Prepare loads source and runs PrepareTable on it.
func Prepare(source string, opts Options) (*Split, error) {
	t, err := Load(source, opts.Load)
	if err != nil {
		return nil, err
	}
	return PrepareTable(t, opts)
}

// PrepareTable validates the columns, drops rows with a missing text or
// label, optionally samples, maps labels, cleans text and splits.
//
// A missing text cell drops the row here, before cleaning.
func PrepareTable(t *Table, opts Options) (*Split, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	textIdx, labelIdx := t.ColumnIndex(opts.TextColumn), t.ColumnIndex(opts.LabelColumn)
	if textIdx < 0 || labelIdx < 0 {
		var missing []string
		if textIdx < 0 {
			missing = append(missing, opts.TextColumn)
		}
		if labelIdx < 0 {
			missing = append(missing, opts.LabelColumn)
		}
		return nil, &SchemaError{Missing: missing, Available: append([]string(nil), t.Columns...)}
	}

	var diag Diagnostics
	diag.Rows = len(t.Rows)

	type raw struct{ text, label string }
	records := make([]raw, 0, len(t.Rows))
	for _, row := range t.Rows {
		text, label := row[textIdx], row[labelIdx]
		if !text.Valid || !label.Valid {
			diag.MissingDropped++
			continue
		}
		records = append(records, raw{text.String, label.String})
	}
	if diag.MissingDropped > 0 {
		logger.Warn("dropped rows with missing text or label", "rows", diag.MissingDropped)
	}

	if opts.SampleSize > 0 && len(records) > opts.SampleSize {
		rng := rand.New(rand.NewSource(opts.Seed))
		perm := rng.Perm(len(records))[:opts.SampleSize]
		sampled := make([]raw, len(perm))
		for i, j := range perm {
			sampled[i] = records[j]
		}
		records = sampled
		diag.Sampled = true
		logger.Info("sampled rows", "sample_size", opts.SampleSize)
	} else {
		logger.Info("using all available rows", "rows", len(records))
	}
	diag.AfterSampling = len(records)

	docs := make([]sentiment.Document, 0, len(records))
	for _, r := range records {
		label := sentiment.MapLabel(r.label)
		if label == sentiment.Unmapped {
			diag.UnmappedDropped++
			if diag.UnmappedLabels == nil {
				diag.UnmappedLabels = make(map[string]int)
			}
			diag.UnmappedLabels[sentiment.NormalizeLabel(r.label)]++
			continue
		}
		docs = append(docs, sentiment.Document{Text: r.text, Label: label})
	}
	if diag.UnmappedDropped > 0 {
		logger.Warn("dropped rows with unmapped labels",
			"rows", diag.UnmappedDropped, "labels", diag.UnmappedLabels)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %d rows loaded, %d missing, %d unmapped",
			ErrEmptyDataset, diag.Rows, diag.MissingDropped, diag.UnmappedDropped)
	}

	for i := range docs {
		diag.ClassCounts[classIndex(docs[i].Label)]++
		docs[i].Text = sentiment.Clean(docs[i].Text)
	}
	logger.Info("class distribution",
		sentiment.Negative.String(), diag.ClassCounts[0],
		sentiment.Positive.String(), diag.ClassCounts[1])

	train, test, err := StratifiedSplit(docs, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}

	s := &Split{
		TrainText:   make([]string, len(train)),
		TestText:    make([]string, len(test)),
		TrainLabels: make([]sentiment.Label, len(train)),
		TestLabels:  make([]sentiment.Label, len(test)),
	}
	for i, d := range train {
		s.TrainText[i], s.TrainLabels[i] = d.Text, d.Label
		diag.TrainCounts[classIndex(d.Label)]++
	}
	for i, d := range test {
		s.TestText[i], s.TestLabels[i] = d.Text, d.Label
		diag.TestCounts[classIndex(d.Label)]++
	}
	s.Diagnostics = diag
	logger.Info("split dataset", "train", len(train), "test", len(test))
	return s, nil
}

func classIndex(l sentiment.Label) int {
	if l == sentiment.Positive {
		return 1
	}
	return 0
}
