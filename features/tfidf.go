// Package features turns cleaned review text into TF-IDF feature matrices.
//
// A Vocabulary is produced only by Fit, which reads the training texts and
// nothing else. Both partitions are then mapped through the same fitted
// Vocabulary with Transform, so test documents never influence the selected
// terms or their document frequencies.
package features

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
)

// Norm selects the per-row normalization applied after TF-IDF weighting.
type Norm string

const (
	NormNone Norm = "none"
	NormL2   Norm = "l2"
)

// minTokenRunes is the shortest word that becomes a feature.
const minTokenRunes = 2

var (
	// ErrEmptyVocabulary is returned when no term survives pruning.
	ErrEmptyVocabulary = errors.New("features: empty vocabulary")
	// ErrInvalidOptions is returned for options Fit cannot honor.
	ErrInvalidOptions = errors.New("features: invalid options")
)

// Options configures vocabulary fitting.
type Options struct {
	MaxFeatures int
	MinDF       int
	NgramMin    int
	NgramMax    int
	Norm        Norm
	// SublinearTF replaces the raw term count with 1+ln(count).
	SublinearTF bool
	Logger      *slog.Logger
}

// DefaultOptions returns unigram+bigram options capped at 5000 terms that
// each appear in at least 5 training documents.
func DefaultOptions() Options {
	return Options{
		MaxFeatures: 5000,
		MinDF:       5,
		NgramMin:    1,
		NgramMax:    2,
		Norm:        NormNone,
	}
}

func (o Options) validate() error {
	var errs []error
	if o.MaxFeatures <= 0 {
		errs = append(errs, fmt.Errorf("max features must be positive, got %d", o.MaxFeatures))
	}
	if o.MinDF < 1 {
		errs = append(errs, fmt.Errorf("min df must be at least 1, got %d", o.MinDF))
	}
	if o.NgramMin < 1 || o.NgramMax < o.NgramMin {
		errs = append(errs, fmt.Errorf("ngram range (%d,%d) is invalid", o.NgramMin, o.NgramMax))
	}
	switch o.Norm {
	case "", NormNone, NormL2:
	default:
		errs = append(errs, fmt.Errorf("unknown norm %q", o.Norm))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(errs...))
	}
	return nil
}

// Vocabulary is a fitted term index with inverse document frequencies.
// It is immutable and safe for concurrent use.
type Vocabulary struct {
	terms    []string
	index    map[string]int
	idf      []float64
	docFreq  []int
	numDocs  int
	ngramMin int
	ngramMax int
	norm     Norm
	sublin   bool
}

// Fit selects the vocabulary from the training texts and computes smoothed
// IDF weights ln((1+n)/(1+df)) + 1 from training document frequencies.
func Fit(train []string, opts Options) (*Vocabulary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: no training documents", ErrEmptyVocabulary)
	}

	df := make(map[string]int)
	total := make(map[string]int)
	for _, doc := range train {
		seen := make(map[string]struct{})
		for _, term := range ngrams(doc, opts.NgramMin, opts.NgramMax) {
			total[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	kept := make([]string, 0, len(df))
	for term, n := range df {
		if n >= opts.MinDF {
			kept = append(kept, term)
		}
	}
	logger.Debug("vocabulary candidates",
		"distinct_terms", len(df), "min_df", opts.MinDF, "after_min_df", len(kept))

	if len(kept) > opts.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			a, b := kept[i], kept[j]
			if total[a] != total[b] {
				return total[a] > total[b]
			}
			return a < b
		})
		kept = kept[:opts.MaxFeatures]
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no term appears in %d or more of %d training documents",
			ErrEmptyVocabulary, opts.MinDF, len(train))
	}
	sort.Strings(kept)

	v := &Vocabulary{
		terms:    kept,
		index:    make(map[string]int, len(kept)),
		idf:      make([]float64, len(kept)),
		docFreq:  make([]int, len(kept)),
		numDocs:  len(train),
		ngramMin: opts.NgramMin,
		ngramMax: opts.NgramMax,
		norm:     opts.Norm,
		sublin:   opts.SublinearTF,
	}
	n := float64(len(train))
	for i, term := range kept {
		v.index[term] = i
		v.docFreq[i] = df[term]
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	logger.Info("vocabulary fitted", "documents", len(train), "terms", len(kept))
	return v, nil
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Documents returns the number of training documents the vocabulary was fit on.
func (v *Vocabulary) Documents() int { return v.numDocs }

// Terms returns the terms in column order.
func (v *Vocabulary) Terms() []string {
	return append([]string(nil), v.terms...)
}

// Index returns the column of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// IDF returns the inverse document frequency of column j.
func (v *Vocabulary) IDF(j int) float64 { return v.idf[j] }

// DocFreq returns the number of training documents containing column j.
func (v *Vocabulary) DocFreq(j int) int { return v.docFreq[j] }

// Transform maps documents onto the vocabulary. Row i of the result
// corresponds to texts[i].
func (v *Vocabulary) Transform(texts []string) *Matrix {
	m := &Matrix{rows: make([]Row, len(texts)), cols: len(v.terms)}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(texts) {
		workers = len(texts)
	}
	if workers <= 1 {
		for i, text := range texts {
			m.rows[i] = v.TransformOne(text)
		}
		return m
	}

	chunk := (len(texts) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(texts); start += chunk {
		end := min(start+chunk, len(texts))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				m.rows[i] = v.TransformOne(texts[i])
			}
		}(start, end)
	}
	wg.Wait()
	return m
}

// TransformOne maps a single document onto the vocabulary.
func (v *Vocabulary) TransformOne(text string) Row {
	counts := make(map[int]int)
	for _, term := range ngrams(text, v.ngramMin, v.ngramMax) {
		if j, ok := v.index[term]; ok {
			counts[j]++
		}
	}
	row := Row{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, len(counts)),
	}
	for j := range counts {
		row.Indices = append(row.Indices, j)
	}
	sort.Ints(row.Indices)
	for k, j := range row.Indices {
		tf := float64(counts[j])
		if v.sublin {
			tf = 1 + math.Log(tf)
		}
		row.Values[k] = tf * v.idf[j]
	}
	if v.norm == NormL2 && len(row.Values) > 0 {
		if n := floats.Norm(row.Values, 2); n > 0 {
			floats.Scale(1/n, row.Values)
		}
	}
	return row
}

// words splits text into letter runs of at least minTokenRunes runes.
func words(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenRunes {
			out = append(out, f)
		}
	}
	return out
}

// ngrams returns every contiguous word sequence of length lo..hi, joined by
// single spaces.
func ngrams(text string, lo, hi int) []string {
	ws := words(text)
	var out []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(ws); i++ {
			if n == 1 {
				out = append(out, ws[i])
				continue
			}
			out = append(out, strings.Join(ws[i:i+n], " "))
		}
	}
	return out
}
