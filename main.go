package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"reviewsentiment/config"
	"reviewsentiment/dataset"
	"reviewsentiment/pipeline"
	"reviewsentiment/sentiment"
)

var (
	configPath   = flag.String("config", "config.yaml", "Path to YAML config (missing file uses defaults)")
	mode         = flag.String("mode", "evaluate", "evaluate|classify|serve")
	textInput    = flag.String("text", "", "Text to classify when using classify mode")
	port         = flag.Int("port", 8080, "Port for the HTTP server when using serve mode")
	logFormat    = flag.String("log-format", "text", "text|json")
	source       = flag.String("source", "", "Labeled CSV file or SQLite database")
	table        = flag.String("table", "", "SQLite table holding the reviews")
	encoding     = flag.String("encoding", "", "Source character encoding (IANA name)")
	textColumn   = flag.String("text-column", "", "Review text column")
	labelColumn  = flag.String("label-column", "", "Sentiment label column")
	sampleSize   = flag.Int("sample-size", 0, "Keep at most this many rows before splitting")
	testFraction = flag.Float64("test-fraction", 0, "Fraction of rows held out for evaluation")
	seed         = flag.Int64("seed", 0, "Seed for sampling, splitting and training order")
	maxFeatures  = flag.Int("max-features", 0, "Vocabulary size cap")
	minDF        = flag.Int("min-df", 0, "Minimum training documents per term")
	maxIter      = flag.Int("max-iter", 0, "Classifier iteration budget")
	logLevel     = flag.String("log-level", "", "debug|info|warn|error")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	applyFlags(&cfg)
	logger := newLogger(cfg.LogLevel, *logFormat)

	switch *mode {
	case "evaluate":
		err = runEvaluationMode(cfg, logger)
	case "classify":
		err = runClassifyMode(cfg, logger, *textInput)
	case "serve":
		err = runServerMode(cfg, logger, *port)
	default:
		err = fmt.Errorf("unknown mode %q (expected evaluate|classify|serve)", *mode)
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over file and environment values.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "table":
			cfg.Table = *table
		case "encoding":
			cfg.Encoding = *encoding
		case "text-column":
			cfg.TextColumn = *textColumn
		case "label-column":
			cfg.LabelColumn = *labelColumn
		case "sample-size":
			n := *sampleSize
			cfg.SampleSize = &n
		case "test-fraction":
			cfg.TestFraction = *testFraction
		case "seed":
			cfg.Seed = *seed
		case "max-features":
			cfg.MaxFeatures = *maxFeatures
		case "min-df":
			cfg.MinDF = *minDF
		case "max-iter":
			cfg.MaxIterations = *maxIter
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func runEvaluationMode(cfg config.Config, logger *slog.Logger) error {
	res, err := pipeline.Run(cfg, logger)
	if err != nil {
		return err
	}
	d := res.Diagnostics
	fmt.Printf("Run: %s\n", res.RunID)
	fmt.Printf("Rows loaded: %d (missing dropped: %d, unmapped dropped: %d)\n",
		d.Rows, d.MissingDropped, d.UnmappedDropped)
	fmt.Printf("Train matrix: %dx%d\n", res.TrainShape[0], res.TrainShape[1])
	fmt.Printf("Test matrix:  %dx%d\n\n", res.TestShape[0], res.TestShape[1])
	fmt.Print(res.Report.String())
	if w := res.Model.Warning(); w != nil {
		logger.Warn("model returned without convergence", "error", w)
	}
	return nil
}

func runClassifyMode(cfg config.Config, logger *slog.Logger, text string) error {
	if text == "" {
		return errors.New("-text is required in classify mode")
	}
	res, err := pipeline.Run(cfg, logger)
	if err != nil {
		return err
	}
	label, score := res.Classify(text)
	fmt.Printf("Input: %q\n", text)
	fmt.Printf("Predicted sentiment: %s (score %.4f)\n", label, score)
	return nil
}

func runServerMode(cfg config.Config, logger *slog.Logger, port int) error {
	res, err := pipeline.Run(cfg, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: buildRouter(res),
	}
	logger.Info("serving sentiment API", "addr", fmt.Sprintf("http://localhost:%d/classify", port))
	return srv.ListenAndServe()
}

func buildRouter(res *pipeline.Result) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Text == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}
		label, score := res.Classify(req.Text)
		writeJSON(w, classifyResponse{Label: label, Score: score})
	})
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, reportResponse{RunID: res.RunID, Diagnostics: res.Diagnostics, Report: res.Report})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label sentiment.Label `json:"label"`
	Score float64         `json:"score"`
}

type reportResponse struct {
	RunID       string              `json:"run_id"`
	Diagnostics dataset.Diagnostics `json:"diagnostics"`
	Report      sentiment.Report    `json:"report"`
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
