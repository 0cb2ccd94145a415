// Package config loads pipeline options from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration is returned for option values the pipeline cannot use.
var ErrConfiguration = errors.New("configuration error")

// Config holds every recognized pipeline option.
type Config struct {
	Source   string `yaml:"source"`
	Format   string `yaml:"format"` // auto, csv or sqlite
	Table    string `yaml:"table"`  // sqlite only
	Encoding string `yaml:"encoding"`

	TextColumn  string `yaml:"text_column"`
	LabelColumn string `yaml:"label_column"`

	// SampleSize caps the rows kept before splitting. Nil keeps every row.
	SampleSize   *int    `yaml:"sample_size"`
	TestFraction float64 `yaml:"test_fraction"`
	Seed         int64   `yaml:"seed"`

	MaxFeatures int    `yaml:"max_features"`
	MinDF       int    `yaml:"min_df"`
	NgramMin    int    `yaml:"ngram_min"`
	NgramMax    int    `yaml:"ngram_max"`
	Norm        string `yaml:"norm"`
	SublinearTF bool   `yaml:"sublinear_tf"`

	C             float64 `yaml:"c"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Source:        "yorumlar_etiketlenecek.csv",
		Format:        "auto",
		Table:         "reviews",
		Encoding:      "utf-8",
		TextColumn:    "reviewText",
		LabelColumn:   "Sentiment",
		TestFraction:  0.2,
		Seed:          42,
		MaxFeatures:   5000,
		MinDF:         5,
		NgramMin:      1,
		NgramMax:      2,
		Norm:          "none",
		C:             1.0,
		Tolerance:     1e-4,
		MaxIterations: 2000,
		LogLevel:      "info",
	}
}

// Load reads path over the defaults and applies SENTIMENT_* environment
// overrides. A missing file leaves the defaults in place. The result is not
// validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("%w: read %s: %w", ErrConfiguration, path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("%w: parse %s: %w", ErrConfiguration, path, err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	envOverride(&cfg.Source, "SENTIMENT_SOURCE")
	envOverride(&cfg.Format, "SENTIMENT_FORMAT")
	envOverride(&cfg.Table, "SENTIMENT_TABLE")
	envOverride(&cfg.Encoding, "SENTIMENT_ENCODING")
	envOverride(&cfg.TextColumn, "SENTIMENT_TEXT_COLUMN")
	envOverride(&cfg.LabelColumn, "SENTIMENT_LABEL_COLUMN")
	envOverride(&cfg.Norm, "SENTIMENT_NORM")
	envOverride(&cfg.LogLevel, "SENTIMENT_LOG_LEVEL")
	if v := os.Getenv("SENTIMENT_SAMPLE_SIZE"); v != "" {
		if strings.EqualFold(v, "none") {
			cfg.SampleSize = nil
		} else if n, err := strconv.Atoi(v); err == nil {
			cfg.SampleSize = &n
		} else {
			errs = append(errs, fmt.Errorf("SENTIMENT_SAMPLE_SIZE: %w", err))
		}
	}
	errs = append(errs,
		envOverrideFloat(&cfg.TestFraction, "SENTIMENT_TEST_FRACTION"),
		envOverrideInt64(&cfg.Seed, "SENTIMENT_SEED"),
		envOverrideInt(&cfg.MaxFeatures, "SENTIMENT_MAX_FEATURES"),
		envOverrideInt(&cfg.MinDF, "SENTIMENT_MIN_DF"),
		envOverrideInt(&cfg.NgramMin, "SENTIMENT_NGRAM_MIN"),
		envOverrideInt(&cfg.NgramMax, "SENTIMENT_NGRAM_MAX"),
		envOverrideBool(&cfg.SublinearTF, "SENTIMENT_SUBLINEAR_TF"),
		envOverrideFloat(&cfg.C, "SENTIMENT_C"),
		envOverrideFloat(&cfg.Tolerance, "SENTIMENT_TOLERANCE"),
		envOverrideInt(&cfg.MaxIterations, "SENTIMENT_MAX_ITERATIONS"),
	)
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envOverrideInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envOverrideFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envOverrideBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// Validate reports every invalid option, wrapped in ErrConfiguration.
func (c Config) Validate() error {
	var errs []error
	if c.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}
	switch c.Format {
	case "auto", "csv", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("format must be auto, csv or sqlite, got %q", c.Format))
	}
	if c.Format == "sqlite" && c.Table == "" {
		errs = append(errs, errors.New("table is required for sqlite sources"))
	}
	if !IsUTF8(c.Encoding) {
		if enc, err := ianaindex.IANA.Encoding(c.Encoding); err != nil || enc == nil {
			errs = append(errs, fmt.Errorf("unsupported encoding %q", c.Encoding))
		}
	}
	if c.TextColumn == "" || c.LabelColumn == "" {
		errs = append(errs, errors.New("text_column and label_column are required"))
	}
	if c.SampleSize != nil && *c.SampleSize <= 0 {
		errs = append(errs, fmt.Errorf("sample_size must be positive, got %d", *c.SampleSize))
	}
	if !(c.TestFraction > 0 && c.TestFraction < 1) {
		errs = append(errs, fmt.Errorf("test_fraction must be in (0,1), got %v", c.TestFraction))
	}
	if c.MaxFeatures <= 0 {
		errs = append(errs, fmt.Errorf("max_features must be positive, got %d", c.MaxFeatures))
	}
	if c.MinDF < 1 {
		errs = append(errs, fmt.Errorf("min_df must be at least 1, got %d", c.MinDF))
	}
	if c.NgramMin < 1 || c.NgramMax < c.NgramMin {
		errs = append(errs, fmt.Errorf("ngram range (%d,%d) is invalid", c.NgramMin, c.NgramMax))
	}
	switch c.Norm {
	case "none", "l2":
	default:
		errs = append(errs, fmt.Errorf("norm must be none or l2, got %q", c.Norm))
	}
	if c.C <= 0 {
		errs = append(errs, fmt.Errorf("c must be positive, got %v", c.C))
	}
	if c.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("tolerance must be positive, got %v", c.Tolerance))
	}
	if c.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// IsUTF8 reports whether name denotes UTF-8. The empty name does.
func IsUTF8(name string) bool {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "", "utf8":
		return true
	}
	return false
}
