package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.TestFraction != 0.2 || cfg.Seed != 42 || cfg.MaxFeatures != 5000 || cfg.MinDF != 5 ||
		cfg.NgramMin != 1 || cfg.NgramMax != 2 || cfg.MaxIterations != 2000 || cfg.SampleSize != nil {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
source: data/reviews.db
format: sqlite
table: labeled
sample_size: 1000
test_fraction: 0.25
min_df: 2
norm: l2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "data/reviews.db" || cfg.Format != "sqlite" || cfg.Table != "labeled" {
		t.Errorf("source fields = %+v", cfg)
	}
	if cfg.SampleSize == nil || *cfg.SampleSize != 1000 {
		t.Errorf("SampleSize = %v", cfg.SampleSize)
	}
	if cfg.TestFraction != 0.25 || cfg.MinDF != 2 || cfg.Norm != "l2" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxFeatures != 5000 || cfg.TextColumn != "reviewText" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != Default().Source {
		t.Fatalf("Source = %q", cfg.Source)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("seed: [1, 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENTIMENT_SOURCE", "/tmp/x.csv")
	t.Setenv("SENTIMENT_SEED", "7")
	t.Setenv("SENTIMENT_TEST_FRACTION", "0.3")
	t.Setenv("SENTIMENT_SAMPLE_SIZE", "50")
	t.Setenv("SENTIMENT_SUBLINEAR_TF", "true")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "/tmp/x.csv" || cfg.Seed != 7 || cfg.TestFraction != 0.3 || !cfg.SublinearTF {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SampleSize == nil || *cfg.SampleSize != 50 {
		t.Fatalf("SampleSize = %v", cfg.SampleSize)
	}

	t.Setenv("SENTIMENT_SAMPLE_SIZE", "none")
	cfg, err = Load("")
	if err != nil || cfg.SampleSize != nil {
		t.Fatalf("none sample size: %v %v", cfg.SampleSize, err)
	}

	t.Setenv("SENTIMENT_MAX_ITERATIONS", "lots")
	if _, err := Load(""); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestValidate(t *testing.T) {
	zero := 0
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"fraction zero", func(c *Config) { c.TestFraction = 0 }, "test_fraction"},
		{"fraction one", func(c *Config) { c.TestFraction = 1 }, "test_fraction"},
		{"sample size zero", func(c *Config) { c.SampleSize = &zero }, "sample_size"},
		{"max features", func(c *Config) { c.MaxFeatures = 0 }, "max_features"},
		{"min df", func(c *Config) { c.MinDF = 0 }, "min_df"},
		{"ngram", func(c *Config) { c.NgramMin, c.NgramMax = 3, 2 }, "ngram"},
		{"norm", func(c *Config) { c.Norm = "l1" }, "norm"},
		{"format", func(c *Config) { c.Format = "parquet" }, "format"},
		{"sqlite table", func(c *Config) { c.Format, c.Table = "sqlite", "" }, "table"},
		{"encoding", func(c *Config) { c.Encoding = "klingon-8" }, "encoding"},
		{"iterations", func(c *Config) { c.MaxIterations = -1 }, "max_iterations"},
		{"c", func(c *Config) { c.C = 0 }, "c must be positive"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"columns", func(c *Config) { c.TextColumn = "" }, "text_column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("err = %v, want ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateListsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.TestFraction = 2
	cfg.MinDF = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "test_fraction") || !strings.Contains(err.Error(), "min_df") {
		t.Fatalf("err = %v", err)
	}
}

func TestIsUTF8(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF-8", "utf8"} {
		if !IsUTF8(name) {
			t.Errorf("IsUTF8(%q) = false", name)
		}
	}
	if IsUTF8("latin1") {
		t.Error("IsUTF8(latin1) = true")
	}
}
