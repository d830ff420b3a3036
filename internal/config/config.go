package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root     string `yaml:"root"`
		Language string `yaml:"language"` // "go", "python" or empty for both
	} `yaml:"project"`
	Resolver struct {
		MinConfidence   float64             `yaml:"min_confidence"`
		FuzzyThreshold  float64             `yaml:"fuzzy_threshold"`
		PartialRatio    float64             `yaml:"partial_ratio"`
		AcceptThreshold float64             `yaml:"accept_threshold"`
		Aliases         map[string][]string `yaml:"aliases"`
	} `yaml:"resolver"`
	Verifier struct {
		Workers          int `yaml:"workers"`
		PathEvidenceHops int `yaml:"path_evidence_hops"`
	} `yaml:"verifier"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Resolver.MinConfidence = 0.5
	cfg.Resolver.FuzzyThreshold = 0.7
	cfg.Resolver.PartialRatio = 0.6
	cfg.Resolver.AcceptThreshold = 0.5
	cfg.Verifier.Workers = 4
	cfg.Verifier.PathEvidenceHops = 4
	cfg.Storage.DBPath = ".callproof/callproof.db"
	cfg.Log.Level = "info"
	return &cfg
}

// LoadConfig reads .env, the YAML file at path and CALLPROOF_* environment
// overrides, in that order. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config over the defaults
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("CALLPROOF_DB"); db != "" {
		cfg.Storage.DBPath = db
	}
	if level := os.Getenv("CALLPROOF_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if workers := os.Getenv("CALLPROOF_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid CALLPROOF_WORKERS %q: %w", workers, err)
		}
		cfg.Verifier.Workers = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	inUnit := func(name string, v float64) error {
		if v <= 0 || v > 1 {
			return fmt.Errorf("resolver.%s must be in (0, 1], got %v", name, v)
		}
		return nil
	}
	if err := inUnit("min_confidence", c.Resolver.MinConfidence); err != nil {
		return err
	}
	if err := inUnit("fuzzy_threshold", c.Resolver.FuzzyThreshold); err != nil {
		return err
	}
	if err := inUnit("partial_ratio", c.Resolver.PartialRatio); err != nil {
		return err
	}
	if err := inUnit("accept_threshold", c.Resolver.AcceptThreshold); err != nil {
		return err
	}
	if c.Resolver.AcceptThreshold < c.Resolver.MinConfidence {
		return fmt.Errorf("resolver.accept_threshold (%v) is below min_confidence (%v)",
			c.Resolver.AcceptThreshold, c.Resolver.MinConfidence)
	}
	if c.Verifier.Workers < 1 {
		return fmt.Errorf("verifier.workers must be at least 1, got %d", c.Verifier.Workers)
	}
	if c.Verifier.PathEvidenceHops < 1 {
		return fmt.Errorf("verifier.path_evidence_hops must be at least 1, got %d", c.Verifier.PathEvidenceHops)
	}
	switch c.Project.Language {
	case "", "go", "python":
	default:
		return fmt.Errorf("project.language must be go or python, got %q", c.Project.Language)
	}
	return nil
}
