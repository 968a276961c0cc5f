package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RunDefinition describes one command-line optimisation run
type RunDefinition struct {
	PortfolioVersionID int64    `yaml:"portfolio_version_id"`
	DateFrom           string   `yaml:"date_from"`
	DateTo             string   `yaml:"date_to"`
	Tickers            []string `yaml:"tickers"`      // Replaces the version's assets when set
	PriceSource        string   `yaml:"price_source"` // Overrides PRICE_SOURCE
	Workers            int      `yaml:"workers"`      // Overrides FRONTIER_WORKERS
	Output             string   `yaml:"output"`       // Response JSON path, stdout when empty
	Chart              string   `yaml:"chart"`        // Optional PNG path
}

// LoadRun reads a run definition from a YAML file
func LoadRun(path string) (*RunDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var run RunDefinition
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}

	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run file %s: %w", path, err)
	}
	return &run, nil
}

// Validate checks the run definition
func (r *RunDefinition) Validate() error {
	if r.PortfolioVersionID <= 0 {
		return fmt.Errorf("portfolio_version_id must be positive")
	}
	from, err := time.Parse("2006-01-02", r.DateFrom)
	if err != nil {
		return fmt.Errorf("invalid date_from: %w", err)
	}
	to, err := time.Parse("2006-01-02", r.DateTo)
	if err != nil {
		return fmt.Errorf("invalid date_to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("date_to %s is before date_from %s", r.DateTo, r.DateFrom)
	}
	if r.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// Apply overrides application settings named in the run definition
func (r *RunDefinition) Apply(cfg *Config) error {
	if r.PriceSource != "" {
		cfg.PriceSource = strings.ToLower(r.PriceSource)
	}
	if r.Workers > 0 {
		cfg.Workers = r.Workers
	}
	return cfg.Validate()
}
