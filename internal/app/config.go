package app

import (
	"errors"
	"fmt"
	"time"
)

// DefaultExtensions are the source file extensions picked up from
// directories.
var DefaultExtensions = []string{".sas"}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Sources    []string // files, directories or storage URLs
	RulesPaths []string // extra rule registries, hcl files or directories
	Extensions []string
	Tokenizer  string   // sas, or dump for JSON token dumps of an external tokenizer
	Keywords   []string // extra statement keywords of site-specific dialects

	OutDir string // empty streams reports to the output writer
	Format string // json or yaml
	NoTree bool

	Workers int
	Timeout time.Duration // per file; zero disables

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Sources) == 0 {
		return nil, errors.New("at least one source path is required")
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Format != "json" && cfg.Format != "yaml" {
		return nil, fmt.Errorf("invalid format '%s': must be 'json' or 'yaml'", cfg.Format)
	}
	switch cfg.Tokenizer {
	case "":
		cfg.Tokenizer = "sas"
	case "sas", "dump":
	default:
		return nil, fmt.Errorf("invalid tokenizer '%s': must be 'sas' or 'dump'", cfg.Tokenizer)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
		if cfg.Tokenizer == "dump" {
			cfg.Extensions = []string{".json"}
		}
	}
	return &cfg, nil
}
