// Package config loads synthcorpus configuration from an optional YAML file
// and SYNTHCORPUS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/synthcorpus/internal/logging"
	"github.com/dshills/synthcorpus/internal/similarity"
)

// Defaults
const (
	DefaultDBPath       = "~/.synthcorpus/corpus.db"
	DefaultSimilarLimit = 5
	DefaultImportWorker = 4
)

// Config is the complete runtime configuration
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Import     ImportConfig     `koanf:"import"`
	Logging    logging.Config   `koanf:"logging"`
}

// DatabaseConfig locates the corpus store and its JSONL mirror
type DatabaseConfig struct {
	Path string `koanf:"path"`
	// JournalPath enables the JSONL mirror when set
	JournalPath string `koanf:"journal_path"`
}

// SimilarityConfig tunes retrieval. Scoring weights are not configurable.
type SimilarityConfig struct {
	Window       int `koanf:"window"`
	DefaultLimit int `koanf:"default_limit"`
}

// ImportConfig controls JSONL import
type ImportConfig struct {
	Workers int `koanf:"workers"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDBPath
	}
	if cfg.Similarity.Window == 0 {
		cfg.Similarity.Window = similarity.DefaultWindow
	}
	if cfg.Similarity.DefaultLimit == 0 {
		cfg.Similarity.DefaultLimit = DefaultSimilarLimit
	}
	if cfg.Import.Workers == 0 {
		cfg.Import.Workers = DefaultImportWorker
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = logging.DefaultLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = logging.FormatJSON
	}
}

// Validate checks the configuration for values no component accepts
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Similarity.Window <= 0 {
		errs = append(errs, fmt.Errorf("similarity.window must be positive, got %d", c.Similarity.Window))
	}
	if c.Similarity.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("similarity.default_limit must be positive, got %d", c.Similarity.DefaultLimit))
	}
	if c.Import.Workers <= 0 {
		errs = append(errs, fmt.Errorf("import.workers must be positive, got %d", c.Import.Workers))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
