// Package main implements the synthcorpus CLI: the MCP server plus manual
// import and query commands against the corpus store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/synthcorpus/internal/config"
	"github.com/dshills/synthcorpus/internal/logging"
	"github.com/dshills/synthcorpus/internal/recorder"
	"github.com/dshills/synthcorpus/internal/similarity"
	"github.com/dshills/synthcorpus/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	// Global flags
	configPath string
	dbPath     string
	logLevel   string
	jsonOutput bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "synthcorpus",
		Short: "Corpus of code-synthesis attempts with similarity retrieval",
		Long: `synthcorpus stores the outcome of every code-synthesis attempt and
retrieves the stored attempts that most resemble a new request.

It runs as an MCP server on stdio (serve) or as a command-line tool for
importing journals and inspecting the corpus.`,
		Version:       fmt.Sprintf("%s (built %s, %s driver, %s)", version, buildTime, storage.DriverName, storage.BuildMode),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "corpus database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newRecentCmd())
	rootCmd.AddCommand(newTopCmd())
	rootCmd.AddCommand(newSimilarCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}

// app bundles the components every command works with
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *storage.SQLiteStorage
	journal *recorder.Journal
}

// setup loads configuration, builds the logger and opens the store. A store
// that cannot be opened is fatal for every command.
func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	path, err := config.ExpandPath(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(path, storage.WithLogger(logger.Named("storage")))
	if err != nil {
		logger.Error("failed to open corpus store", zap.String("path", path), zap.Error(err))
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open corpus store: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, store: store}

	if cfg.Database.JournalPath != "" {
		journalPath, err := config.ExpandPath(cfg.Database.JournalPath)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.journal, err = recorder.OpenJournal(journalPath)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *app) recorder() *recorder.Recorder {
	opts := []recorder.Option{recorder.WithLogger(a.logger.Named("recorder"))}
	if a.journal != nil {
		opts = append(opts, recorder.WithJournal(a.journal))
	}
	return recorder.New(a.store, opts...)
}

func (a *app) engine() *similarity.Engine {
	return similarity.New(a.store,
		similarity.WithWindow(a.cfg.Similarity.Window),
		similarity.WithLogger(a.logger.Named("similarity")))
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("failed to close journal", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
