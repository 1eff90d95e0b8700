package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/synthcorpus/internal/recorder"
)

var importWorkers int

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from a JSONL journal",
		Long: `Import corpus entries from a JSONL file, one entry per line.

Existing ids are left untouched, so importing the same file twice is
harmless. Malformed lines are skipped and counted.

Examples:
  # Import a journal
  synthcorpus import corpus.jsonl

  # Import from stdin with 8 workers
  cat corpus.jsonl | synthcorpus import - --workers 8`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().IntVar(&importWorkers, "workers", 0, "concurrent insert workers (default from config)")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	var in io.Reader
	if args[0] == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	workers := importWorkers
	if workers <= 0 {
		workers = a.cfg.Import.Workers
	}

	importer := recorder.NewImporter(a.store, workers, a.logger.Named("import"))
	stats, err := importer.Import(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, stats)
	}
	fmt.Fprintf(out, "Read:       %d\n", stats.Read)
	fmt.Fprintf(out, "Inserted:   %d\n", stats.Inserted)
	fmt.Fprintf(out, "Duplicates: %d\n", stats.Duplicates)
	fmt.Fprintf(out, "Skipped:    %d\n", stats.Skipped)
	return nil
}
