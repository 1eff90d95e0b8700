package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/synthcorpus/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run the MCP tool server on stdin/stdout.

Logs are written to stderr; stdout carries only MCP protocol messages.

Examples:
  # Serve the default corpus
  synthcorpus serve

  # Serve a specific database with debug logging
  synthcorpus serve --db ./corpus.db --log-level debug`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcp.NewServer(a.store, a.recorder(), a.engine(), mcp.Options{
		SimilarLimit: a.cfg.Similarity.DefaultLimit,
		Logger:       a.logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("synthcorpus starting",
		zap.String("version", version),
		zap.String("db", a.cfg.Database.Path),
		zap.Int("similarity_window", a.cfg.Similarity.Window))

	err = server.Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("server error", zap.Error(err))
		return err
	}

	a.logger.Info("server stopped")
	return nil
}
