package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pagebridge/internal/config"
	"github.com/vango-dev/pagebridge/pkg/offline"
)

func precacheCmd() *cobra.Command {
	var (
		origin   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "precache",
		Short: "Install the current cache generation into storage",
		Long: `Fetch every configured asset from the origin, store the generation in
the configured storage backend and delete older generations.

Examples:
  pagebridge precache --origin https://docs.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}
			if origin != "" {
				cfg.Worker.Origin = origin
			}
			w, err := storageWorker(cfg, logger)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := precache(cmd.Context(), w); err != nil {
				return err
			}
			success("Installed %s (%d assets) in %s", w.CacheName(), len(w.Assets), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "", "Origin relative assets are fetched from (default from pagebridge.json)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

// storageWorker builds the configured worker backed by the configured
// storage and an HTTP fetcher for the worker origin.
func storageWorker(cfg *config.Config, logger *slog.Logger) (*offline.Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, err := cfg.NewWorker()
	if err != nil {
		return nil, err
	}
	storage, err := cfg.NewStorage()
	if err != nil {
		return nil, err
	}
	w.Storage = storage
	w.Fetcher = offline.NewHTTPFetcher(cfg.Worker.Origin)
	w.Logger = logger.With("component", "offline")
	return w, nil
}

func precache(ctx context.Context, w *offline.Worker) error {
	if err := w.Install(ctx); err != nil {
		return err
	}
	return w.Activate(ctx)
}
