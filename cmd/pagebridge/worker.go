package main

import (
	"bytes"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pagebridge/internal/config"
	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/internal/watch"
	"github.com/vango-dev/pagebridge/pkg/offline"
)

func workerCmd() *cobra.Command {
	var (
		output      string
		fingerprint string
		watching    bool
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Generate app-worker.js",
		Long: `Generate the offline worker script for the current build.

The script precaches every configured asset into a cache named after the
build fingerprint and drops older generations when it activates.

Examples:
  pagebridge worker
  pagebridge worker --output public --fingerprint $(git rev-parse HEAD)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			generate := func() (*config.Config, error) {
				cfg, err := config.LoadFromWorkingDir()
				if err != nil {
					return nil, err
				}
				if output != "" {
					cfg.Worker.Output = output
				}
				if fingerprint != "" {
					cfg.Worker.Fingerprint = fingerprint
				}
				path, w, err := writeWorker(cfg)
				if err != nil {
					return cfg, err
				}
				success("Wrote %s", path)
				info("cache %s, %d assets", w.CacheName(), len(w.Assets))
				return cfg, nil
			}

			cfg, err := generate()
			if !watching || cfg == nil {
				return err
			}
			if err != nil {
				errorMsg("%v", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			paths := []string{cfg.Path()}
			if m := cfg.ManifestPath(); m != "" {
				paths = append(paths, m)
			}
			info("watching %s", strings.Join(paths, ", "))
			w := watch.New(watch.Config{Paths: paths})
			err = w.Run(ctx, func(changed []string) {
				info("changed: %s", strings.Join(changed, ", "))
				if _, err := generate(); err != nil {
					errorMsg("%v", err)
				}
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from pagebridge.json)")
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "Regenerate when pagebridge.json or the manifest changes")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Build fingerprint (default from pagebridge.json or the manifest)")
	return cmd
}

// writeWorker renders the worker script of cfg into its output directory.
func writeWorker(cfg *config.Config) (string, *offline.Worker, error) {
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	w, err := cfg.NewWorker()
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	if err := w.WriteScript(&buf); err != nil {
		return "", nil, err
	}

	dir := cfg.OutputPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, errors.New("E140").Wrap(err)
	}
	path := filepath.Join(dir, filepath.Base(offline.ScriptPath))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", nil, errors.New("E140").Wrap(err)
	}
	return path, w, nil
}
